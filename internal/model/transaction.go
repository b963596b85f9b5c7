package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the canonical calendar-date layout used on every output surface.
const DateFormat = "2006-01-02"

// TransferCategory is the category name that forces Kind to KindTransfer.
const TransferCategory = "Transfer"

// Kind is the derived classification of a transaction. It is never stored
// independently of the category and amount it is derived from.
type Kind string

const (
	KindTransfer Kind = "Transfer"
	KindIncome   Kind = "Income"
	KindExpense  Kind = "Expense"
)

// NormalizedFields is one statement row after canonicalization.
type NormalizedFields struct {
	Date        time.Time
	Amount      decimal.Decimal // negative = debit, positive = credit
	Description string
	Account     string
}

// Transaction is a categorized, finished record ready for the sink.
type Transaction struct {
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	Category    string
	Kind        Kind
	Account     string
}

// DeriveKind classifies a transaction. A Transfer category wins over the
// amount sign; a zero amount is an expense.
func DeriveKind(category string, amount decimal.Decimal) Kind {
	switch {
	case category == TransferCategory:
		return KindTransfer
	case amount.IsPositive():
		return KindIncome
	default:
		return KindExpense
	}
}

// Build combines normalized fields with an assigned category.
func Build(f NormalizedFields, category string) Transaction {
	return Transaction{
		Date:        f.Date,
		Amount:      f.Amount,
		Description: f.Description,
		Category:    category,
		Kind:        DeriveKind(category, f.Amount),
		Account:     f.Account,
	}
}

// Row flattens a transaction into the sink column order:
// date, amount, description, category, kind, account.
func (t Transaction) Row() []string {
	return []string{
		t.Date.Format(DateFormat),
		t.Amount.StringFixed(2),
		t.Description,
		t.Category,
		string(t.Kind),
		t.Account,
	}
}
