package importer

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pennywise-dev/pennywise/internal/model"
)

// Nationwide exports start with an account line, then three lines of
// balance metadata, then the column header.
const (
	nationwideAccountCol    = 1
	nationwideMaskMarker    = "****"
	nationwidePreambleLines = 3

	nationwideColDate     = "Date"
	nationwideColDesc     = "Description"
	nationwideColCardDesc = "Transactions"
	nationwideColPaidIn   = "Paid in"
	nationwideColPaidOut  = "Paid out"

	// NationwideCreditCardAccount is the account label Nationwide prints on
	// credit card exports.
	NationwideCreditCardAccount = "Nationwide Credit Card"
)

// Nationwide parses Nationwide current account and credit card exports.
type Nationwide struct {
	bank       string
	creditCard bool
}

// NewNationwide returns the adapter for Nationwide exports. Credit card
// statements are recognised by their account label.
func NewNationwide() *Nationwide {
	return &Nationwide{bank: "Nationwide"}
}

// NewNationwideCreditCard returns the adapter for Nationwide credit card
// exports regardless of account label.
func NewNationwideCreditCard() *Nationwide {
	return &Nationwide{bank: "NationwideCreditCard", creditCard: true}
}

// Bank returns the adapter's bank identifier.
func (a *Nationwide) Bank() string { return a.bank }

// Open reads the account label from the first line and skips the preamble.
func (a *Nationwide) Open(r io.Reader) (*Statement, error) {
	br := bufio.NewReader(r)

	first, err := br.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || first == "") {
		return nil, fmt.Errorf("reading account line: %w", err)
	}
	account, err := nationwideAccount(first)
	if err != nil {
		return nil, err
	}

	for i := 0; i < nationwidePreambleLines; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) {
				return emptyStatement(account), nil
			}
			return nil, fmt.Errorf("skipping preamble: %w", err)
		}
	}

	return newStatement(br, account, 1+nationwidePreambleLines)
}

func nationwideAccount(line string) (string, error) {
	rec, err := csv.NewReader(strings.NewReader(line)).Read()
	if err != nil {
		return "", fmt.Errorf("%w: parsing account line: %v", ErrBadPreamble, err)
	}
	if len(rec) <= nationwideAccountCol {
		return "", fmt.Errorf("%w: account line has %d fields", ErrBadPreamble, len(rec))
	}
	account := strings.TrimSpace(strings.SplitN(rec[nationwideAccountCol], nationwideMaskMarker, 2)[0])
	if account == "" {
		return "", fmt.Errorf("%w: empty account name", ErrBadPreamble)
	}
	return account, nil
}

func (a *Nationwide) descriptionColumn(account string) string {
	if a.creditCard || account == NationwideCreditCardAccount {
		return nationwideColCardDesc
	}
	return nationwideColDesc
}

// Fields normalizes a Nationwide row. A row with neither or both of
// "Paid in" and "Paid out" yields a zero amount and a recovered
// MalformedRowError.
func (a *Nationwide) Fields(row RawRow, account string) (model.NormalizedFields, error) {
	date, err := ParseDate(row.Get(nationwideColDate))
	if err != nil {
		return model.NormalizedFields{}, row.malformed(nationwideColDate, err)
	}

	fields := model.NormalizedFields{
		Date:        date,
		Description: row.Get(a.descriptionColumn(account)),
		Account:     account,
	}

	amount, err := paidInOut(row)
	if err != nil {
		var mre *MalformedRowError
		if errors.As(err, &mre) && mre.Recovered {
			fields.Amount = decimal.Zero
			return fields, err
		}
		return model.NormalizedFields{}, err
	}
	fields.Amount = amount
	return fields, nil
}

func paidInOut(row RawRow) (decimal.Decimal, error) {
	in := row.Get(nationwideColPaidIn)
	out := row.Get(nationwideColPaidOut)

	var inAmt, outAmt decimal.Decimal
	var err error
	if in != "" {
		if inAmt, err = ParseAmount(in); err != nil {
			return decimal.Zero, row.malformed(nationwideColPaidIn, err)
		}
	}
	if out != "" {
		if outAmt, err = ParseAmount(out); err != nil {
			return decimal.Zero, row.malformed(nationwideColPaidOut, err)
		}
	}

	switch {
	case in != "" && out != "":
		e := row.malformed(nationwideColPaidIn, ErrBothAmounts)
		e.Value = in + " / " + out
		e.Recovered = true
		return decimal.Zero, e
	case in != "":
		return inAmt, nil
	case out != "":
		return outAmt.Neg(), nil
	default:
		e := row.malformed(nationwideColPaidIn, ErrNoAmount)
		e.Recovered = true
		return decimal.Zero, e
	}
}
