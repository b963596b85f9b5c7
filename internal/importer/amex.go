package importer

import (
	"io"

	"github.com/pennywise-dev/pennywise/internal/model"
)

const (
	amexAccount   = "Amex"
	amexColDate   = "Date"
	amexColDesc   = "Description"
	amexColAmount = "Amount"
)

// Amex parses American Express CSV exports. Charges are listed as positive
// amounts and are negated.
type Amex struct{}

// NewAmex returns the Amex adapter.
func NewAmex() *Amex { return &Amex{} }

// Bank returns the adapter's bank identifier.
func (a *Amex) Bank() string { return "Amex" }

// Open starts reading at the header line.
func (a *Amex) Open(r io.Reader) (*Statement, error) {
	return newStatement(r, amexAccount, 0)
}

// Fields normalizes an Amex row.
func (a *Amex) Fields(row RawRow, account string) (model.NormalizedFields, error) {
	date, err := ParseDate(row.Get(amexColDate))
	if err != nil {
		return model.NormalizedFields{}, row.malformed(amexColDate, err)
	}
	amount, err := ParseAmount(row.Get(amexColAmount))
	if err != nil {
		return model.NormalizedFields{}, row.malformed(amexColAmount, err)
	}
	return model.NormalizedFields{
		Date:        date,
		Amount:      amount.Neg(),
		Description: row.Get(amexColDesc),
		Account:     account,
	}, nil
}
