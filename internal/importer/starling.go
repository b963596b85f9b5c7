package importer

import (
	"io"

	"github.com/pennywise-dev/pennywise/internal/model"
)

const (
	starlingAccount   = "Starling"
	starlingColDate   = "Date"
	starlingColRef    = "Reference"
	starlingColAmount = "Amount (GBP)"
)

// Starling parses Starling Bank CSV exports, whose amounts are already signed.
type Starling struct{}

// NewStarling returns the Starling adapter.
func NewStarling() *Starling { return &Starling{} }

// Bank returns the adapter's bank identifier.
func (a *Starling) Bank() string { return "Starling" }

// Open starts reading at the header line.
func (a *Starling) Open(r io.Reader) (*Statement, error) {
	return newStatement(r, starlingAccount, 0)
}

// Fields normalizes a Starling row.
func (a *Starling) Fields(row RawRow, account string) (model.NormalizedFields, error) {
	date, err := ParseDate(row.Get(starlingColDate))
	if err != nil {
		return model.NormalizedFields{}, row.malformed(starlingColDate, err)
	}
	amount, err := ParseAmount(row.Get(starlingColAmount))
	if err != nil {
		return model.NormalizedFields{}, row.malformed(starlingColAmount, err)
	}
	return model.NormalizedFields{
		Date:        date,
		Amount:      amount,
		Description: row.Get(starlingColRef),
		Account:     account,
	}, nil
}
