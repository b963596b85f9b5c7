package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Header is the CSV header of a local export.
const Header = "date,amount,description,category,kind,account"

const numFields = 6

// CSVAppender appends rows to a local CSV file, writing the header when it
// creates the file.
type CSVAppender struct {
	Path string
}

// NewCSVAppender creates a CSVAppender for path.
func NewCSVAppender(path string) *CSVAppender {
	return &CSVAppender{Path: path}
}

// AppendRows appends rows to the export file.
func (a *CSVAppender) AppendRows(_ context.Context, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(a.Path), 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(a.Path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(a.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening export: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, row := range rows {
		if len(row) != numFields {
			return fmt.Errorf("row %d: expected %d fields, got %d", i, numFields, len(row))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return f.Close()
}

// ReadRows returns the data rows of an export file, without the header.
func ReadRows(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading export CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}
	return records[1:], nil
}
