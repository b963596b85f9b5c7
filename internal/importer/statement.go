package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// RawRow is one data line of a statement keyed by header name. It is only
// valid for the iteration that produced it.
type RawRow struct {
	Index  int
	Line   int
	Fields map[string]string
}

// Get returns the trimmed value of a column, or "" when absent.
func (r RawRow) Get(column string) string {
	return strings.TrimSpace(r.Fields[column])
}

func (r RawRow) malformed(field string, err error) *MalformedRowError {
	return &MalformedRowError{
		Row:   r.Index,
		Line:  r.Line,
		Field: field,
		Value: r.Get(field),
		Err:   err,
	}
}

// Statement is a single forward pass over the rows of one statement file.
type Statement struct {
	Account string

	cr     *csv.Reader
	header []string
	offset int // physical lines consumed before the CSV reader started
	rows   int
	done   bool
}

func emptyStatement(account string) *Statement {
	return &Statement{Account: account, done: true}
}

// newStatement reads the header line from r and prepares row iteration.
func newStatement(r io.Reader, account string, offset int) (*Statement, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return emptyStatement(account), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	return &Statement{
		Account: account,
		cr:      cr,
		header:  header,
		offset:  offset,
	}, nil
}

// Header returns the column names of the statement.
func (s *Statement) Header() []string {
	return s.header
}

// Next returns the next data row, or io.EOF when the statement is exhausted.
// Rows whose fields are all blank are skipped.
func (s *Statement) Next() (RawRow, error) {
	for !s.done {
		rec, err := s.cr.Read()
		if errors.Is(err, io.EOF) {
			s.done = true
			break
		}
		if err != nil {
			return RawRow{}, fmt.Errorf("reading row %d: %w", s.rows+1, err)
		}
		if blank(rec) {
			continue
		}

		s.rows++
		line, _ := s.cr.FieldPos(0)
		fields := make(map[string]string, len(s.header))
		for i, h := range s.header {
			if i < len(rec) {
				fields[h] = rec[i]
			}
		}
		return RawRow{Index: s.rows, Line: s.offset + line, Fields: fields}, nil
	}
	return RawRow{}, io.EOF
}

// All drains the statement.
func (s *Statement) All() ([]RawRow, error) {
	var rows []RawRow
	for {
		row, err := s.Next()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
