package importer

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedBank is returned when no adapter is registered for a bank.
	ErrUnsupportedBank = errors.New("unsupported bank")
	// ErrMissingInputDir is returned when a bank's input directory does not exist.
	ErrMissingInputDir = errors.New("input directory not found")
	// ErrBadPreamble is returned when a statement's leading metadata cannot be read.
	ErrBadPreamble = errors.New("unrecognized statement preamble")

	// ErrEmptyAmount is returned when an amount field is blank.
	ErrEmptyAmount = errors.New("amount is empty")
	// ErrNoAmount marks a row with neither a paid-in nor a paid-out value.
	ErrNoAmount = errors.New("neither paid in nor paid out is populated")
	// ErrBothAmounts marks a row with both a paid-in and a paid-out value.
	ErrBothAmounts = errors.New("both paid in and paid out are populated")
)

// ConfigurationError stops processing for one bank without affecting others.
type ConfigurationError struct {
	Bank   string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Bank == "" {
		return fmt.Sprintf("configuration: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("configuration: bank %q: %s: %v", e.Bank, e.Reason, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// MalformedRowError describes a statement row that could not be normalized
// cleanly. Recovered rows still produce fields (with a zero amount); the
// others are skipped.
type MalformedRowError struct {
	File      string
	Row       int // 1-based data row index
	Line      int // physical line in the file
	Field     string
	Value     string
	Recovered bool
	Err       error
}

func (e *MalformedRowError) Error() string {
	file := e.File
	if file == "" {
		file = "<input>"
	}
	return fmt.Sprintf("%s: row %d (line %d): field %q value %q: %v", file, e.Row, e.Line, e.Field, e.Value, e.Err)
}

func (e *MalformedRowError) Unwrap() error { return e.Err }
