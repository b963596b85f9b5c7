package categories

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCategory is returned when learning into a category the store
	// does not contain.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrEmptyKeyword is returned when learning a blank keyword.
	ErrEmptyKeyword = errors.New("keyword is empty")
	// ErrEmptyCategory is returned when creating a category with a blank name.
	ErrEmptyCategory = errors.New("category name is empty")
	// ErrInputClosed is returned when the operator's input ends before a
	// resolution completes.
	ErrInputClosed = errors.New("operator input closed")
)

// PersistenceError means the category store could not be read or written.
// Categorization cannot continue after one.
type PersistenceError struct {
	Path string
	Op   string // "load" or "save"
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("category store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
