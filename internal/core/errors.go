package core

import (
	"errors"
	"fmt"
)

// ErrInvalidTable is matched by every load-time validation error.
var ErrInvalidTable = errors.New("invalid table")

// MissingColumnError names the first required column absent from the input.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return "missing required column: " + e.Column
}

func (e *MissingColumnError) Is(target error) bool { return target == ErrInvalidTable }

// ParseError reports a metric cell that is not a number. Row is 1-based and
// does not count the header.
type ParseError struct {
	Row    int
	Column string
	Value  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d: column %s: invalid number %q", e.Row, e.Column, e.Value)
}

func (e *ParseError) Is(target error) bool { return target == ErrInvalidTable }

// RowLengthError reports a row whose cell count differs from the header.
type RowLengthError struct {
	Row       int
	Got, Want int
}

func (e *RowLengthError) Error() string {
	return fmt.Sprintf("row %d: got %d fields, want %d", e.Row, e.Got, e.Want)
}

func (e *RowLengthError) Is(target error) bool { return target == ErrInvalidTable }
