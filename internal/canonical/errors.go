package canonical

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput marks a record with a missing or unparseable field.
	ErrMalformedInput = errors.New("malformed input")
	// ErrEmptySource marks a source that contains zero records.
	ErrEmptySource = errors.New("empty source")
)

// MalformedInputError describes the offending row and field.
// Row is 1-based and counts the header, matching what a spreadsheet shows.
type MalformedInputError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *MalformedInputError) Error() string {
	msg := fmt.Sprintf("row %d: %s: field %s", e.Row, ErrMalformedInput, e.Field)
	if e.Value != "" {
		msg += fmt.Sprintf(" value %q", e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap lets errors.Is match both ErrMalformedInput and the parse cause.
func (e *MalformedInputError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedInput}
	}
	return []error{ErrMalformedInput, e.Err}
}

// Malformed builds a MalformedInputError.
func Malformed(row int, field, value string, err error) error {
	return &MalformedInputError{Row: row, Field: field, Value: value, Err: err}
}
