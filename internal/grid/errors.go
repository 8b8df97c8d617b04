package grid

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRowNotFound       = errors.New("row not found")
	ErrUnknownField      = errors.New("unknown field")
	ErrColumnNotEditable = errors.New("column is not editable")
	ErrInvalidValue      = errors.New("invalid value")
	ErrInvalidIndex      = errors.New("invalid row index")
	ErrNoSelection       = errors.New("no row selected")
	ErrClipboardEmpty    = errors.New("clipboard is empty")
	ErrNoOverlay         = errors.New("no relation overlay open")
	ErrUnknownAgent      = errors.New("unknown agent")
	ErrNotLoaded         = errors.New("grid is not loaded")
)

// ValidationError is returned when required fields are empty. No request is
// sent in that case.
type ValidationError struct {
	RowID  RowID
	Fields []Field
}

func (e *ValidationError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = string(f)
	}
	return fmt.Sprintf("row %s: required fields are empty: %s", e.RowID, strings.Join(names, ", "))
}
