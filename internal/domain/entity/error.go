package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrStale        = errors.New("record was modified concurrently")
	ErrDuplicate    = errors.New("record already exists")
	ErrUnknownTable = errors.New("unknown table")
)

// ValidationError список нарушений схемы таблицы. Первое нарушение идет в Message.
type ValidationError struct {
	Table   Table
	Details []string
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: invalid payload", e.Table)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Details[0])
}

// Message первое нарушение без префикса таблицы.
func (e *ValidationError) Message() string {
	if len(e.Details) == 0 {
		return "invalid payload"
	}
	return e.Details[0]
}

func (e *ValidationError) String() string {
	return strings.Join(e.Details, "; ")
}

func newValidationError(t Table, details ...string) *ValidationError {
	return &ValidationError{Table: t, Details: details}
}
