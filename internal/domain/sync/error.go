package sync

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidOperation = errors.New("invalid operation")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrEmptyBatch       = errors.New("operations must not be empty")
	ErrBatchTooLarge    = errors.New("too many operations in batch")
)

// InvalidTableError пакет содержит таблицы вне списка разрешенных.
type InvalidTableError struct {
	Tables []string
}

func (e *InvalidTableError) Error() string {
	quoted := make([]string, len(e.Tables))
	for i, t := range e.Tables {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	return "invalid table: " + strings.Join(quoted, ", ")
}

func validationFailure(details ...string) Failure {
	return Failure{Kind: KindValidation, Message: details[0], Details: details}
}

func notFound(format string, args ...any) Failure {
	return Failure{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func forbidden(format string, args ...any) Failure {
	return Failure{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}
