package sync

import (
	"time"

	"reptisync/internal/domain/entity"
)

type OperationType string

const (
	OpCreate OperationType = "CREATE"
	OpUpdate OperationType = "UPDATE"
	OpDelete OperationType = "DELETE"
)

func (o OperationType) Valid() bool {
	switch o {
	case OpCreate, OpUpdate, OpDelete:
		return true
	default:
		return false
	}
}

// Operation изменение, сделанное клиентом локально.
type Operation struct {
	Operation       OperationType  `json:"operation"`
	RecordID        string         `json:"recordId"`
	Payload         map[string]any `json:"payload,omitempty"`
	ClientTimestamp *int64         `json:"clientTimestamp,omitempty"`
}

// ClientTime время изменения на клиенте. Вызывать после validateOperation.
func (o Operation) ClientTime() time.Time {
	if o.ClientTimestamp == nil {
		return time.Time{}
	}
	return time.UnixMilli(*o.ClientTimestamp).UTC()
}

// BatchItem элемент пакетной отправки. Table приходит строкой и проверяется до обработки.
type BatchItem struct {
	Table     string     `json:"table"`
	Operation *Operation `json:"operation,omitempty"`
}

// Result итог одной операции: Success, Conflict или Failure.
type Result interface {
	result()
}

// Success операция применена. Для DELETE Record содержит запись с deletedAt.
type Success struct {
	Record     entity.Entity
	Deleted    bool
	Idempotent bool
}

// Conflict серверная запись новее, ничего не записано.
type Conflict struct {
	Server entity.Entity
	Reason string
}

// Failure ожидаемая ошибка операции.
type Failure struct {
	Kind    ErrorKind
	Message string
	Details []string
}

func (Success) result()  {}
func (Conflict) result() {}
func (Failure) result()  {}

type ErrorKind string

const (
	KindNotFound   ErrorKind = "NOT_FOUND"
	KindForbidden  ErrorKind = "FORBIDDEN"
	KindValidation ErrorKind = "VALIDATION_ERROR"
	KindSyncError  ErrorKind = "SYNC_ERROR"
)

type BatchSummary struct {
	Total     int `json:"total"`
	Success   int `json:"success"`
	Failed    int `json:"failed"`
	Conflicts int `json:"conflicts"`
}

func (s *BatchSummary) add(r Result) {
	s.Total++
	switch r.(type) {
	case Success:
		s.Success++
	case Conflict:
		s.Conflicts++
	default:
		s.Failed++
	}
}

// BatchOutcome результаты в порядке операций запроса.
type BatchOutcome struct {
	Results []Result
	Summary BatchSummary
}
