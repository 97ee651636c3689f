package sync

import (
	"reptisync/internal/domain/sync"
)

// Request/Response структуры для Pull
type pullInput struct {
	Since string `query:"since" doc:"Миллисекунды эпохи или дата ISO8601. Пусто означает полную выгрузку" example:"1704067200000"`
}

type pullOutput struct {
	Body PullResponse
}

type PullResponse struct {
	Data sync.PullDTO `json:"data"`
}

// OperationRequest все поля необязательны: проверку делает домен, чтобы ошибка
// одной операции в пакете не отклоняла весь запрос.
type OperationRequest struct {
	_               struct{}       `json:"-" additionalProperties:"true"`
	Operation       string         `json:"operation,omitempty" example:"CREATE" doc:"CREATE, UPDATE или DELETE"`
	RecordID        string         `json:"recordId,omitempty" example:"3f6c1e9a-7a4b-4a53-9d7e-0d1a2b3c4d5e"`
	Payload         map[string]any `json:"payload,omitempty"`
	ClientTimestamp *int64         `json:"clientTimestamp,omitempty" example:"1704067200000" doc:"Время изменения на клиенте, мс эпохи"`
}

func (r *OperationRequest) toDomain() sync.Operation {
	return sync.Operation{
		Operation:       sync.OperationType(r.Operation),
		RecordID:        r.RecordID,
		Payload:         r.Payload,
		ClientTimestamp: r.ClientTimestamp,
	}
}

// Request/Response для Push
type pushInput struct {
	Table string `path:"table" example:"reptiles"`
	Body  OperationRequest
}

type pushOutput struct {
	Status int
	Body   PushResponse
}

type PushResponse struct {
	Data    sync.ResultDTO `json:"data"`
	Message string         `json:"message,omitempty"`
}

// Request/Response для PushBatch
type batchInput struct {
	Body BatchRequest
}

type batchOutput struct {
	Body BatchResponse
}

type BatchRequest struct {
	Operations []BatchItemRequest `json:"operations,omitempty"`
}

type BatchItemRequest struct {
	_         struct{}          `json:"-" additionalProperties:"true"`
	Table     string            `json:"table,omitempty" example:"feedings"`
	Operation *OperationRequest `json:"operation,omitempty"`
}

type BatchResponse struct {
	Data sync.BatchDTO `json:"data"`
}

func toBatchItems(req []BatchItemRequest) []sync.BatchItem {
	items := make([]sync.BatchItem, len(req))
	for i, r := range req {
		items[i] = sync.BatchItem{Table: r.Table}
		if r.Operation != nil {
			op := r.Operation.toDomain()
			items[i].Operation = &op
		}
	}
	return items
}
