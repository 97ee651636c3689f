package client

import (
	"fmt"
	"strings"
	"time"

	"reptisync/internal/domain/entity"
	"reptisync/internal/domain/sync"
)

// LocalRecord локальная копия записи любой таблицы
type LocalRecord struct {
	Table     entity.Table   `json:"table"`
	ID        string         `json:"id"`
	Data      map[string]any `json:"data"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Deleted   bool           `json:"deleted"`
	Pending   bool           `json:"pending"`
}

// Title короткое описание записи для списков
func (r *LocalRecord) Title() string {
	for _, key := range []string{"name", "preyType", "storageKey", "caption"} {
		if v, ok := r.Data[key].(string); ok && v != "" {
			return v
		}
	}
	if v, ok := r.Data["reptileId"].(string); ok {
		return "→ " + v
	}
	return "Без названия"
}

// PendingOp локальное изменение, еще не принятое сервером
type PendingOp struct {
	Seq             int64
	Table           entity.Table
	RecordID        string
	Operation       sync.OperationType
	Payload         map[string]any
	ClientTimestamp int64
	Attempts        int
	LastError       string
}

// OperationRequest тело операции в протоколе синхронизации
type OperationRequest struct {
	Operation       sync.OperationType `json:"operation"`
	RecordID        string             `json:"recordId"`
	Payload         map[string]any     `json:"payload,omitempty"`
	ClientTimestamp int64              `json:"clientTimestamp"`
}

type BatchItem struct {
	Table     entity.Table     `json:"table"`
	Operation OperationRequest `json:"operation"`
}

type batchRequest struct {
	Operations []BatchItem `json:"operations"`
}

type batchResponse struct {
	Data sync.BatchDTO `json:"data"`
}

// PullData ответ pull, записи приходят как есть
type PullData struct {
	Reptiles        []map[string]any `json:"reptiles"`
	Feedings        []map[string]any `json:"feedings"`
	Sheds           []map[string]any `json:"sheds"`
	Weights         []map[string]any `json:"weights"`
	EnvironmentLogs []map[string]any `json:"environmentLogs"`
	Photos          []map[string]any `json:"photos"`
	Summary         sync.PullSummary `json:"summary"`
	ServerTimestamp int64            `json:"serverTimestamp"`
}

type pullResponse struct {
	Data PullData `json:"data"`
}

// ByTable записи в порядке таблиц: родители раньше детей
func (p *PullData) ByTable() map[entity.Table][]map[string]any {
	return map[entity.Table][]map[string]any{
		entity.Reptiles:        p.Reptiles,
		entity.Feedings:        p.Feedings,
		entity.Sheds:           p.Sheds,
		entity.Weights:         p.Weights,
		entity.EnvironmentLogs: p.EnvironmentLogs,
		entity.Photos:          p.Photos,
	}
}

// APIError ошибка из конверта {"error": {...}}
type APIError struct {
	Status  int      `json:"-"`
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("%s (%d): %s [%s]", e.Code, e.Status, e.Message, strings.Join(e.Details, "; "))
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// SyncStatus сводка для команды status
type SyncStatus struct {
	Records    map[entity.Table]int
	Pending    int
	Failed     []PendingOp
	Checkpoint time.Time
}

// PushReport итог отправки очереди
type PushReport struct {
	Sent      int
	Applied   int
	Conflicts int
	Failed    int
	Errors    []string
}

// PullReport итог получения изменений
type PullReport struct {
	Received   int
	Applied    int
	Skipped    int
	Checkpoint time.Time
}

// SyncResult итог полной синхронизации
type SyncResult struct {
	Push     PushReport
	Pull     PullReport
	Duration time.Duration
}
