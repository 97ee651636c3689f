package client

import (
	"maps"

	"reptisync/internal/domain/sync"
)

// mergeOps сворачивает новое изменение записи с последним неотправленным.
// ok=false значит, что операции не сворачиваются и новая встает в очередь отдельно.
// nil при ok=true значит, что обе операции взаимно погашены.
func mergeOps(prev, next PendingOp) (*PendingOp, bool) {
	if prev.Table != next.Table || prev.RecordID != next.RecordID {
		return nil, false
	}

	merged := next
	merged.Seq = 0
	merged.Attempts = 0
	merged.LastError = ""
	if prev.ClientTimestamp > merged.ClientTimestamp {
		merged.ClientTimestamp = prev.ClientTimestamp
	}

	switch {
	case prev.Operation == sync.OpCreate && next.Operation == sync.OpUpdate:
		merged.Operation = sync.OpCreate
		merged.Payload = overlay(prev.Payload, next.Payload)
	case prev.Operation == sync.OpUpdate && next.Operation == sync.OpUpdate:
		merged.Payload = overlay(prev.Payload, next.Payload)
	case prev.Operation == sync.OpCreate && next.Operation == sync.OpDelete:
		// сервер записи не видел
		return nil, true
	case prev.Operation == sync.OpUpdate && next.Operation == sync.OpDelete:
		merged.Payload = nil
	default:
		return nil, false
	}
	return &merged, true
}

func overlay(base, patch map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(patch))
	maps.Copy(out, base)
	maps.Copy(out, patch)
	return out
}
