package sync

import (
	"reptisync/internal/domain/entity"
)

// ResultDTO представление Result в ответах API.
type ResultDTO struct {
	Success   bool     `json:"success"`
	Conflict  bool     `json:"conflict"`
	Deleted   bool     `json:"deleted,omitempty"`
	ErrorType string   `json:"errorType,omitempty"`
	Error     string   `json:"error,omitempty"`
	Details   []string `json:"details,omitempty"`
	Data      any      `json:"data,omitempty"`
}

func ToDTO(r Result) ResultDTO {
	switch v := r.(type) {
	case Success:
		return ResultDTO{Success: true, Deleted: v.Deleted, Data: v.Record}
	case Conflict:
		return ResultDTO{Conflict: true, Error: v.Reason, Data: v.Server}
	case Failure:
		return ResultDTO{ErrorType: string(v.Kind), Error: v.Message, Details: v.Details}
	default:
		return ResultDTO{ErrorType: string(KindSyncError), Error: "unknown result"}
	}
}

// BatchDTO ответ на пакетную отправку.
type BatchDTO struct {
	Results []ResultDTO  `json:"results"`
	Summary BatchSummary `json:"summary"`
}

func ToBatchDTO(o *BatchOutcome) BatchDTO {
	results := make([]ResultDTO, len(o.Results))
	for i, r := range o.Results {
		results[i] = ToDTO(r)
	}
	return BatchDTO{Results: results, Summary: o.Summary}
}

type PullSummary struct {
	Reptiles        int `json:"reptiles"`
	Feedings        int `json:"feedings"`
	Sheds           int `json:"sheds"`
	Weights         int `json:"weights"`
	EnvironmentLogs int `json:"environmentLogs"`
	Photos          int `json:"photos"`
	Total           int `json:"total"`
}

// PullDTO ответ на pull. Пустые таблицы отдаются пустыми массивами.
type PullDTO struct {
	Reptiles        []entity.Entity `json:"reptiles"`
	Feedings        []entity.Entity `json:"feedings"`
	Sheds           []entity.Entity `json:"sheds"`
	Weights         []entity.Entity `json:"weights"`
	EnvironmentLogs []entity.Entity `json:"environmentLogs"`
	Photos          []entity.Entity `json:"photos"`
	Summary         PullSummary     `json:"summary"`
	ServerTimestamp int64           `json:"serverTimestamp"`
}

func ToPullDTO(c *entity.Changes) PullDTO {
	records := func(t entity.Table) []entity.Entity {
		if rs := c.Records[t]; rs != nil {
			return rs
		}
		return []entity.Entity{}
	}

	return PullDTO{
		Reptiles:        records(entity.Reptiles),
		Feedings:        records(entity.Feedings),
		Sheds:           records(entity.Sheds),
		Weights:         records(entity.Weights),
		EnvironmentLogs: records(entity.EnvironmentLogs),
		Photos:          records(entity.Photos),
		Summary: PullSummary{
			Reptiles:        c.Count(entity.Reptiles),
			Feedings:        c.Count(entity.Feedings),
			Sheds:           c.Count(entity.Sheds),
			Weights:         c.Count(entity.Weights),
			EnvironmentLogs: c.Count(entity.EnvironmentLogs),
			Photos:          c.Count(entity.Photos),
			Total:           c.Total(),
		},
		ServerTimestamp: c.ServerTimestamp.UnixMilli(),
	}
}
