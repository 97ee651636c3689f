package sync

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"reptisync/internal/app/server/api/http/apierror"
	"reptisync/internal/app/server/api/http/middleware/auth"
	"reptisync/internal/app/server/api/http/middleware/requestid"
	"reptisync/internal/domain/entity"
	"reptisync/internal/domain/sync"
)

const conflictMessage = "conflict: server has a newer version of this record"

type Handler struct {
	service      sync.Servicer
	log          *slog.Logger
	middleware   huma.Middlewares
	maxBodyBytes int64
}

func NewHandler(service sync.Servicer, log *slog.Logger, middleware huma.Middlewares, maxBodyBytes int64) *Handler {
	return &Handler{
		service:      service,
		log:          log.With(slog.String("component", "sync_handler")),
		middleware:   middleware,
		maxBodyBytes: maxBodyBytes,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.pullOp(), h.pull)
	huma.Register(api, h.batchOp(), h.batch)
	huma.Register(api, h.pushOp(), h.push)
}

func (h *Handler) pull(ctx context.Context, input *pullInput) (*pullOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, apierror.Unauthorized("unauthorized")
	}

	since, err := sync.ParseSince(input.Since)
	if err != nil {
		return nil, apierror.InvalidTimestamp(
			fmt.Sprintf("invalid since %q: expected epoch milliseconds or ISO8601 date", input.Since))
	}

	changes, err := h.service.Pull(ctx, userID, since)
	if err != nil {
		h.log.Error("pull failed",
			slog.Int("user_id", userID),
			slog.String("request_id", requestid.FromContext(ctx)),
			slog.String("error", err.Error()))
		return nil, apierror.Internal()
	}

	return &pullOutput{
		Body: PullResponse{Data: sync.ToPullDTO(changes)},
	}, nil
}

func (h *Handler) push(ctx context.Context, input *pushInput) (*pushOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, apierror.Unauthorized("unauthorized")
	}

	table, ok := entity.ParseTable(input.Table)
	if !ok {
		return nil, apierror.InvalidTable(fmt.Sprintf("invalid table: %q", input.Table), input.Table)
	}

	result, err := h.service.Push(ctx, userID, table, input.Body.toDomain())
	if err != nil {
		if errors.Is(err, sync.ErrInvalidOperation) {
			return nil, apierror.InvalidOperation(err.Error())
		}
		h.log.Error("push failed",
			slog.Int("user_id", userID),
			slog.String("table", table.String()),
			slog.String("record_id", input.Body.RecordID),
			slog.String("request_id", requestid.FromContext(ctx)),
			slog.String("error", err.Error()))
		return nil, apierror.Sync("failed to apply operation")
	}

	switch r := result.(type) {
	case sync.Success:
		return &pushOutput{
			Status: http.StatusOK,
			Body:   PushResponse{Data: sync.ToDTO(r)},
		}, nil
	case sync.Conflict:
		return &pushOutput{
			Status: http.StatusConflict,
			Body:   PushResponse{Data: sync.ToDTO(r), Message: conflictMessage},
		}, nil
	case sync.Failure:
		return nil, failureError(r)
	default:
		return nil, apierror.Sync("failed to apply operation")
	}
}

func (h *Handler) batch(ctx context.Context, input *batchInput) (*batchOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, apierror.Unauthorized("unauthorized")
	}

	outcome, err := h.service.PushBatch(ctx, userID, toBatchItems(input.Body.Operations))
	if err != nil {
		var tableErr *sync.InvalidTableError
		switch {
		case errors.As(err, &tableErr):
			return nil, apierror.InvalidTable(tableErr.Error(), tableErr.Tables...)
		case errors.Is(err, sync.ErrEmptyBatch), errors.Is(err, sync.ErrBatchTooLarge):
			return nil, apierror.InvalidRequest(err.Error())
		default:
			h.log.Error("batch failed",
				slog.Int("user_id", userID),
				slog.String("request_id", requestid.FromContext(ctx)),
				slog.String("error", err.Error()))
			return nil, apierror.Internal()
		}
	}

	return &batchOutput{
		Body: BatchResponse{Data: sync.ToBatchDTO(outcome)},
	}, nil
}

func failureError(f sync.Failure) *apierror.Error {
	switch f.Kind {
	case sync.KindNotFound:
		return apierror.NotFound(f.Message)
	case sync.KindForbidden:
		return apierror.Forbidden(f.Message)
	case sync.KindValidation:
		return apierror.Validation(f.Message, f.Details...)
	default:
		return apierror.Sync(f.Message)
	}
}
