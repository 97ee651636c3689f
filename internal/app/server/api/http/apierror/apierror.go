// Package apierror единый конверт ошибок API: {"error": {"code", "message", "details"}}.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/danielgtaylor/huma/v2"
)

const (
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInvalidTimestamp = "INVALID_TIMESTAMP"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidTable     = "INVALID_TABLE"
	CodeInvalidOperation = "INVALID_OPERATION"
	CodeNotFound         = "NOT_FOUND"
	CodeForbidden        = "FORBIDDEN"
	CodeValidation       = "VALIDATION_ERROR"
	CodeSyncError        = "SYNC_ERROR"
	CodeInternal         = "INTERNAL_ERROR"
)

// Error реализует huma.StatusError, поэтому его можно возвращать из обработчиков.
type Error struct {
	status int
	Detail Detail `json:"error"`
}

type Detail struct {
	Code    string   `json:"code" example:"VALIDATION_ERROR"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func New(status int, code, message string, details ...string) *Error {
	return &Error{
		status: status,
		Detail: Detail{Code: code, Message: message, Details: details},
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Detail.Code, e.Detail.Message)
}

func (e *Error) GetStatus() int {
	return e.status
}

// ContentType заменяет application/problem+json, который huma ставит по умолчанию.
func (e *Error) ContentType(string) string {
	return "application/json"
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, message)
}

func InvalidTimestamp(message string) *Error {
	return New(http.StatusBadRequest, CodeInvalidTimestamp, message)
}

func InvalidRequest(message string, details ...string) *Error {
	return New(http.StatusBadRequest, CodeInvalidRequest, message, details...)
}

func InvalidTable(message string, tables ...string) *Error {
	return New(http.StatusBadRequest, CodeInvalidTable, message, tables...)
}

func InvalidOperation(message string) *Error {
	return New(http.StatusBadRequest, CodeInvalidOperation, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, CodeNotFound, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, CodeForbidden, message)
}

func Validation(message string, details ...string) *Error {
	return New(http.StatusBadRequest, CodeValidation, message, details...)
}

func Sync(message string) *Error {
	return New(http.StatusInternalServerError, CodeSyncError, message)
}

func Internal() *Error {
	return New(http.StatusInternalServerError, CodeInternal, "internal server error")
}

// FromHuma переводит ошибки, которые генерирует сам huma (разбор тела, валидация, лимиты), в общий конверт.
func FromHuma(status int, msg string, errs ...error) huma.StatusError {
	details := make([]string, 0, len(errs))
	for _, err := range errs {
		if err == nil {
			continue
		}
		var d *huma.ErrorDetail
		if errors.As(err, &d) {
			if d.Location != "" {
				details = append(details, fmt.Sprintf("%s: %s", d.Location, d.Message))
			} else {
				details = append(details, d.Message)
			}
			continue
		}
		details = append(details, err.Error())
	}

	switch {
	case status == http.StatusUnauthorized:
		return Unauthorized(msg)
	case status == http.StatusForbidden:
		return Forbidden(msg)
	case status == http.StatusNotFound:
		return NotFound(msg)
	case status == http.StatusRequestEntityTooLarge:
		return New(status, CodeInvalidRequest, msg, details...)
	case status >= http.StatusInternalServerError:
		return Internal()
	case status >= http.StatusBadRequest:
		// 422 от huma для клиента та же ошибка запроса
		return InvalidRequest(msg, details...)
	default:
		return New(status, CodeInternal, msg, details...)
	}
}

var installOnce sync.Once

// Install подменяет фабрику ошибок huma. huma.NewError общий на весь процесс,
// поэтому замена действует на все API процесса и выполняется только при первом вызове.
func Install() {
	installOnce.Do(func() {
		huma.NewError = FromHuma
	})
}

// Write отдает ошибку из middleware, где нет возврата error.
func Write(ctx huma.Context, err *Error) {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.SetStatus(err.GetStatus())
	_ = json.NewEncoder(ctx.BodyWriter()).Encode(err)
}

// WriteHTTP то же для обычных http.Handler (404 и 405 роутера).
func WriteHTTP(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.GetStatus())
	_ = json.NewEncoder(w).Encode(err)
}
