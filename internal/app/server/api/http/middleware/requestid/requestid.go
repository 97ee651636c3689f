package requestid

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/segmentio/ksuid"
)

const Header = "X-Request-ID"

// Длиннее этого входящий идентификатор не принимаем
const maxLen = 64

type contextKey string

const requestIDKey contextKey = "requestID"

type RequestID struct {
	generate func() string
}

func New() *RequestID {
	return &RequestID{
		generate: func() string { return ksuid.New().String() },
	}
}

// Middleware берет X-Request-ID клиента или выдает новый ksuid и возвращает его в ответе.
func (r *RequestID) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		id := ctx.Header(Header)
		if id == "" || len(id) > maxLen {
			id = r.generate()
		}

		ctx.SetHeader(Header, id)
		next(huma.WithValue(ctx, requestIDKey, id))
	}
}

func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
