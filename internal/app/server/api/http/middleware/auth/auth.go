package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"reptisync/internal/app/server/api/http/apierror"
	"reptisync/internal/app/server/api/http/middleware/requestid"
	"reptisync/internal/domain/session"
)

type Auth struct {
	session session.Servicer
	log     *slog.Logger
}

func New(session session.Servicer, log *slog.Logger) *Auth {
	return &Auth{
		session: session,
		log:     log.With(slog.String("component", "auth")),
	}
}

type contextKey string

const UserIDKey contextKey = "userID"

const bearerPrefix = "Bearer "

// Middleware возвращает middleware для Huma с сигнатурой func(ctx Context, next func(Context))
func (a *Auth) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		header := ctx.Header("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			a.log.Debug("missing bearer token",
				slog.String("request_id", requestid.FromContext(ctx.Context())))
			apierror.Write(ctx, apierror.Unauthorized("missing bearer token"))
			return
		}

		// Валидируем токен
		userID, err := a.session.Validate(ctx.Context(), strings.TrimSpace(header[len(bearerPrefix):]))
		if err != nil {
			if !errors.Is(err, session.ErrInvalidSession) {
				a.log.Error("validate session",
					slog.String("error", err.Error()),
					slog.String("request_id", requestid.FromContext(ctx.Context())))
			}
			apierror.Write(ctx, apierror.Unauthorized("invalid or expired token"))
			return
		}

		next(huma.WithValue(ctx, UserIDKey, userID))
	}
}

func GetUserID(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(UserIDKey).(int)
	return userID, ok
}

// WithUserID кладет пользователя в контекст, как это делает Middleware.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}
