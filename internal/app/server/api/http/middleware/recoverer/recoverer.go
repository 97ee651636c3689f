package recoverer

import (
	"fmt"
	"runtime/debug"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"reptisync/internal/app/server/api/http/apierror"
	"reptisync/internal/app/server/api/http/middleware/requestid"
)

type Recoverer struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Recoverer {
	return &Recoverer{
		log: log.With(slog.String("component", "recoverer")),
	}
}

// Middleware превращает панику обработчика в 500 INTERNAL_ERROR.
func (r *Recoverer) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			r.log.Error("panic recovered",
				slog.String("panic", fmt.Sprint(rec)),
				slog.String("request_id", requestid.FromContext(ctx.Context())),
				slog.String("path", ctx.URL().Path),
				slog.String("stack", string(debug.Stack())),
			)
			apierror.Write(ctx, apierror.Internal())
		}()

		next(ctx)
	}
}
