package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/servercraft/authkit/pkg/logger"
)

// HealthCheckHandler serves both probe kinds. With no dependency checks it
// is a liveness probe and always answers 200 "ALIVE". With checks it is a
// readiness probe: 200 "READY" when every check passes, 500 "NOT_READY" as
// soon as one fails.
func HealthCheckHandler(ctx context.Context, log *slog.Logger, checks ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(checks) == 0 {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ALIVE"))
			return
		}

		for _, check := range checks {
			if err := check(ctx); err != nil {
				log.ErrorContext(ctx, "readiness check failed", logger.Error(err))
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("NOT_READY"))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("READY"))
	}
}
