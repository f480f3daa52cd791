package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/example/erm/internal/application"
	"github.com/example/erm/internal/logging"
)

// PrincipalResolver turns a signed in login into a principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, login string) (application.Principal, error)
}

// RequireSession rejects requests without a valid session and attaches the
// principal to the request context.
func RequireSession(sessions *Sessions, resolver PrincipalResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			login, err := sessions.Login(r)
			if err != nil {
				handlerLogger(r.Context(), logger, "", "RequireSession").DebugContext(r.Context(), "session rejected", "error", err)
				responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
					ErrorCode: "AUTH_SESSION_INVALID",
					Message:   errMissingSessionToken.Error(),
				})
				return
			}

			principal, err := resolver.Resolve(r.Context(), login)
			if err != nil {
				if errors.Is(err, application.ErrUnauthorized) {
					responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
						ErrorCode: "AUTH_SESSION_INVALID",
						Message:   "the account is no longer active",
					})
					return
				}
				responder.writeError(r.Context(), w, http.StatusInternalServerError, err)
				return
			}

			ctx := ContextWithPrincipal(r.Context(), principal)
			ctx = logging.ContextWithLogger(ctx, logging.Default(ctx, logger).With("principal", principal.Login))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// RequestLogger attaches a request scoped logger and logs every request.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := logging.ContextWithLogger(r.Context(), logger)
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			logger.DebugContext(ctx, "request started")
			next.ServeHTTP(rec, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "status", rec.status, "duration", time.Since(start))
		})
	}
}
