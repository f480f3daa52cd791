package http

import (
	"context"
	"log/slog"

	"github.com/example/erm/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	logger := logging.Default(ctx, fallback)

	var pairs []any
	if handlerName != "" {
		pairs = append(pairs, "handler", handlerName)
	}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	pairs = append(pairs, attrs...)
	if len(pairs) == 0 {
		return logger
	}
	return logger.With(pairs...)
}
