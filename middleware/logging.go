package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/ipc/core/handler"
	"github.com/dmitrymomot/ipc/core/logger"
)

// LoggingConfig configures the request logging middleware.
type LoggingConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool

	// Logger is the slog logger to use (default: slog.Default())
	Logger *slog.Logger

	// LogLevel for request logging (default: slog.LevelInfo)
	LogLevel slog.Level

	// SlowRequestThreshold logs slow requests at warning level (default: 5s)
	SlowRequestThreshold time.Duration

	// Component name attached to every log line
	Component string
}

// Logging creates a request logging middleware with default
// configuration: one line per request at info level with method, path,
// status, and duration.
func Logging[C handler.Context]() handler.Middleware[C] {
	return LoggingWithConfig[C](LoggingConfig{})
}

// LoggingWithLogger creates a logging middleware with a custom logger.
func LoggingWithLogger[C handler.Context](log *slog.Logger) handler.Middleware[C] {
	return LoggingWithConfig[C](LoggingConfig{Logger: log})
}

// LoggingWithConfig creates a request logging middleware with custom
// configuration.
func LoggingWithConfig[C handler.Context](cfg LoggingConfig) handler.Middleware[C] {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SlowRequestThreshold == 0 {
		cfg.SlowRequestThreshold = 5 * time.Second
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			start := time.Now()
			response := next(ctx)

			return func(w http.ResponseWriter, r *http.Request) error {
				err := response(w, r)
				elapsed := time.Since(start)

				attrs := []any{
					"method", r.Method,
					"path", r.URL.Path,
					logger.Duration(elapsed),
				}
				if sw, ok := w.(interface{ Status() int }); ok {
					attrs = append(attrs, "status", sw.Status())
				}
				if id, ok := GetRequestID(ctx); ok {
					attrs = append(attrs, "request_id", id)
				}
				if cfg.Component != "" {
					attrs = append(attrs, logger.Component(cfg.Component))
				}
				if err != nil {
					attrs = append(attrs, logger.Error(err))
				}

				level := cfg.LogLevel
				if elapsed >= cfg.SlowRequestThreshold {
					level = slog.LevelWarn
					attrs = append(attrs, "slow_request", true)
				}

				cfg.Logger.Log(ctx, level, "http request", attrs...)
				return err
			}
		}
	}
}
