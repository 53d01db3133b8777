package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

func newLogger(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.slogLevel()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// mcpLogger routes the MCP transport's printf-style logging into slog.
type mcpLogger struct {
	logger *slog.Logger
}

func (l mcpLogger) Infof(format string, v ...any) {
	l.logger.Info(fmt.Sprintf(format, v...), "component", "mcp-transport")
}

func (l mcpLogger) Errorf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...), "component", "mcp-transport")
}

func requestLogger(logger *slog.Logger, metrics *Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let echo write the error response so the status is final
				c.Error(err)
			}
			req := c.Request()
			status := c.Response().Status
			elapsed := time.Since(start)

			metrics.ObserveRequest(req.Method, c.Path(), status, elapsed)
			logger.InfoContext(req.Context(), "request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", status,
				"duration", elapsed,
			)
			return nil
		}
	}
}
