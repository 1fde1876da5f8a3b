package config

import (
	"io"
	"log/slog"

	"github.com/go-chi/httplog/v3"
)

// NewLogger builds the process logger. JSON output follows the ECS field
// names so request logs and application logs share one schema.
func NewLogger(c LogConfig, w io.Writer) *slog.Logger {
	level, err := c.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if c.Format == "text" {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: httplog.SchemaECS.Concise(false).ReplaceAttr,
		})
	}
	return slog.New(handler).With(slog.String("app", "worktime"))
}
