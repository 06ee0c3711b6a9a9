package bootstrap

import (
	"io"
	"log/slog"

	"account-service/internal/config"
)

// NewLogger returns a text logger at debug level for development and a JSON
// logger at info level otherwise.
func NewLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	var h slog.Handler
	if cfg.Development() {
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.New(h).With("app", cfg.App.Name)
}
