package cli

import (
	"io"
	"log/slog"

	"github.com/samber/lo"
)

// newLogger returns a text logger without timestamps, at debug level when
// verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: lo.Ternary(verbose, slog.LevelDebug, slog.LevelInfo),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return lo.Ternary(a.Key == slog.TimeKey, slog.Attr{}, a)
		},
	}))
}
