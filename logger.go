package fbimage

import (
	"log/slog"

	"github.com/gogpu/fbimage/internal/logging"
)

// SetLogger configures the logger for fbimage and all its sub-packages.
// By default, fbimage produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by fbimage:
//   - [slog.LevelDebug]: allocation details, transform updates, format switches
//   - [slog.LevelInfo]: native format selection, display connection
//   - [slog.LevelWarn]: shared-memory fallback to the heap, release errors
//   - [slog.LevelError]: heap allocation refused
//
// Example:
//
//	// Enable info-level logging to stderr:
//	fbimage.SetLogger(slog.Default())
//
//	// Enable debug-level logging for full diagnostics:
//	fbimage.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger used by fbimage.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Logger()
}
