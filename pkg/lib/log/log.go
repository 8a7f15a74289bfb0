// Package log provides corewire's logging wrapper.
//
// It is built directly on log/slog rather than a third-party logging
// framework, matching the library-vs-binary split the rest of this codebase
// family uses: the library logs through slog so callers can redirect output
// with their own slog.Handler, while command-line entry points are free to
// wire a richer logger (corewire's own cmd/corewire-echo uses zap) without
// forcing that dependency on every importer of the library.
package log

import (
	"context"
	"log/slog"
	"os"
)

// Level aliases, re-exported so callers don't need a direct slog import for
// the common case of raising or lowering verbosity.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: LevelInfo}))

// SetDefault replaces the process-wide default logger.
func SetDefault(l *slog.Logger) {
	defaultLogger = l
	slog.SetDefault(l)
}

// SetLevel rebuilds the default logger at the given level.
func SetLevel(level slog.Level) {
	defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Logger returns a component-scoped logger. The returned value re-resolves
// the package default on every call so tests can redirect output after
// construction (e.g. before a Session's handlers are wired).
func Logger(component string) *Component {
	return &Component{component: component}
}

// Component is a lazily-bound, component-scoped logger.
type Component struct {
	component string
}

func (c *Component) Debug(msg string, args ...any) {
	defaultLogger.With("component", c.component).Debug(msg, args...)
}

func (c *Component) Info(msg string, args ...any) {
	defaultLogger.With("component", c.component).Info(msg, args...)
}

func (c *Component) Warn(msg string, args ...any) {
	defaultLogger.With("component", c.component).Warn(msg, args...)
}

func (c *Component) Error(msg string, args ...any) {
	defaultLogger.With("component", c.component).Error(msg, args...)
}

func (c *Component) DebugContext(ctx context.Context, msg string, args ...any) {
	defaultLogger.With("component", c.component).DebugContext(ctx, msg, args...)
}

// TruncateID safely shortens an identifier for log output, avoiding a
// slice-bounds panic when the identifier is already shorter than maxLen.
func TruncateID(id string, maxLen int) string {
	if len(id) <= maxLen {
		return id
	}
	return id[:maxLen]
}
