package childproc

import (
	"log/slog"
	"sync/atomic"
)

// logger is the package-level logger. A nil value means no custom logger has been set.
var logger atomic.Pointer[slog.Logger]

// Logger returns the package-level logger. If none has been set via SetLogger it
// returns slog.Default() with a "component" attribute.
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}

	return slog.Default().With("component", "childproc")
}

// SetLogger replaces the package-level logger. A nil logger restores the default.
//
// SetLogger is safe to call concurrently with running commands; runs already in
// progress keep the logger they started with.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}
