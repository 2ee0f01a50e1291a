package cache

import (
	"sync"

	"github.com/rs/zerolog"
)

var (
	// loggerMu protects pkgLogger from concurrent access in tests.
	loggerMu sync.RWMutex

	// pkgLogger is the package-level logger for cache operations.
	// No-op by default so backends stay silent until configured.
	pkgLogger = zerolog.Nop()
)

// SetLogger sets the package-level logger for cache operations.
// Call this during application initialization; the logger is tagged
// with component: cache for filtering.
func SetLogger(l *zerolog.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	pkgLogger = l.With().Str("component", "cache").Logger()
}

// logger returns the current package logger.
func logger() zerolog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return pkgLogger
}
