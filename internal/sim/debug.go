package sim

import "sync/atomic"

// debugLoggingEnabled gates per-tick debug logs, which would otherwise be
// built on every tick even when the handler drops them.
var debugLoggingEnabled atomic.Bool

// EnableDebugLogging turns per-tick debug logs on or off.
// Called from main after the log level is known.
func EnableDebugLogging(enabled bool) {
	debugLoggingEnabled.Store(enabled)
}

// IsDebugEnabled reports whether per-tick debug logs are on.
func IsDebugEnabled() bool {
	return debugLoggingEnabled.Load()
}
