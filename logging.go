package coroio

import (
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Log is the structured logger type used throughout this package. It's a
// type alias so callers can build their own logiface.Logger[*stumpy.Event]
// and hand it to SetLogger without a wrapper type getting in the way.
type Log = logiface.Logger[*stumpy.Event]

var globalLogger struct {
	sync.RWMutex
	log *Log
}

// SetLogger installs the package-wide structured logger. Passing nil
// restores the no-op default. This mirrors the teacher package's
// global-logger-with-safe-default pattern, scaled down to a single logger
// value instead of a pluggable interface, since logiface already abstracts
// over backends.
func SetLogger(l *Log) {
	globalLogger.Lock()
	defer globalLogger.Unlock()
	globalLogger.log = l
}

func logger() *Log {
	globalLogger.RLock()
	defer globalLogger.RUnlock()
	if globalLogger.log != nil {
		return globalLogger.log
	}
	return noopLogger
}

// noopLogger discards everything; it's the default so that coroio never
// writes to stderr unless a caller opts in with SetLogger.
var noopLogger = stumpy.L.New(
	stumpy.L.WithStumpy(),
	stumpy.L.WithLevel(logiface.LevelDisabled),
)
