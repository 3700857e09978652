package portable

import (
	"go.uber.org/zap"

	"github.com/wippyai/argon2-bridge/internal/logging"
)

var logger logging.Slot

// Logger returns the portable transport's logger. It logs
// nothing until SetLogger is called.
func Logger() *zap.Logger {
	return logger.Load()
}

// SetLogger configures the portable transport's logger. It is safe to
// call while calls are in flight.
func SetLogger(l *zap.Logger) {
	logger.Store(l)
}
