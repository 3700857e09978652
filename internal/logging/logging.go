// Package logging holds package-level zap loggers that may be replaced while
// other goroutines are logging.
package logging

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var nop = zap.NewNop()

// Slot is a replaceable logger. The zero value logs nothing.
type Slot struct {
	l atomic.Pointer[zap.Logger]
}

// Load returns the stored logger, or a no-op logger if none was set.
func (s *Slot) Load() *zap.Logger {
	if l := s.l.Load(); l != nil {
		return l
	}
	return nop
}

// Store replaces the logger. A nil logger restores the no-op default.
func (s *Slot) Store(l *zap.Logger) {
	s.l.Store(l)
}
