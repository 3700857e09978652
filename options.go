package argon2bridge

import (
	"go.uber.org/zap"

	"github.com/wippyai/argon2-bridge/native"
)

type options struct {
	logger *zap.Logger
	native []native.Option
}

// Option configures a Bridge.
type Option func(*options)

// WithLogger sets the bridge's logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithNativeOptions passes options to native.Open. Only OpenNative uses
// them.
func WithNativeOptions(opts ...native.Option) Option {
	return func(o *options) {
		o.native = append(o.native, opts...)
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
