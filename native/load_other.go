//go:build !(darwin || freebsd || linux)

package native

import (
	"runtime"

	"github.com/wippyai/argon2-bridge/errors"
)

// Open reports the native transport as unavailable on this platform.
func Open(path string, opts ...Option) (*Transport, error) {
	return nil, errors.Unavailable(errors.PhaseLoad, Name,
		"shared libraries are not supported on "+runtime.GOOS, nil)
}
