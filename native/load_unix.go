//go:build darwin || freebsd || linux

package native

import (
	"github.com/ebitengine/purego"
	"go.uber.org/zap"

	"github.com/wippyai/argon2-bridge/errors"
)

// Open loads the shared library at path and binds its entry points. A
// missing library or required symbol is a transport-unavailable error.
func Open(path string, opts ...Option) (*Transport, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, errors.Unavailable(errors.PhaseLoad, Name, "open library "+path, err)
	}

	var sym Symbols
	required := []struct {
		fptr any
		name string
	}{
		{&sym.Hash, EntryHash},
		{&sym.Free, EntryFree},
		{&sym.Verify, EntryVerify},
		{&sym.VerifyExt, EntryVerifyExt},
	}
	for _, r := range required {
		addr, err := purego.Dlsym(handle, r.name)
		if err != nil {
			_ = purego.Dlclose(handle)
			return nil, errors.New(errors.PhaseLoad, errors.KindTransportUnavailable).
				Transport(Name).
				Path(r.name).
				Detail("resolve symbol in %s", path).
				Cause(err).
				Build()
		}
		purego.RegisterFunc(r.fptr, addr)
	}
	if addr, err := purego.Dlsym(handle, EntryOutstanding); err == nil {
		purego.RegisterFunc(&sym.Outstanding, addr)
	}

	Logger().Debug("native library loaded",
		zap.String("path", path),
		zap.Bool("allocation_counter", sym.Outstanding != nil))

	return newTransport(sym, func() error { return purego.Dlclose(handle) }, opts), nil
}
