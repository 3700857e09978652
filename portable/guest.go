package portable

import (
	"bytes"
	"context"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/argon2-bridge/errors"
)

// guest is an instantiated module with its bound exports. It is used under
// Transport.callMu only.
type guest struct {
	mod       api.Module
	mem       api.Memory
	hash      api.Function
	verify    api.Function
	verifyExt api.Function
	alloc     api.Function
	free      api.Function
	realloc   bool
	stack     []uint64
}

func bindGuest(mod api.Module, l layout) *guest {
	g := &guest{
		mod:       mod,
		mem:       mod.Memory(),
		hash:      mod.ExportedFunction(EntryHash),
		verify:    mod.ExportedFunction(EntryVerify),
		verifyExt: mod.ExportedFunction(EntryVerifyExt),
		alloc:     mod.ExportedFunction(l.alloc.name),
		realloc:   l.alloc.realloc,
		stack:     make([]uint64, 4),
	}
	if l.free != "" {
		g.free = mod.ExportedFunction(l.free)
	}
	return g
}

// allocate reserves size bytes in guest memory. A zero pointer means the
// guest could not allocate.
func (g *guest) allocate(ctx context.Context, size uint32) (uint32, error) {
	if g.realloc {
		g.stack[0], g.stack[1], g.stack[2], g.stack[3] = 0, 0, 1, uint64(size)
		if err := g.alloc.CallWithStack(ctx, g.stack[:4]); err != nil {
			return 0, err
		}
	} else {
		g.stack[0] = uint64(size)
		if err := g.alloc.CallWithStack(ctx, g.stack[:1]); err != nil {
			return 0, err
		}
	}
	return uint32(g.stack[0]), nil
}

// release returns a request buffer to the guest. Failures are logged; the
// call result has already been read.
func (g *guest) release(ctx context.Context, ptr, size uint32) {
	var err error
	switch {
	case g.free != nil:
		params := len(g.free.Definition().ParamTypes())
		g.stack[0], g.stack[1], g.stack[2] = uint64(ptr), uint64(size), 1
		err = g.free.CallWithStack(ctx, g.stack[:params])
	case g.realloc:
		g.stack[0], g.stack[1], g.stack[2], g.stack[3] = uint64(ptr), uint64(size), 1, 0
		err = g.alloc.CallWithStack(ctx, g.stack[:4])
	default:
		return
	}
	if err != nil {
		Logger().Warn("release request buffer",
			zap.Uint32("ptr", ptr),
			zap.Uint32("size", size),
			zap.Error(err))
	}
}

// writeRequest copies req into guest memory. The returned func zeroes and
// releases it and must always be called.
func (g *guest) writeRequest(ctx context.Context, entry string, req []byte) (uint32, func(), error) {
	size := uint32(len(req))
	ptr, err := g.allocate(ctx, size)
	if err != nil {
		return 0, nil, errors.NativeCall(Name, entry, "guest allocator trapped", err)
	}
	if ptr == 0 {
		return 0, nil, errors.NativeCall(Name, entry, "guest allocation failed", nil)
	}
	done := func() {
		if view, ok := g.mem.Read(ptr, size); ok {
			clear(view)
		}
		g.release(ctx, ptr, size)
	}
	if !g.mem.Write(ptr, req) {
		done()
		return 0, nil, errors.NativeCall(Name, entry, "request out of guest memory bounds", nil)
	}
	return ptr, done, nil
}

func (g *guest) call(ctx context.Context, fn api.Function, entry string, ptr uint32) (uint32, error) {
	g.stack[0] = uint64(ptr)
	if err := fn.CallWithStack(ctx, g.stack[:1]); err != nil {
		return 0, errors.NativeCall(Name, entry, "guest trapped", err)
	}
	return uint32(g.stack[0]), nil
}

// readResult copies the NUL-terminated string at ptr, scanning at most
// limit bytes.
func (g *guest) readResult(entry string, ptr, limit uint32) ([]byte, error) {
	size := g.mem.Size()
	if ptr >= size {
		return nil, errors.BadResult(Name, entry, "result pointer out of guest memory bounds")
	}
	limit = min(limit, size-ptr)
	view, _ := g.mem.Read(ptr, limit)
	n := bytes.IndexByte(view, 0)
	if n < 0 {
		return nil, errors.BadResult(Name, entry, "result is not NUL-terminated within the size limit")
	}
	return bytes.Clone(view[:n]), nil
}
