package wasmshim

import (
	"context"
	"math"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/argon2-bridge/kdf"
)

// HostModule is the import namespace of the guest.
const HostModule = "argon2_host"

const pageSize = 1 << 16

// Install instantiates the host module into r. The guest delegates the KDF
// to it: each function reads the NUL-terminated request from guest memory
// and runs the kdf collaborator.
func Install(ctx context.Context, r wazero.Runtime) error {
	_, err := r.NewHostModuleBuilder(HostModule).
		NewFunctionBuilder().WithFunc(hostHash).Export("hash").
		NewFunctionBuilder().WithFunc(hostVerify).Export("verify").
		NewFunctionBuilder().WithFunc(hostVerifyExt).Export("verify_ext").
		Instantiate(ctx)
	return err
}

// hostHash writes the encoded hash at out, growing guest memory to fit it
// and its terminator, and returns its length. It returns -1 when the
// request fails or memory cannot grow.
func hostHash(_ context.Context, m api.Module, in, out uint32) int32 {
	mem := m.Memory()
	req, ok := readRequest(mem, in)
	if !ok {
		return -1
	}
	encoded, err := kdf.Hash(req)
	if err != nil || len(encoded) >= math.MaxInt32 {
		return -1
	}
	end := uint64(out) + uint64(len(encoded)) + 1
	if size := uint64(mem.Size()); end > size {
		if _, ok := mem.Grow(uint32((end - size + pageSize - 1) / pageSize)); !ok {
			return -1
		}
	}
	if !mem.Write(out, []byte(encoded)) {
		return -1
	}
	return int32(len(encoded))
}

func hostVerify(_ context.Context, m api.Module, in uint32) uint32 {
	req, ok := readRequest(m.Memory(), in)
	if !ok {
		return 0
	}
	match, err := kdf.Verify(req)
	return result(match, err)
}

func hostVerifyExt(_ context.Context, m api.Module, in uint32) uint32 {
	req, ok := readRequest(m.Memory(), in)
	if !ok {
		return 0
	}
	match, err := kdf.VerifyExt(req)
	return result(match, err)
}

func result(match bool, err error) uint32 {
	if match && err == nil {
		return 1
	}
	return 0
}

// readRequest copies the NUL-terminated buffer at ptr, terminator included.
func readRequest(mem api.Memory, ptr uint32) ([]byte, bool) {
	size := mem.Size()
	if ptr >= size {
		return nil, false
	}
	view, ok := mem.Read(ptr, size-ptr)
	if !ok {
		return nil, false
	}
	for i, c := range view {
		if c == 0 {
			return append([]byte(nil), view[:i+1]...), true
		}
	}
	return nil, false
}
