//go:build wasip1

// Command argon2-wasm builds the Argon2 module as a WASI reactor for the
// portable transport:
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o argon2_bridge.wasm ./cmd/argon2-wasm
//
// Load it with portable.Config{EnableWASI: true}. Requests are written into
// buffers handed out by alloc and returned through dealloc. A hash result
// stays valid until the next argon2_hash call. Failures are reported on
// stderr and yield a null result or false.
package main

import (
	"os"
	"unsafe"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/argon2-bridge/internal/cstr"
	"github.com/wippyai/argon2-bridge/kdf"
)

var (
	// live keeps allocated request buffers reachable until dealloc.
	live   = map[unsafe.Pointer][]byte{}
	result []byte

	logger = zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stderr),
		zapcore.WarnLevel,
	))
)

//go:wasmexport argon2_init
func argon2Init() int32 {
	return 0
}

//go:wasmexport alloc
func alloc(size uint32) unsafe.Pointer {
	buf := make([]byte, max(size, 1))
	p := unsafe.Pointer(&buf[0])
	live[p] = buf
	return p
}

//go:wasmexport dealloc
func dealloc(p unsafe.Pointer, _ uint32) {
	delete(live, p)
}

//go:wasmexport argon2_hash
func argon2Hash(req unsafe.Pointer) unsafe.Pointer {
	buf := cstr.Bytes(req)
	defer clear(buf)

	encoded, err := kdf.Hash(buf)
	if err != nil {
		logger.Warn("argon2_hash failed", zap.Error(err))
		return nil
	}
	clear(result)
	result = append(append(result[:0], encoded...), 0)
	return unsafe.Pointer(&result[0])
}

//go:wasmexport argon2_verify
func argon2Verify(req unsafe.Pointer) uint32 {
	buf := cstr.Bytes(req)
	defer clear(buf)

	ok, err := kdf.Verify(buf)
	if err != nil {
		logger.Warn("argon2_verify failed", zap.Error(err))
	}
	return boolWord(ok && err == nil)
}

//go:wasmexport argon2_verify_ext
func argon2VerifyExt(req unsafe.Pointer) uint32 {
	buf := cstr.Bytes(req)
	defer clear(buf)

	ok, err := kdf.VerifyExt(buf)
	if err != nil {
		logger.Warn("argon2_verify_ext failed", zap.Error(err))
	}
	return boolWord(ok && err == nil)
}

func boolWord(ok bool) uint32 {
	if ok {
		return 1
	}
	return 0
}

func main() {}
