// Command argon2-native builds the Argon2 module as a C shared library for
// the native transport:
//
//	go build -buildmode=c-shared -o libargon2_bridge.so ./cmd/argon2-native
//
// Results of argon2_hash are allocated with malloc and must be returned
// through free_argon2_hash. Failures are reported on stderr and yield an
// empty string.
package main

/*
#include <stdint.h>
#include <stdlib.h>
*/
import "C"

import (
	"os"
	"sync/atomic"
	"unsafe"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/argon2-bridge/internal/cstr"
	"github.com/wippyai/argon2-bridge/kdf"
)

var (
	outstanding atomic.Int64
	logger      = zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stderr),
		zapcore.WarnLevel,
	))
)

// request copies the NUL-terminated buffer, terminator included, as kdf
// expects a complete codec buffer.
func request(p *C.char) []byte {
	return cstr.Bytes(unsafe.Pointer(p))
}

//export argon2_hash
func argon2_hash(req *C.char) *C.char {
	buf := request(req)
	defer clear(buf)

	encoded, err := kdf.Hash(buf)
	if err != nil {
		logger.Warn("argon2_hash failed", zap.Error(err))
		encoded = ""
	}
	outstanding.Add(1)
	return C.CString(encoded)
}

//export free_argon2_hash
func free_argon2_hash(p *C.char) {
	if p == nil {
		return
	}
	outstanding.Add(-1)
	C.free(unsafe.Pointer(p))
}

//export argon2_verify
func argon2_verify(req *C.char) C.uint8_t {
	buf := request(req)
	defer clear(buf)

	ok, err := kdf.Verify(buf)
	if err != nil {
		logger.Warn("argon2_verify failed", zap.Error(err))
	}
	return boolByte(ok && err == nil)
}

//export argon2_verify_ext
func argon2_verify_ext(req *C.char) C.uint8_t {
	buf := request(req)
	defer clear(buf)

	ok, err := kdf.VerifyExt(buf)
	if err != nil {
		logger.Warn("argon2_verify_ext failed", zap.Error(err))
	}
	return boolByte(ok && err == nil)
}

//export argon2_outstanding_allocations
func argon2_outstanding_allocations() C.int64_t {
	return C.int64_t(outstanding.Load())
}

func boolByte(ok bool) C.uint8_t {
	if ok {
		return 1
	}
	return 0
}

func main() {}
