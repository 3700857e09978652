// Package nativefake is an in-process stand-in for the native Argon2
// library. Its symbol table runs the kdf collaborator and tracks every
// result it hands out, so tests can check that each one is released exactly
// once.
package nativefake

import (
	"sync"
	"unsafe"

	"github.com/wippyai/argon2-bridge/internal/cstr"
	"github.com/wippyai/argon2-bridge/kdf"
	"github.com/wippyai/argon2-bridge/native"
)

// Library tracks results handed out through its symbol table.
type Library struct {
	// HashResult, when set, replaces the bytes handed back by argon2_hash.
	// It receives the kdf result ("" on failure). Returning nil hands back a
	// null pointer; the bytes are returned as-is, without a terminator
	// being added.
	HashResult func(encoded string) []byte

	mu       sync.Mutex
	live     map[unsafe.Pointer][]byte
	frees    int
	badFrees int
	calls    int
}

// New returns an empty library.
func New() *Library {
	return &Library{live: make(map[unsafe.Pointer][]byte)}
}

// Symbols returns the library's entry points.
func (l *Library) Symbols() native.Symbols {
	return native.Symbols{
		Hash:        l.hash,
		Free:        l.free,
		Verify:      l.verify,
		VerifyExt:   l.verifyExt,
		Outstanding: l.Outstanding,
	}
}

// Outstanding is the number of results not yet released.
func (l *Library) Outstanding() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return int64(len(l.live))
}

// Frees is the number of successful releases.
func (l *Library) Frees() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frees
}

// BadFrees counts releases of pointers that were never handed out or were
// already released.
func (l *Library) BadFrees() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.badFrees
}

// Calls is the number of entry-point invocations.
func (l *Library) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func (l *Library) hash(req unsafe.Pointer) unsafe.Pointer {
	l.count()
	encoded, err := kdf.Hash(cstr.Bytes(req))
	if err != nil {
		encoded = ""
	}

	out := append([]byte(encoded), 0)
	if l.HashResult != nil {
		out = l.HashResult(encoded)
	}
	if len(out) == 0 {
		return nil
	}

	p := unsafe.Pointer(&out[0])
	l.mu.Lock()
	l.live[p] = out
	l.mu.Unlock()
	return p
}

func (l *Library) free(res unsafe.Pointer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.live[res]; !ok {
		l.badFrees++
		return
	}
	delete(l.live, res)
	l.frees++
}

func (l *Library) verify(req unsafe.Pointer) uint8 {
	l.count()
	ok, err := kdf.Verify(cstr.Bytes(req))
	return boolByte(ok && err == nil)
}

func (l *Library) verifyExt(req unsafe.Pointer) uint8 {
	l.count()
	ok, err := kdf.VerifyExt(cstr.Bytes(req))
	return boolByte(ok && err == nil)
}

func (l *Library) count() {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
