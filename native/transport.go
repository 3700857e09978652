package native

import (
	"context"
	"runtime"
	"sync"
	"time"
	"unicode/utf8"
	"unsafe"

	"go.uber.org/zap"

	"github.com/wippyai/argon2-bridge/errors"
)

// DefaultMaxResultSize bounds the read of a hash result. PHC strings are a
// few hundred bytes even for long tags.
const DefaultMaxResultSize = 64 << 10

type options struct {
	maxResultSize int
}

// Option configures a Transport.
type Option func(*options)

// WithMaxResultSize sets how many bytes of a hash result are scanned for
// the terminator before the result is rejected.
func WithMaxResultSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxResultSize = n
		}
	}
}

// Transport calls into a loaded native module.
type Transport struct {
	mu     sync.RWMutex
	sym    *Symbols
	closer func() error
	opts   options
}

// NewWithSymbols builds a transport over an already-resolved symbol table.
// All four entry points must be set.
func NewWithSymbols(sym Symbols, opts ...Option) (*Transport, error) {
	if !sym.complete() {
		return nil, errors.Unavailable(errors.PhaseLoad, Name, "incomplete symbol table", nil)
	}
	return newTransport(sym, nil, opts), nil
}

func newTransport(sym Symbols, closer func() error, opts []Option) *Transport {
	o := options{maxResultSize: DefaultMaxResultSize}
	for _, opt := range opts {
		opt(&o)
	}
	return &Transport{sym: &sym, closer: closer, opts: o}
}

// Name returns "native".
func (t *Transport) Name() string { return Name }

// Hash calls argon2_hash with a NUL-terminated request and returns the
// encoded hash. The library's result is released before Hash returns.
func (t *Transport) Hash(ctx context.Context, req []byte) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if err := t.ready(ctx, EntryHash, req); err != nil {
		return "", err
	}

	start := time.Now()
	res := acquire(t.sym.Hash(unsafe.Pointer(unsafe.SliceData(req))), t.sym.Free)
	runtime.KeepAlive(req)
	defer res.Release()

	text, err := res.copyOut(t.opts.maxResultSize)
	if err != nil {
		return "", errors.BadResult(Name, EntryHash, err.Error())
	}
	if len(text) == 0 {
		return "", errors.NativeCall(Name, EntryHash, "module rejected the request", nil)
	}
	if !utf8.Valid(text) {
		return "", errors.BadResult(Name, EntryHash, "result is not valid UTF-8")
	}

	Logger().Debug("native call",
		zap.String("entry", EntryHash),
		zap.Int("request_bytes", len(req)),
		zap.Duration("elapsed", time.Since(start)))
	return string(text), nil
}

// Verify calls argon2_verify. A mismatch is (false, nil).
func (t *Transport) Verify(ctx context.Context, req []byte) (bool, error) {
	return t.verify(ctx, EntryVerify, req)
}

// VerifyExt calls argon2_verify_ext. A mismatch is (false, nil).
func (t *Transport) VerifyExt(ctx context.Context, req []byte) (bool, error) {
	return t.verify(ctx, EntryVerifyExt, req)
}

func (t *Transport) verify(ctx context.Context, entry string, req []byte) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if err := t.ready(ctx, entry, req); err != nil {
		return false, err
	}

	fn := t.sym.Verify
	if entry == EntryVerifyExt {
		fn = t.sym.VerifyExt
	}

	start := time.Now()
	ok := fn(unsafe.Pointer(unsafe.SliceData(req))) != 0
	runtime.KeepAlive(req)

	Logger().Debug("native call",
		zap.String("entry", entry),
		zap.Int("request_bytes", len(req)),
		zap.Duration("elapsed", time.Since(start)))
	return ok, nil
}

// ready checks the preconditions of a call. t.mu must be held.
func (t *Transport) ready(ctx context.Context, entry string, req []byte) error {
	if t.sym == nil {
		return errors.Closed(Name)
	}
	if err := ctx.Err(); err != nil {
		return errors.NativeCall(Name, entry, "call not issued", err)
	}
	if n := len(req); n == 0 || req[n-1] != 0 {
		return errors.New(errors.PhaseCall, errors.KindInvalidInput).
			Transport(Name).
			Path(entry).
			Detail("request buffer is not NUL-terminated").
			Build()
	}
	return nil
}

// Outstanding reports the library's count of unreleased hash results, when
// the library exports argon2_outstanding_allocations.
func (t *Transport) Outstanding() (int64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.sym == nil || t.sym.Outstanding == nil {
		return 0, false
	}
	return t.sym.Outstanding(), true
}

// Close unloads the library after in-flight calls finish. Later calls fail
// with a transport-unavailable error. Close is idempotent.
func (t *Transport) Close(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sym == nil {
		return nil
	}
	t.sym = nil
	if t.closer == nil {
		return nil
	}
	if err := t.closer(); err != nil {
		return errors.Unavailable(errors.PhaseLoad, Name, "unload library", err)
	}
	Logger().Debug("native library unloaded")
	return nil
}
