package portable

import (
	"context"
	"os"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/argon2-bridge/errors"
)

// Name identifies this transport in errors and logs.
const Name = "portable"

const (
	// DefaultModuleName is the instance name of the guest.
	DefaultModuleName = "argon2"
	// DefaultMaxResultSize bounds the read of a hash result.
	DefaultMaxResultSize = 64 << 10
)

// HostModule instantiates extra host imports into the runtime before the
// guest is instantiated.
type HostModule func(ctx context.Context, r wazero.Runtime) error

// Config holds configuration for a portable transport.
type Config struct {
	// Wasm is the guest module binary.
	Wasm []byte

	// ModuleName is the guest instance name. Default "argon2".
	ModuleName string

	// EnableWASI instantiates wasi_snapshot_preview1 for guests built
	// against WASI. Guest stderr is forwarded to the host's stderr.
	EnableWASI bool

	// HostModules run in order before the guest is instantiated.
	HostModules []HostModule

	// MemoryLimitPages caps guest memory in 64 KiB pages. 0 means the
	// wazero default.
	MemoryLimitPages uint32

	// MaxResultSize bounds how many bytes of a hash result are scanned for
	// the terminator. Default 64 KiB.
	MaxResultSize uint32

	// CompilationCache, when set, is shared by every transport using it so
	// the same guest is compiled once.
	CompilationCache wazero.CompilationCache
}

// Transport runs the Argon2 module as WebAssembly.
type Transport struct {
	cfg Config

	// callMu serializes guest calls and is taken before mu.
	callMu sync.Mutex

	mu      sync.Mutex
	state   State
	initErr error
	done    chan struct{}
	runtime wazero.Runtime
	guest   *guest
}

// New returns an uninitialized transport.
func New(cfg Config) *Transport {
	if cfg.ModuleName == "" {
		cfg.ModuleName = DefaultModuleName
	}
	if cfg.MaxResultSize == 0 {
		cfg.MaxResultSize = DefaultMaxResultSize
	}
	return &Transport{cfg: cfg}
}

// Open creates a transport and initializes it.
func Open(ctx context.Context, cfg Config) (*Transport, error) {
	t := New(cfg)
	if err := t.Init(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// Name returns "portable".
func (t *Transport) Name() string { return Name }

// State returns the current lifecycle stage.
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Init compiles and instantiates the guest. Concurrent calls share one
// attempt; once it has failed, every call returns the same error.
func (t *Transport) Init(ctx context.Context) error {
	t.mu.Lock()
	switch t.state {
	case Ready:
		t.mu.Unlock()
		return nil
	case Failed:
		err := t.initErr
		t.mu.Unlock()
		return err
	case Closed:
		t.mu.Unlock()
		return errors.Closed(Name)
	case Initializing:
		done := t.done
		t.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return errors.Unavailable(errors.PhaseInit, Name, "wait for initialization", ctx.Err())
		}
		return t.settled()
	}

	t.state = Initializing
	t.done = make(chan struct{})
	done := t.done
	t.mu.Unlock()

	start := time.Now()
	rt, g, err := t.instantiate(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	defer close(done)

	if t.state == Closed {
		if rt != nil {
			_ = rt.Close(ctx)
		}
		return errors.Closed(Name)
	}
	if err != nil {
		t.state, t.initErr = Failed, err
		Logger().Warn("portable init failed", zap.Error(err))
		return err
	}
	t.state, t.runtime, t.guest = Ready, rt, g
	Logger().Debug("portable init",
		zap.String("module", t.cfg.ModuleName),
		zap.Int("wasm_bytes", len(t.cfg.Wasm)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (t *Transport) settled() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.state {
	case Ready:
		return nil
	case Failed:
		return t.initErr
	}
	return errors.Closed(Name)
}

func (t *Transport) instantiate(ctx context.Context) (wazero.Runtime, *guest, error) {
	if len(t.cfg.Wasm) == 0 {
		return nil, nil, errors.Unavailable(errors.PhaseLoad, Name, "no module bytes", nil)
	}

	rcfg := wazero.NewRuntimeConfig()
	if t.cfg.MemoryLimitPages > 0 {
		rcfg = rcfg.WithMemoryLimitPages(t.cfg.MemoryLimitPages)
	}
	if t.cfg.CompilationCache != nil {
		rcfg = rcfg.WithCompilationCache(t.cfg.CompilationCache)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, rcfg)
	fail := func(err error) (wazero.Runtime, *guest, error) {
		_ = rt.Close(ctx)
		return nil, nil, err
	}

	if t.cfg.EnableWASI {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
			return fail(errors.Unavailable(errors.PhaseInit, Name, "instantiate WASI", err))
		}
	}
	for _, host := range t.cfg.HostModules {
		if err := host(ctx, rt); err != nil {
			return fail(errors.Unavailable(errors.PhaseInit, Name, "instantiate host module", err))
		}
	}

	compiled, err := rt.CompileModule(ctx, t.cfg.Wasm)
	if err != nil {
		return fail(errors.Unavailable(errors.PhaseLoad, Name, "compile module", err))
	}
	l, err := checkExports(compiled)
	if err != nil {
		return fail(err)
	}

	modCfg := wazero.NewModuleConfig().
		WithName(t.cfg.ModuleName).
		WithStartFunctions("_initialize")
	if t.cfg.EnableWASI {
		modCfg = modCfg.WithStderr(os.Stderr)
	}
	mod, err := rt.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		return fail(errors.Unavailable(errors.PhaseInit, Name, "instantiate module", err))
	}

	if l.hasInit {
		res, err := mod.ExportedFunction(EntryInit).Call(ctx)
		if err != nil {
			return fail(errors.Unavailable(errors.PhaseInit, Name, EntryInit+" trapped", err))
		}
		if code := int32(res[0]); code != 0 {
			return fail(errors.New(errors.PhaseInit, errors.KindTransportUnavailable).
				Transport(Name).
				Path(EntryInit).
				Value(code).
				Detail("module not ready: %s returned %d", EntryInit, code).
				Build())
		}
	}

	return rt, bindGuest(mod, l), nil
}

// ready returns the guest when the transport is Ready. callMu must be held.
func (t *Transport) ready(ctx context.Context, entry string, req []byte) (*guest, error) {
	t.mu.Lock()
	state, g := t.state, t.guest
	t.mu.Unlock()

	switch state {
	case Ready:
	case Closed:
		return nil, errors.Closed(Name)
	default:
		return nil, errors.NotInitialized(Name, state.String())
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NativeCall(Name, entry, "call not issued", err)
	}
	if n := len(req); n == 0 || req[n-1] != 0 {
		return nil, errors.New(errors.PhaseCall, errors.KindInvalidInput).
			Transport(Name).
			Path(entry).
			Detail("request buffer is not NUL-terminated").
			Build()
	}
	return g, nil
}

// Hash calls argon2_hash and returns the encoded hash.
func (t *Transport) Hash(ctx context.Context, req []byte) (string, error) {
	t.callMu.Lock()
	defer t.callMu.Unlock()

	g, err := t.ready(ctx, EntryHash, req)
	if err != nil {
		return "", err
	}

	start := time.Now()
	ptr, release, err := g.writeRequest(ctx, EntryHash, req)
	if err != nil {
		return "", err
	}
	defer release()

	res, err := g.call(ctx, g.hash, EntryHash, ptr)
	if err != nil {
		return "", err
	}
	if res == 0 {
		return "", errors.NativeCall(Name, EntryHash, "module rejected the request", nil)
	}
	text, err := g.readResult(EntryHash, res, t.cfg.MaxResultSize)
	if err != nil {
		return "", err
	}
	if len(text) == 0 {
		return "", errors.NativeCall(Name, EntryHash, "module rejected the request", nil)
	}
	if !utf8.Valid(text) {
		return "", errors.BadResult(Name, EntryHash, "result is not valid UTF-8")
	}

	Logger().Debug("portable call",
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
	t.callMu.Lock()
	defer t.callMu.Unlock()

	g, err := t.ready(ctx, entry, req)
	if err != nil {
		return false, err
	}

	fn := g.verify
	if entry == EntryVerifyExt {
		fn = g.verifyExt
	}

	start := time.Now()
	ptr, release, err := g.writeRequest(ctx, entry, req)
	if err != nil {
		return false, err
	}
	defer release()

	res, err := g.call(ctx, fn, entry, ptr)
	if err != nil {
		return false, err
	}

	Logger().Debug("portable call",
		zap.String("entry", entry),
		zap.Int("request_bytes", len(req)),
		zap.Duration("elapsed", time.Since(start)))
	return res != 0, nil
}

// Close releases the runtime after in-flight calls finish. Close is
// idempotent; a Close during Init makes that Init fail.
func (t *Transport) Close(ctx context.Context) error {
	t.callMu.Lock()
	defer t.callMu.Unlock()

	t.mu.Lock()
	rt := t.runtime
	t.state, t.runtime, t.guest = Closed, nil, nil
	t.mu.Unlock()

	if rt == nil {
		return nil
	}
	if err := rt.Close(ctx); err != nil {
		return errors.Unavailable(errors.PhaseInit, Name, "close runtime", err)
	}
	Logger().Debug("portable runtime closed")
	return nil
}
