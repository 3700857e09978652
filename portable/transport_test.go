package portable

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/tetratelabs/wazero"

	"github.com/wippyai/argon2-bridge/codec"
	"github.com/wippyai/argon2-bridge/errors"
	"github.com/wippyai/argon2-bridge/internal/wasmshim"
	"github.com/wippyai/argon2-bridge/kdf"
	"github.com/wippyai/argon2-bridge/schema"
)

func shimConfig(opts wasmshim.Options) Config {
	return Config{
		Wasm:        wasmshim.Build(opts),
		HostModules: []HostModule{wasmshim.Install},
	}
}

func openShim(t *testing.T, cfg Config) *Transport {
	t.Helper()
	tr, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = tr.Close(context.Background()) })
	return tr
}

func encode(t *testing.T, v any) []byte {
	t.Helper()
	buf, err := codec.Encode(v)
	if err != nil {
		t.Fatalf("codec.Encode failed: %v", err)
	}
	return buf
}

func hashRequest(t *testing.T, password string) []byte {
	return encode(t, schema.HashParams{
		Password: password,
		Options: schema.HashOptions{
			Salt:       []byte("0123456789"),
			Secret:     []byte("this-is-a-secret\x00"),
			MemoryCost: 64,
			TimeCost:   1,
		},
	})
}

func TestTransport_HashVerify(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"alloc", shimConfig(wasmshim.Options{})},
		{"cabi_realloc", shimConfig(wasmshim.Options{Realloc: true})},
		{"wasi", func() Config {
			cfg := shimConfig(wasmshim.Options{})
			cfg.EnableWASI = true
			return cfg
		}()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			tr := openShim(t, tc.cfg)

			encoded, err := tr.Hash(ctx, hashRequest(t, "12345"))
			if err != nil {
				t.Fatalf("Hash failed: %v", err)
			}
			if !strings.HasPrefix(encoded, "$argon2i$v=19$m=64,t=1,p=1$") {
				t.Errorf("unexpected encoding %q", encoded)
			}

			ok, err := kdf.VerifyEncodedExt(encoded, []byte("12345"), []byte("this-is-a-secret\x00"), nil)
			if err != nil || !ok {
				t.Errorf("kdf does not accept portable hash: %v, %v", ok, err)
			}

			ok, err = tr.VerifyExt(ctx, encode(t, schema.VerifyParamsExt{
				VerifyParams: schema.VerifyParams{Password: "12345", Hash: encoded},
				Secret:       []byte("this-is-a-secret\x00"),
			}))
			if err != nil || !ok {
				t.Errorf("VerifyExt(secret) = %v, %v", ok, err)
			}
			ok, err = tr.VerifyExt(ctx, encode(t, schema.VerifyParamsExt{
				VerifyParams: schema.VerifyParams{Password: "12345", Hash: encoded},
				Secret:       []byte{},
			}))
			if err != nil || ok {
				t.Errorf("VerifyExt(empty secret) = %v, %v", ok, err)
			}
			ok, err = tr.Verify(ctx, encode(t, schema.VerifyParams{Password: "12345", Hash: encoded}))
			if err != nil || ok {
				t.Errorf("Verify without secret = %v, %v", ok, err)
			}
		})
	}
}

func TestTransport_RequestIsZeroedAndReleased(t *testing.T) {
	ctx := context.Background()
	tr := openShim(t, shimConfig(wasmshim.Options{}))

	req := hashRequest(t, "hunter2")
	if _, err := tr.Hash(ctx, req); err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	view, ok := tr.guest.mem.Read(wasmshim.HeapBase, uint32(len(req)))
	if !ok {
		t.Fatal("read guest memory")
	}
	for i, c := range view {
		if c != 0 {
			t.Fatalf("request byte %d not zeroed: %#x", i, c)
		}
	}

	ptr, err := tr.guest.allocate(ctx, 8)
	if err != nil {
		t.Fatalf("allocate failed: %v", err)
	}
	if ptr != wasmshim.HeapBase {
		t.Errorf("request buffer not released: next allocation at %d", ptr)
	}
}

func TestTransport_Lifecycle(t *testing.T) {
	ctx := context.Background()
	tr := New(shimConfig(wasmshim.Options{}))

	if tr.Name() != "portable" {
		t.Errorf("unexpected name %q", tr.Name())
	}
	if tr.State() != Uninitialized {
		t.Errorf("expected uninitialized, got %s", tr.State())
	}
	if _, err := tr.Hash(ctx, hashRequest(t, "pw")); !errors.Is(err, errors.ErrNotInitialized) {
		t.Errorf("Hash before Init = %v, want not initialized", err)
	}
	if _, err := tr.Verify(ctx, []byte("{}\x00")); !errors.Is(err, errors.ErrNotInitialized) {
		t.Errorf("Verify before Init = %v, want not initialized", err)
	}

	if err := tr.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := tr.Init(ctx); err != nil {
		t.Errorf("second Init failed: %v", err)
	}
	if tr.State() != Ready {
		t.Errorf("expected ready, got %s", tr.State())
	}

	if err := tr.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := tr.Close(ctx); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if tr.State() != Closed {
		t.Errorf("expected closed, got %s", tr.State())
	}
	if _, err := tr.Hash(ctx, hashRequest(t, "pw")); !errors.Is(err, errors.ErrTransportUnavailable) {
		t.Errorf("Hash after Close = %v, want transport unavailable", err)
	}
	if err := tr.Init(ctx); !errors.Is(err, errors.ErrTransportUnavailable) {
		t.Errorf("Init after Close = %v, want transport unavailable", err)
	}
}

func countingHost(n *atomic.Int32) HostModule {
	return func(ctx context.Context, r wazero.Runtime) error {
		n.Add(1)
		return wasmshim.Install(ctx, r)
	}
}

func TestInit_ConcurrentCallsCollapse(t *testing.T) {
	var installs atomic.Int32
	tr := New(Config{
		Wasm:        wasmshim.Wasm(),
		HostModules: []HostModule{countingHost(&installs)},
	})
	defer tr.Close(context.Background())

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tr.Init(context.Background()); err != nil {
				t.Errorf("Init failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := installs.Load(); n != 1 {
		t.Errorf("expected one initialization attempt, got %d", n)
	}
	if tr.State() != Ready {
		t.Errorf("expected ready, got %s", tr.State())
	}
}

func TestInit_FailedIsTerminal(t *testing.T) {
	ctx := context.Background()
	var installs atomic.Int32
	tr := New(Config{
		Wasm:        wasmshim.Build(wasmshim.Options{InitResult: 7}),
		HostModules: []HostModule{countingHost(&installs)},
	})
	defer tr.Close(ctx)

	first := tr.Init(ctx)
	if !errors.Is(first, errors.ErrTransportUnavailable) {
		t.Fatalf("Init = %v, want transport unavailable", first)
	}
	if !strings.Contains(first.Error(), "returned 7") {
		t.Errorf("error should carry the init code: %v", first)
	}

	second := tr.Init(ctx)
	if second != first {
		t.Errorf("second Init returned a different error: %v", second)
	}
	if n := installs.Load(); n != 1 {
		t.Errorf("Failed must not retry, got %d attempts", n)
	}
	if tr.State() != Failed {
		t.Errorf("expected failed, got %s", tr.State())
	}
	if _, err := tr.Hash(ctx, hashRequest(t, "pw")); !errors.Is(err, errors.ErrNotInitialized) {
		t.Errorf("Hash on failed transport = %v, want not initialized", err)
	}
}

func TestInit_ContractViolations(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"no bytes", Config{}, "no module bytes"},
		{"not wasm", Config{Wasm: []byte("not a module")}, "compile module"},
		{"missing hash", shimConfig(wasmshim.Options{Omit: []string{"argon2_hash"}}), "argon2_hash"},
		{"missing memory", shimConfig(wasmshim.Options{Omit: []string{"memory"}}), "memory"},
		{"missing allocator", shimConfig(wasmshim.Options{Omit: []string{"alloc", "dealloc"}}), "allocator"},
		{"verify signature", shimConfig(wasmshim.Options{VerifyNoParams: true}), "argon2_verify"},
		{"missing host module", Config{Wasm: wasmshim.Wasm()}, "instantiate module"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Open(context.Background(), tc.cfg)
			if !errors.Is(err, errors.ErrTransportUnavailable) {
				t.Fatalf("Open = %v, want transport unavailable", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q should mention %q", err, tc.want)
			}
		})
	}
}

func TestInit_OptionalInitExport(t *testing.T) {
	tr := openShim(t, shimConfig(wasmshim.Options{Omit: []string{"argon2_init"}}))
	if _, err := tr.Hash(context.Background(), hashRequest(t, "pw")); err != nil {
		t.Errorf("Hash failed: %v", err)
	}
}

func TestTransport_CallFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("trap", func(t *testing.T) {
		tr := openShim(t, shimConfig(wasmshim.Options{TrapOnHash: true}))
		if _, err := tr.Hash(ctx, hashRequest(t, "pw")); !errors.Is(err, errors.ErrNativeCall) {
			t.Fatalf("Hash = %v, want native call failure", err)
		}
		// The instance stays usable after a trap.
		if _, err := tr.Verify(ctx, encode(t, schema.VerifyParams{Password: "pw", Hash: "$argon2i$x"})); err != nil {
			t.Errorf("Verify after trap failed: %v", err)
		}
	})

	t.Run("module rejection", func(t *testing.T) {
		tr := openShim(t, shimConfig(wasmshim.Options{}))
		req := encode(t, schema.HashParams{
			Password: "pw",
			Options:  schema.HashOptions{Salt: []byte("saltsalt"), MemoryCost: 1},
		})
		if _, err := tr.Hash(ctx, req); !errors.Is(err, errors.ErrNativeCall) {
			t.Errorf("Hash = %v, want native call failure", err)
		}
	})

	t.Run("result too long", func(t *testing.T) {
		cfg := shimConfig(wasmshim.Options{})
		cfg.MaxResultSize = 16
		tr := openShim(t, cfg)
		_, err := tr.Hash(ctx, hashRequest(t, "pw"))
		if !errors.Is(err, &errors.Error{Phase: errors.PhaseResult, Kind: errors.KindNativeCall}) {
			t.Errorf("Hash = %v, want result-phase native call failure", err)
		}
	})

	t.Run("guest out of memory", func(t *testing.T) {
		cfg := shimConfig(wasmshim.Options{})
		cfg.MemoryLimitPages = 1
		tr := openShim(t, cfg)
		_, err := tr.Hash(ctx, hashRequest(t, strings.Repeat("x", 128<<10)))
		if !errors.Is(err, errors.ErrNativeCall) || !strings.Contains(err.Error(), "allocation failed") {
			t.Errorf("Hash = %v, want allocation failure", err)
		}
	})

	t.Run("unterminated request", func(t *testing.T) {
		tr := openShim(t, shimConfig(wasmshim.Options{}))
		if _, err := tr.Verify(ctx, []byte("{}")); !errors.Is(err, errors.ErrInvalidParams) {
			t.Errorf("Verify = %v, want invalid input", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		tr := openShim(t, shimConfig(wasmshim.Options{}))
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := tr.Hash(cctx, hashRequest(t, "pw")); !errors.Is(err, context.Canceled) {
			t.Errorf("Hash = %v, want context.Canceled", err)
		}
	})
}
