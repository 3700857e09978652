package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	argon2bridge "github.com/wippyai/argon2-bridge"
	"github.com/wippyai/argon2-bridge/internal/wasmshim"
	"github.com/wippyai/argon2-bridge/native"
	"github.com/wippyai/argon2-bridge/portable"
	"github.com/wippyai/argon2-bridge/schema"
)

type backendFlags struct {
	backend string
	lib     string
	wasm    string
	kdfHost bool
	wasi    bool
	shim    bool
	verbose bool
}

func main() {
	var (
		bf          backendFlags
		op          = flag.String("op", "hash", "Operation: hash, verify or verify-ext")
		encoded     = flag.String("hash", "", "Encoded hash to verify against")
		salt        = flag.String("salt", "", "Salt (random 16 bytes if empty)")
		secret      = flag.String("secret", "", "Secret key")
		data        = flag.String("data", "", "Associated data")
		variant     = flag.String("variant", "", "argon2i, argon2d or argon2id")
		version     = flag.Uint("version", 0, "Format version: 16 or 19")
		memory      = flag.Uint("m", 0, "Memory cost in KiB")
		passes      = flag.Uint("t", 0, "Time cost (passes)")
		lanes       = flag.Uint("p", 0, "Lanes")
		hashLen     = flag.Uint("len", 0, "Hash length in bytes")
		parallel    = flag.Bool("parallel", false, "Compute lanes in parallel")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.StringVar(&bf.backend, "backend", "portable", "Backend: native or portable")
	flag.StringVar(&bf.lib, "lib", "", "Path to the native shared library")
	flag.StringVar(&bf.wasm, "wasm", os.Getenv("ARGON2_WASM"), "Path to the wasm module (default $ARGON2_WASM)")
	flag.BoolVar(&bf.kdfHost, "kdf-host", false, "Provide the argon2_host import module to -wasm")
	flag.BoolVar(&bf.wasi, "wasi", true, "Provide WASI preview1 to the wasm module")
	flag.BoolVar(&bf.shim, "shim", false, "Use the built-in module that hashes through the host")
	flag.BoolVar(&bf.verbose, "v", false, "Log bridge calls to stderr")
	flag.Parse()

	if (bf.backend == "native" && bf.lib == "") || (bf.backend == "portable" && bf.wasm == "" && !bf.shim) {
		fmt.Fprintln(os.Stderr, "Usage: argon2 -backend native -lib <libargon2_bridge.so> [-op hash|verify|verify-ext] [password]")
		fmt.Fprintln(os.Stderr, "       argon2 -wasm <argon2_bridge.wasm> [-op hash|verify|verify-ext] [password]")
		fmt.Fprintln(os.Stderr, "       argon2 -shim [-op hash|verify|verify-ext] [password]")
		fmt.Fprintln(os.Stderr, "       argon2 -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Build the wasm module with:")
		fmt.Fprintln(os.Stderr, "  GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o argon2_bridge.wasm ./cmd/argon2-wasm")
		os.Exit(1)
	}

	ctx := context.Background()
	b, err := openBridge(ctx, bf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	code := 0
	defer func() {
		b.Close(ctx)
		os.Exit(code)
	}()
	fail := func(err error) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		code = 1
	}

	if *interactive {
		if err := runInteractive(b); err != nil {
			fail(err)
		}
		return
	}

	password, err := readPassword(flag.Arg(0))
	if err != nil {
		fail(err)
		return
	}

	switch *op {
	case "hash":
		opts := schema.HashOptions{
			Secret:     optionalBytes(*secret),
			Data:       optionalBytes(*data),
			Version:    schema.Version(*version),
			Variant:    schema.Variant(*variant),
			MemoryCost: uint32(*memory),
			TimeCost:   uint32(*passes),
			Lanes:      uint32(*lanes),
			HashLength: uint32(*hashLen),
		}
		if *parallel {
			opts.ThreadMode = schema.Parallel
		}
		if opts.Salt, err = saltBytes(*salt); err != nil {
			break
		}
		var out string
		if out, err = b.Hash(ctx, schema.HashParams{Password: password, Options: opts}); err == nil {
			fmt.Println(out)
		}

	case "verify", "verify-ext":
		var ok bool
		if *op == "verify" {
			ok, err = b.Verify(ctx, schema.VerifyParams{Password: password, Hash: *encoded})
		} else {
			ok, err = b.VerifyExt(ctx, schema.VerifyParamsExt{
				VerifyParams: schema.VerifyParams{Password: password, Hash: *encoded},
				Secret:       schema.Bytes(*secret),
				Data:         optionalBytes(*data),
			})
		}
		if err == nil {
			fmt.Println(ok)
			if !ok {
				code = 2
			}
		}

	default:
		err = fmt.Errorf("unknown operation %q", *op)
	}

	if err != nil {
		fail(err)
	}
}

func openBridge(ctx context.Context, bf backendFlags) (*argon2bridge.Bridge, error) {
	logger := zap.NewNop()
	if bf.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("create logger: %w", err)
		}
		logger = l
		native.SetLogger(l)
		portable.SetLogger(l)
	}
	opts := []argon2bridge.Option{argon2bridge.WithLogger(logger)}

	switch bf.backend {
	case "native":
		return argon2bridge.OpenNative(bf.lib, opts...)

	case "portable":
		cfg := portable.Config{EnableWASI: bf.wasi}
		if bf.shim {
			cfg.Wasm = wasmshim.Wasm()
			cfg.HostModules = []portable.HostModule{wasmshim.Install}
		} else {
			wasm, err := os.ReadFile(bf.wasm)
			if err != nil {
				return nil, fmt.Errorf("read file: %w", err)
			}
			cfg.Wasm = wasm
			if bf.kdfHost {
				cfg.HostModules = []portable.HostModule{wasmshim.Install}
			}
		}
		return argon2bridge.OpenPortable(ctx, cfg, opts...)
	}
	return nil, fmt.Errorf("unknown backend %q", bf.backend)
}

// readPassword prefers the argument, then a no-echo prompt on a terminal,
// then one line of stdin.
func readPassword(arg string) (string, error) {
	if arg != "" {
		return arg, nil
	}
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Password: ")
		pw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(pw), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func saltBytes(s string) (schema.Bytes, error) {
	if s != "" {
		return schema.Bytes(s), nil
	}
	salt := make(schema.Bytes, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

func optionalBytes(s string) schema.Bytes {
	if s == "" {
		return nil
	}
	return schema.Bytes(s)
}
