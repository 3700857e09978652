// Package artifact builds the module's shipped binaries, the native shared
// library and the wasm guest, for tests that exercise them for real.
//
// Builds run once per test binary and are skipped under -short, without a
// go tool on PATH, or (for the shared library) without cgo. Call Cleanup
// from TestMain to remove the build directory.
package artifact

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
)

const (
	nativePkg  = "./cmd/argon2-native"
	wasmPkg    = "./cmd/argon2-wasm"
	nativeName = "libargon2_bridge.so"
	wasmName   = "argon2_bridge.wasm"
)

type build struct {
	once sync.Once
	path string
	skip string
	err  string
}

var (
	native build
	wasm   build

	dirOnce sync.Once
	dir     string
	dirErr  error
)

// NativeLibrary returns the path of cmd/argon2-native built with
// -buildmode=c-shared.
func NativeLibrary(tb testing.TB) string {
	tb.Helper()
	native.once.Do(func() {
		switch runtime.GOOS {
		case "linux", "darwin", "freebsd":
		default:
			native.skip = "shared libraries are not loadable on " + runtime.GOOS
			return
		}
		cgo, err := goEnv("CGO_ENABLED")
		if err != nil {
			native.skip = "go env: " + err.Error()
			return
		}
		if cgo != "1" {
			native.skip = "cgo is disabled"
			return
		}
		native.run(nil, nativeName, nativePkg)
	})
	return native.result(tb)
}

// WasmGuest returns cmd/argon2-wasm built as a wasip1 reactor.
func WasmGuest(tb testing.TB) []byte {
	tb.Helper()
	wasm.once.Do(func() {
		wasm.run([]string{"GOOS=wasip1", "GOARCH=wasm", "CGO_ENABLED=0"}, wasmName, wasmPkg)
	})
	path := wasm.result(tb)
	b, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("read wasm guest: %v", err)
	}
	return b
}

// Cleanup removes everything built so far.
func Cleanup() {
	if dir != "" {
		_ = os.RemoveAll(dir)
	}
}

func (b *build) result(tb testing.TB) string {
	tb.Helper()
	if testing.Short() {
		tb.Skip("building module artifacts is skipped in short mode")
	}
	if b.skip != "" {
		tb.Skip(b.skip)
	}
	if b.err != "" {
		tb.Fatal(b.err)
	}
	return b.path
}

func (b *build) run(env []string, name, pkg string) {
	if testing.Short() {
		return
	}
	goTool, err := exec.LookPath("go")
	if err != nil {
		b.skip = "go tool not found"
		return
	}
	dirOnce.Do(func() { dir, dirErr = os.MkdirTemp("", "argon2-bridge-artifacts") })
	if dirErr != nil {
		b.err = "create build directory: " + dirErr.Error()
		return
	}
	root, err := moduleRoot()
	if err != nil {
		b.err = "locate module root: " + err.Error()
		return
	}

	out := filepath.Join(dir, name)
	cmd := exec.Command(goTool, "build", "-buildmode=c-shared", "-o", out, pkg)
	cmd.Dir = root
	cmd.Env = append(os.Environ(), env...)
	if output, err := cmd.CombinedOutput(); err != nil {
		b.err = "go build " + pkg + ": " + err.Error() + "\n" + string(output)
		return
	}
	b.path = out
}

func moduleRoot() (string, error) {
	gomod, err := goEnv("GOMOD")
	if err != nil {
		return "", err
	}
	return filepath.Dir(gomod), nil
}

func goEnv(key string) (string, error) {
	out, err := exec.Command("go", "env", key).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
