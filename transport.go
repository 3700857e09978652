package argon2bridge

import (
	"context"

	"github.com/wippyai/argon2-bridge/native"
	"github.com/wippyai/argon2-bridge/portable"
)

// Transport carries one encoded request to the module and returns its
// answer. Requests are NUL-terminated codec buffers that the transport must
// not retain after returning.
type Transport interface {
	Name() string
	Hash(ctx context.Context, req []byte) (string, error)
	Verify(ctx context.Context, req []byte) (bool, error)
	VerifyExt(ctx context.Context, req []byte) (bool, error)
	Close(ctx context.Context) error
}

var (
	_ Transport = (*native.Transport)(nil)
	_ Transport = (*portable.Transport)(nil)
)
