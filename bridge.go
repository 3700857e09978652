package argon2bridge

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/argon2-bridge/codec"
	"github.com/wippyai/argon2-bridge/native"
	"github.com/wippyai/argon2-bridge/portable"
	"github.com/wippyai/argon2-bridge/schema"
)

// Version of the bridge.
const Version = "0.10.0"

// Bridge is the host-facing hash and verify API over one Transport.
type Bridge struct {
	t   Transport
	log *zap.Logger
}

// New wraps an open transport.
func New(t Transport, opts ...Option) *Bridge {
	o := buildOptions(opts)
	return &Bridge{t: t, log: o.logger}
}

// OpenNative loads the shared library at path.
func OpenNative(path string, opts ...Option) (*Bridge, error) {
	o := buildOptions(opts)
	t, err := native.Open(path, o.native...)
	if err != nil {
		return nil, err
	}
	return &Bridge{t: t, log: o.logger}, nil
}

// OpenPortable instantiates the wasm module described by cfg and waits for
// it to become ready.
func OpenPortable(ctx context.Context, cfg portable.Config, opts ...Option) (*Bridge, error) {
	o := buildOptions(opts)
	t, err := portable.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Bridge{t: t, log: o.logger}, nil
}

// Transport returns the underlying transport.
func (b *Bridge) Transport() Transport {
	return b.t
}

// Hash returns the encoded hash of p.Password under p.Options.
func (b *Bridge) Hash(ctx context.Context, p schema.HashParams) (string, error) {
	req, err := encode(p)
	if err != nil {
		return "", err
	}
	defer clear(req)

	start := time.Now()
	encoded, err := b.t.Hash(ctx, req)
	b.logCall("hash", len(req), start, err)
	return encoded, err
}

// Verify reports whether p.Password matches p.Hash. The hash must have been
// produced without a secret.
func (b *Bridge) Verify(ctx context.Context, p schema.VerifyParams) (bool, error) {
	req, err := encode(p)
	if err != nil {
		return false, err
	}
	defer clear(req)

	start := time.Now()
	ok, err := b.t.Verify(ctx, req)
	b.logCall("verify", len(req), start, err)
	return ok, err
}

// VerifyExt reports whether the password matches a hash produced with
// p.Secret and p.Data.
func (b *Bridge) VerifyExt(ctx context.Context, p schema.VerifyParamsExt) (bool, error) {
	req, err := encode(p)
	if err != nil {
		return false, err
	}
	defer clear(req)

	start := time.Now()
	ok, err := b.t.VerifyExt(ctx, req)
	b.logCall("verify_ext", len(req), start, err)
	return ok, err
}

// Close closes the transport.
func (b *Bridge) Close(ctx context.Context) error {
	return b.t.Close(ctx)
}

type request interface {
	Validate() error
}

// encode validates r and serializes it. The buffer holds the password and
// secret and must be cleared by the caller.
func encode(r request) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return codec.Encode(r)
}

func (b *Bridge) logCall(op string, size int, start time.Time, err error) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("transport", b.t.Name()),
		zap.Int("request_bytes", size),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		b.log.Debug("bridge call failed", append(fields, zap.Error(err))...)
		return
	}
	b.log.Debug("bridge call", fields...)
}
