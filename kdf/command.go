package kdf

import (
	"fmt"

	"github.com/wippyai/argon2-bridge/codec"
	"github.com/wippyai/argon2-bridge/schema"
)

// Hash serves one argon2_hash request. req is a NUL-terminated encoded
// schema.HashParams; the result is the PHC string.
func Hash(req []byte) (string, error) {
	var p schema.HashParams
	if err := codec.Decode(req, &p); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRequest, err)
	}
	return HashEncoded([]byte(p.Password), p.Options.Salt, ConfigFromOptions(p.Options))
}

// Verify serves one argon2_verify request over an encoded
// schema.VerifyParams.
func Verify(req []byte) (bool, error) {
	var p schema.VerifyParams
	if err := codec.Decode(req, &p); err != nil {
		return false, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	return VerifyEncoded(p.Hash, []byte(p.Password))
}

// VerifyExt serves one argon2_verify_ext request over an encoded
// schema.VerifyParamsExt.
func VerifyExt(req []byte) (bool, error) {
	var p schema.VerifyParamsExt
	if err := codec.Decode(req, &p); err != nil {
		return false, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	return VerifyEncodedExt(p.VerifyParams.Hash, []byte(p.VerifyParams.Password), p.Secret, p.Data)
}
