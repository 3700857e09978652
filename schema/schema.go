package schema

import (
	"github.com/wippyai/argon2-bridge/errors"
)

// MinSaltSize is the shortest salt, in bytes, the bridge will send.
const MinSaltSize = 8

// HashOptions are the KDF parameters of a hash request.
type HashOptions struct {
	Salt       Bytes      `json:"salt"`
	Secret     Bytes      `json:"secret,omitempty"`
	Data       Bytes      `json:"data,omitempty"`
	Version    Version    `json:"version,omitempty"`
	Variant    Variant    `json:"variant,omitempty"`
	MemoryCost uint32     `json:"memoryCost,omitempty"`
	TimeCost   uint32     `json:"timeCost,omitempty"`
	Lanes      uint32     `json:"lanes,omitempty"`
	ThreadMode ThreadMode `json:"threadMode,omitempty"`
	HashLength uint32     `json:"hashLength,omitempty"`
}

// HashParams is a hash request. It is built per call and not retained.
type HashParams struct {
	Password string      `json:"password"`
	Options  HashOptions `json:"options"`
}

// VerifyParams checks a password against an encoded hash.
type VerifyParams struct {
	Password string `json:"password"`
	Hash     string `json:"hash"`
}

// VerifyParamsExt checks a password against a hash that was produced with a
// secret and, optionally, associated data. Secret is always sent, even when
// empty, so a missing secret can never be mistaken for a default.
type VerifyParamsExt struct {
	VerifyParams VerifyParams `json:"verifyParams"`
	Secret       Bytes        `json:"secret"`
	Data         Bytes        `json:"data,omitempty"`
}

// Validate applies the bridge-side rules to the options.
func (o HashOptions) Validate() error {
	if len(o.Salt) < MinSaltSize {
		return errors.InvalidParam([]string{"options", "salt"}, len(o.Salt),
			"salt must be at least %d bytes, got %d", MinSaltSize, len(o.Salt))
	}
	if o.Version != 0 && !o.Version.Valid() {
		return errors.InvalidParam([]string{"options", "version"}, uint32(o.Version),
			"unsupported version %d", uint32(o.Version))
	}
	if o.Variant != "" && !o.Variant.Valid() {
		return errors.InvalidParam([]string{"options", "variant"}, string(o.Variant),
			"unknown variant %q", string(o.Variant))
	}
	if !o.ThreadMode.Valid() {
		return errors.InvalidParam([]string{"options", "threadMode"}, uint8(o.ThreadMode),
			"unknown thread mode %d", uint8(o.ThreadMode))
	}
	return nil
}

// Validate applies the bridge-side rules to a hash request.
func (p HashParams) Validate() error {
	return p.Options.Validate()
}

// Validate applies the bridge-side rules to a verify request.
func (p VerifyParams) Validate() error {
	if p.Hash == "" {
		return errors.InvalidParam([]string{"hash"}, "", "encoded hash is empty")
	}
	return nil
}

// Validate applies the bridge-side rules to an extended verify request.
func (p VerifyParamsExt) Validate() error {
	if p.VerifyParams.Hash == "" {
		return errors.InvalidParam([]string{"verifyParams", "hash"}, "", "encoded hash is empty")
	}
	return nil
}
