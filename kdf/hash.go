package kdf

import (
	"crypto/subtle"
	"fmt"
)

// HashRaw returns the raw Argon2 tag of password under salt and cfg.
func HashRaw(password, salt []byte, cfg Config) ([]byte, error) {
	if err := cfg.validate(salt); err != nil {
		return nil, err
	}
	return deriveKey(password, salt, &cfg), nil
}

// HashEncoded hashes password and returns the PHC-encoded result. The
// secret and associated data in cfg are bound into the tag but never
// written to the encoding.
func HashEncoded(password, salt []byte, cfg Config) (string, error) {
	tag, err := HashRaw(password, salt, cfg)
	if err != nil {
		return "", err
	}
	return encodeHash(&cfg, salt, tag), nil
}

// VerifyEncoded reports whether password matches encoded, which must have
// been produced without a secret or associated data.
func VerifyEncoded(encoded string, password []byte) (bool, error) {
	return VerifyEncodedExt(encoded, password, nil, nil)
}

// VerifyEncodedExt reports whether password matches encoded under the given
// secret and associated data. A mismatch is (false, nil); an encoding that
// cannot be parsed or names invalid parameters is an error.
func VerifyEncodedExt(encoded string, password, secret, ad []byte) (bool, error) {
	d, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}
	cfg := Config{
		Variant:        d.variant,
		Version:        d.version,
		MemoryCost:     d.memory,
		TimeCost:       d.time,
		Lanes:          d.lanes,
		HashLength:     uint32(len(d.hash)),
		Secret:         secret,
		AssociatedData: ad,
	}
	if err := cfg.validate(d.salt); err != nil {
		return false, fmt.Errorf("%w: %w", ErrDecoding, err)
	}
	tag := deriveKey(password, d.salt, &cfg)
	return subtle.ConstantTimeCompare(tag, d.hash) == 1, nil
}
