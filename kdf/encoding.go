package kdf

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/argon2-bridge/schema"
)

// b64 rejects non-zero trailing bits, so every encoded hash has exactly
// one textual form.
var b64 = base64.RawStdEncoding.Strict()

// decoded holds the parameters and raw values of an encoded hash.
type decoded struct {
	variant schema.Variant
	version schema.Version
	memory  uint32
	time    uint32
	lanes   uint32
	salt    []byte
	hash    []byte
}

// encodeHash writes the PHC string:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt>$<hash>
//
// Base64 is the standard alphabet without padding.
func encodeHash(cfg *Config, salt, hash []byte) string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		string(cfg.Variant),
		uint32(cfg.Version),
		cfg.MemoryCost,
		cfg.TimeCost,
		cfg.Lanes,
		b64.EncodeToString(salt),
		b64.EncodeToString(hash),
	)
}

// decodeHash parses a PHC string. The version segment is optional; hashes
// written before it existed are version 0x10.
func decodeHash(encoded string) (*decoded, error) {
	parts := strings.Split(encoded, "$")
	if parts[0] != "" || (len(parts) != 6 && len(parts) != 5) {
		return nil, fmt.Errorf("%w: expected 4 or 5 segments", ErrDecoding)
	}
	parts = parts[1:]

	variant, err := schema.ParseVariant(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecoding, err)
	}

	d := &decoded{variant: variant, version: schema.Version10}
	if len(parts) == 5 {
		v, err := parseKV(parts[1], "v")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecoding, err)
		}
		d.version = schema.Version(v)
		if !d.version.Valid() {
			return nil, fmt.Errorf("%w: unsupported version %d", ErrDecoding, v)
		}
		parts = parts[1:]
	}

	kvs, err := parseParams(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecoding, err)
	}
	m, okM := kvs["m"]
	t, okT := kvs["t"]
	p, okP := kvs["p"]
	if !okM || !okT || !okP {
		return nil, fmt.Errorf("%w: missing m/t/p in %q", ErrDecoding, parts[1])
	}
	d.memory, d.time, d.lanes = m, t, p

	if d.salt, err = b64.DecodeString(parts[2]); err != nil {
		return nil, fmt.Errorf("%w: salt: %v", ErrDecoding, err)
	}
	if d.hash, err = b64.DecodeString(parts[3]); err != nil {
		return nil, fmt.Errorf("%w: hash: %v", ErrDecoding, err)
	}
	return d, nil
}

func parseKV(s, key string) (uint32, error) {
	prefix := key + "="
	if !strings.HasPrefix(s, prefix) {
		return 0, fmt.Errorf("expected %q prefix in %q", prefix, s)
	}
	v, err := strconv.ParseUint(s[len(prefix):], 10, 32)
	return uint32(v), err
}

func parseParams(s string) (map[string]uint32, error) {
	out := make(map[string]uint32, 3)
	for kv := range strings.SplitSeq(s, ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("malformed param %q", kv)
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("non-numeric value in %q: %v", kv, err)
		}
		out[k] = uint32(n)
	}
	return out, nil
}
