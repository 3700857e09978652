package kdf

import (
	"bytes"
	"encoding/hex"
	"testing"

	"golang.org/x/crypto/argon2"

	"github.com/wippyai/argon2-bridge/schema"
)

// RFC 9106 section 5 inputs.
var (
	rfcPassword = bytes.Repeat([]byte{0x01}, 32)
	rfcSalt     = bytes.Repeat([]byte{0x02}, 16)
	rfcSecret   = bytes.Repeat([]byte{0x03}, 8)
	rfcData     = bytes.Repeat([]byte{0x04}, 12)
)

func rfcConfig(variant schema.Variant, version schema.Version) Config {
	return Config{
		Variant:        variant,
		Version:        version,
		MemoryCost:     32,
		TimeCost:       3,
		Lanes:          4,
		HashLength:     32,
		Secret:         rfcSecret,
		AssociatedData: rfcData,
	}
}

func TestHashRaw_KnownAnswers(t *testing.T) {
	tests := []struct {
		name    string
		variant schema.Variant
		version schema.Version
		want    string
	}{
		{"argon2d v19", schema.Argon2d, schema.Version13, "512b391b6f1162975371d30919734294f868e3be3984f3c1a13a4db9fabe4acb"},
		{"argon2i v19", schema.Argon2i, schema.Version13, "c814d9d1dc7f37aa13f0d77f2494bda1c8de6b016dd388d29952a4c4672b6ce8"},
		{"argon2id v19", schema.Argon2id, schema.Version13, "0d640df58d78766c08c037a34a8b53c9d01ef0452d75b65eb52520e96b01e659"},
		{"argon2i v16", schema.Argon2i, schema.Version10, "87aeedd6517ab830cd9765cd8231abb2e647a5dee08f7c05e02fcb763335d0fd"},
		{"argon2d v16", schema.Argon2d, schema.Version10, "96a9d4e5a1734092c85e29f410a45914a5dd1f5cbf08b2670da68a0285abf32b"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, mode := range []schema.ThreadMode{schema.Sequential, schema.Parallel} {
				cfg := rfcConfig(tc.variant, tc.version)
				cfg.ThreadMode = mode
				got, err := HashRaw(rfcPassword, rfcSalt, cfg)
				if err != nil {
					t.Fatalf("HashRaw(%s) failed: %v", mode, err)
				}
				if hex.EncodeToString(got) != tc.want {
					t.Errorf("HashRaw(%s) = %x, want %s", mode, got, tc.want)
				}
			}
		})
	}
}

func TestHashRaw_MatchesXCrypto(t *testing.T) {
	password := []byte("correct horse battery staple")
	salt := []byte("0123456789abcdef")

	tests := []struct {
		memory, time uint32
		lanes        uint8
		keyLen       uint32
	}{
		{64, 1, 1, 32},
		{256, 2, 2, 16},
		{512, 3, 4, 64},
		{1024, 1, 3, 100},
	}

	for _, tc := range tests {
		cfg := DefaultConfig()
		cfg.MemoryCost, cfg.TimeCost, cfg.Lanes, cfg.HashLength = tc.memory, tc.time, uint32(tc.lanes), tc.keyLen

		cfg.Variant = schema.Argon2i
		got, err := HashRaw(password, salt, cfg)
		if err != nil {
			t.Fatalf("HashRaw argon2i: %v", err)
		}
		if want := argon2.Key(password, salt, tc.time, tc.memory, tc.lanes, tc.keyLen); !bytes.Equal(got, want) {
			t.Errorf("argon2i m=%d t=%d p=%d: got %x, want %x", tc.memory, tc.time, tc.lanes, got, want)
		}

		cfg.Variant = schema.Argon2id
		cfg.ThreadMode = schema.Parallel
		got, err = HashRaw(password, salt, cfg)
		if err != nil {
			t.Fatalf("HashRaw argon2id: %v", err)
		}
		if want := argon2.IDKey(password, salt, tc.time, tc.memory, tc.lanes, tc.keyLen); !bytes.Equal(got, want) {
			t.Errorf("argon2id m=%d t=%d p=%d: got %x, want %x", tc.memory, tc.time, tc.lanes, got, want)
		}
	}
}

func TestBlake2bLong_Lengths(t *testing.T) {
	in := []byte("input")
	for _, n := range []int{4, 32, 63, 64, 65, 96, 97, 128, 1024} {
		out := make([]byte, n)
		blake2bLong(out, in)
		if bytes.Equal(out[n-4:], make([]byte, 4)) {
			t.Errorf("blake2bLong(%d) left the tail unwritten: %x", n, out)
		}
	}
}
