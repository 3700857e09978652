package schema

import (
	"fmt"
	"strconv"
)

// Variant selects the Argon2 memory-access pattern.
type Variant string

const (
	Argon2i  Variant = "argon2i"
	Argon2d  Variant = "argon2d"
	Argon2id Variant = "argon2id"
)

// Valid reports whether v is one of the three supported variants.
func (v Variant) Valid() bool {
	switch v {
	case Argon2i, Argon2d, Argon2id:
		return true
	}
	return false
}

// ParseVariant parses a variant token. Upper-case first letters are
// accepted ("Argon2id").
func ParseVariant(s string) (Variant, error) {
	if len(s) > 0 && s[0] == 'A' {
		s = "a" + s[1:]
	}
	v := Variant(s)
	if !v.Valid() {
		return "", fmt.Errorf("schema: unknown variant %q", s)
	}
	return v, nil
}

// Version is the Argon2 format version. On the wire it is the decimal
// token of its numeric value ("16" or "19").
type Version uint32

const (
	Version10 Version = 0x10
	Version13 Version = 0x13
)

// Valid reports whether v is a supported version.
func (v Version) Valid() bool {
	return v == Version10 || v == Version13
}

func (v Version) String() string {
	return strconv.FormatUint(uint64(v), 10)
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("schema: unsupported version %d", uint32(v))
	}
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	n, err := strconv.ParseUint(string(text), 10, 32)
	if err != nil {
		return fmt.Errorf("schema: version token %q: %w", text, err)
	}
	parsed := Version(n)
	if !parsed.Valid() {
		return fmt.Errorf("schema: unsupported version %d", n)
	}
	*v = parsed
	return nil
}

// ThreadMode tells the module whether lanes may be computed in parallel.
// It does not change the output.
type ThreadMode uint8

const (
	Sequential ThreadMode = iota
	Parallel
)

// Valid reports whether m is Sequential or Parallel.
func (m ThreadMode) Valid() bool {
	return m == Sequential || m == Parallel
}

func (m ThreadMode) String() string {
	switch m {
	case Sequential:
		return "sequential"
	case Parallel:
		return "parallel"
	}
	return "ThreadMode(" + strconv.Itoa(int(m)) + ")"
}
