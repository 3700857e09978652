package kdf

import (
	"errors"
	"fmt"

	"github.com/wippyai/argon2-bridge/schema"
)

// Defaults applied when a request leaves a field unset.
const (
	DefaultVariant    = schema.Argon2i
	DefaultVersion    = schema.Version13
	DefaultMemoryCost = 4096
	DefaultTimeCost   = 3
	DefaultLanes      = 1
	DefaultHashLength = 32
)

// Limits enforced by validate.
const (
	MinSaltLength   = schema.MinSaltSize
	MinHashLength   = 4
	MaxLanes        = 0xFFFFFF
	MinTimeCost     = 1
	minMemoryFactor = 8 // memory cost must be at least 8 KiB per lane

	// MaxMemoryCost caps the memory cost at 2 GiB (in KiB). Decoded hashes
	// are subject to it too, so a hostile m= cannot force a huge allocation.
	MaxMemoryCost = 1 << 21
)

// Sentinel errors. Returned errors wrap one of these; use errors.Is.
var (
	ErrSaltTooShort    = errors.New("kdf: salt is too short")
	ErrOutputTooShort  = errors.New("kdf: hash length is too short")
	ErrLanesTooFew     = errors.New("kdf: too few lanes")
	ErrLanesTooMany    = errors.New("kdf: too many lanes")
	ErrMemoryTooLittle = errors.New("kdf: memory cost is too small")
	ErrMemoryTooMuch   = errors.New("kdf: memory cost is too large")
	ErrTimeTooSmall    = errors.New("kdf: time cost is too small")
	ErrDecoding        = errors.New("kdf: invalid encoded hash")
	ErrRequest         = errors.New("kdf: invalid request")
)

// Config holds the Argon2 parameters of one computation.
type Config struct {
	Variant        schema.Variant
	Version        schema.Version
	MemoryCost     uint32
	TimeCost       uint32
	Lanes          uint32
	ThreadMode     schema.ThreadMode
	HashLength     uint32
	Secret         []byte
	AssociatedData []byte
}

// DefaultConfig returns the parameters used for every field a request
// leaves unset.
func DefaultConfig() Config {
	return Config{
		Variant:    DefaultVariant,
		Version:    DefaultVersion,
		MemoryCost: DefaultMemoryCost,
		TimeCost:   DefaultTimeCost,
		Lanes:      DefaultLanes,
		ThreadMode: schema.Sequential,
		HashLength: DefaultHashLength,
	}
}

// ConfigFromOptions overlays the fields set in opts on DefaultConfig.
func ConfigFromOptions(opts schema.HashOptions) Config {
	cfg := DefaultConfig()
	if len(opts.Secret) > 0 {
		cfg.Secret = opts.Secret
	}
	if len(opts.Data) > 0 {
		cfg.AssociatedData = opts.Data
	}
	if opts.Variant != "" {
		cfg.Variant = opts.Variant
	}
	if opts.Version != 0 {
		cfg.Version = opts.Version
	}
	if opts.MemoryCost != 0 {
		cfg.MemoryCost = opts.MemoryCost
	}
	if opts.TimeCost != 0 {
		cfg.TimeCost = opts.TimeCost
	}
	if opts.Lanes != 0 {
		cfg.Lanes = opts.Lanes
	}
	if opts.HashLength != 0 {
		cfg.HashLength = opts.HashLength
	}
	cfg.ThreadMode = opts.ThreadMode
	return cfg
}

func (c *Config) validate(salt []byte) error {
	switch {
	case len(salt) < MinSaltLength:
		return fmt.Errorf("%w: %d bytes, need at least %d", ErrSaltTooShort, len(salt), MinSaltLength)
	case !c.Variant.Valid():
		return fmt.Errorf("%w: unknown variant %q", ErrRequest, string(c.Variant))
	case !c.Version.Valid():
		return fmt.Errorf("%w: unsupported version %d", ErrRequest, uint32(c.Version))
	case !c.ThreadMode.Valid():
		return fmt.Errorf("%w: unknown thread mode %d", ErrRequest, uint8(c.ThreadMode))
	case c.HashLength < MinHashLength:
		return fmt.Errorf("%w: %d bytes, need at least %d", ErrOutputTooShort, c.HashLength, MinHashLength)
	case c.Lanes < 1:
		return ErrLanesTooFew
	case c.Lanes > MaxLanes:
		return fmt.Errorf("%w: %d", ErrLanesTooMany, c.Lanes)
	case uint64(c.MemoryCost) < minMemoryFactor*uint64(c.Lanes):
		return fmt.Errorf("%w: %d KiB, need at least %d KiB for %d lanes",
			ErrMemoryTooLittle, c.MemoryCost, minMemoryFactor*uint64(c.Lanes), c.Lanes)
	case c.MemoryCost > MaxMemoryCost:
		return fmt.Errorf("%w: %d KiB, limit is %d KiB", ErrMemoryTooMuch, c.MemoryCost, MaxMemoryCost)
	case c.TimeCost < MinTimeCost:
		return fmt.Errorf("%w: %d", ErrTimeTooSmall, c.TimeCost)
	}
	return nil
}
