package native

import "unsafe"

// Name identifies this transport in errors and logs.
const Name = "native"

// Exported symbol names of the native module.
const (
	EntryHash        = "argon2_hash"
	EntryFree        = "free_argon2_hash"
	EntryVerify      = "argon2_verify"
	EntryVerifyExt   = "argon2_verify_ext"
	EntryOutstanding = "argon2_outstanding_allocations"
)

// Symbols is the resolved entry-point table of a native module. Request
// pointers address a NUL-terminated buffer that stays valid for the
// duration of the call only.
type Symbols struct {
	Hash      func(req unsafe.Pointer) unsafe.Pointer
	Free      func(res unsafe.Pointer)
	Verify    func(req unsafe.Pointer) uint8
	VerifyExt func(req unsafe.Pointer) uint8

	// Outstanding is optional.
	Outstanding func() int64
}

func (s *Symbols) complete() bool {
	return s.Hash != nil && s.Free != nil && s.Verify != nil && s.VerifyExt != nil
}
