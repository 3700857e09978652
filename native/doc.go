// Package native reaches the Argon2 module through a platform shared
// library.
//
// The library is opened with dlopen and its entry points are bound with
// purego, so no cgo toolchain is needed on the host side:
//
//	argon2_hash(req *char) *char          // NUL-terminated PHC string, "" on failure
//	free_argon2_hash(res *char)           // releases a result of argon2_hash
//	argon2_verify(req *char) uint8        // nonzero on match
//	argon2_verify_ext(req *char) uint8    // nonzero on match
//	argon2_outstanding_allocations() int64 // optional, for leak checks
//
// Every request is a NUL-terminated buffer produced by codec.Encode.
//
// # Result ownership
//
// A hash result is memory owned by the library. The transport wraps it in
// a scoped handle whose release is deferred the moment the pointer is
// received, reads it through a bounded view that stops at the terminator,
// and copies it into Go memory. The release runs exactly once on every
// path, including decode failures. Verify results are plain bytes and need
// no release.
//
// # Concurrency
//
// Calls may run concurrently; Close waits for in-flight calls. The library
// itself must not keep mutable global state between calls.
package native
