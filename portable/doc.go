// Package portable runs the Argon2 module as WebAssembly inside the host
// process, using wazero.
//
// # Guest ABI
//
// The guest is a core wasm module (not a component). It must export:
//
//	memory                                   linear memory
//	argon2_hash(req i32) -> i32              pointer to a NUL-terminated result, 0 on failure
//	argon2_verify(req i32) -> i32            nonzero on match
//	argon2_verify_ext(req i32) -> i32        nonzero on match
//
// and one allocator, looked up in this order:
//
//	cabi_realloc(old, old_size, align, new_size i32) -> i32
//	canonical_abi_realloc(old, old_size, align, new_size i32) -> i32
//	allocate(size i32) -> i32
//	alloc(size i32) -> i32
//
// A deallocator is optional: cabi_free(ptr, size, align), deallocate(ptr,
// size), dealloc(ptr, size) or free(ptr). Without one, a realloc-style
// allocator is called with new_size 0 to release.
//
// argon2_init() -> i32 is optional. When present it runs once during Init
// and must return 0. A reactor-style _initialize export also runs at
// instantiation.
//
// Requests are NUL-terminated buffers produced by codec.Encode. The
// transport allocates each request in guest memory, calls the entry point,
// copies the result out and then zeroes and releases the request. Results
// belong to the guest and stay valid only until the next call; the
// transport never frees them.
//
// Export signatures are checked during Init against a table typed in WIT
// primitives. A missing or mistyped export leaves the transport Failed.
//
// # Lifecycle
//
// Init moves the transport from Uninitialized through Initializing to
// Ready or Failed. Concurrent Init calls share one attempt. Failed is
// terminal: later Init calls return the original error. Calls before Ready
// fail with a not-initialized error. Calls are serialized because a wazero
// module instance is not safe for concurrent use.
package portable
