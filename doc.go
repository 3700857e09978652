// Package argon2bridge hashes and verifies passwords with Argon2 by calling
// into a separately compiled module through one of two transports.
//
// The bridge itself does no cryptography. It validates a request, encodes
// it into a NUL-terminated buffer that carries byte arrays losslessly, hands
// the buffer to a Transport and returns the host value the module produced.
//
// # Architecture Overview
//
//	argon2bridge/        Bridge facade and the Transport interface
//	├── schema/          Request types, enumerations and bridge-side validation
//	├── codec/           Binary-safe encoder (and the decoder modules use)
//	├── native/          Transport over a shared library (dlopen, purego)
//	├── portable/        Transport over a WebAssembly module (wazero)
//	├── errors/          Structured error types
//	├── kdf/             Pure-Go module implementation used to build and test
//	└── cmd/
//	    ├── argon2/        Command-line hash/verify on either transport
//	    ├── argon2-native/ Shared library build of kdf
//	    └── argon2-wasm/   wasip1 reactor build of kdf
//
// # Quick Start
//
// Open a transport and hash:
//
//	b, err := argon2bridge.OpenNative("./libargon2_bridge.so")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Close(ctx)
//
//	encoded, err := b.Hash(ctx, schema.HashParams{
//	    Password: "12345",
//	    Options:  schema.HashOptions{Salt: salt},
//	})
//
//	ok, err := b.Verify(ctx, schema.VerifyParams{Password: "12345", Hash: encoded})
//
// A hash produced with a secret key needs VerifyExt with the same secret.
//
// # Errors
//
// A false verify result is not an error. Errors are *errors.Error values
// that match, via errors.Is, one of errors.ErrEncoding,
// errors.ErrInvalidParams, errors.ErrTransportUnavailable,
// errors.ErrNativeCall or errors.ErrNotInitialized. Nothing is retried and
// the bridge never falls back from one transport to the other.
//
// # Thread Safety
//
// Bridge is safe for concurrent use. The native transport runs calls in
// parallel and requires a module without mutable global state; the portable
// transport serializes them. Calls block until the module returns and
// cannot be cancelled once issued.
package argon2bridge
