// Package errors provides structured error types for the argon2 bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Kind carries the bridge's failure taxonomy:
//
//	KindEncoding             request value cannot be represented on the wire
//	KindInvalidInput         request rejected by bridge-side validation
//	KindTransportUnavailable backend cannot be loaded, instantiated, or is closed
//	KindNativeCall           the compiled entry point could not complete
//	KindNotInitialized       portable backend used before it is ready
//
// Use the sentinels with the standard library's errors.Is:
//
//	ok, err := b.Verify(ctx, params)
//	if errors.Is(err, bridgeerrors.ErrNativeCall) {
//		// the native module failed; ok is meaningless
//	}
//
// A verification that does not match is reported as false with a nil error,
// never as one of these errors.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindEncoding).
//		Path("options", "salt").
//		GoType("chan int").
//		Detail("unsupported value").
//		Build()
package errors
