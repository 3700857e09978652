package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseValidate Phase = "validate" // bridge-side request validation
	PhaseEncode   Phase = "encode"   // request to wire buffer
	PhaseDecode   Phase = "decode"   // wire buffer to request
	PhaseLoad     Phase = "load"     // library loading / module compilation
	PhaseInit     Phase = "init"     // module instantiation
	PhaseCall     Phase = "call"     // invocation of an entry point
	PhaseResult   Phase = "result"   // reading a result back across the boundary
)

// Kind categorizes the error
type Kind string

const (
	KindEncoding             Kind = "encoding"
	KindInvalidInput         Kind = "invalid_input"
	KindTransportUnavailable Kind = "transport_unavailable"
	KindNativeCall           Kind = "native_call"
	KindNotInitialized       Kind = "not_initialized"
)

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrEncoding             = &Error{Kind: KindEncoding}
	ErrInvalidParams        = &Error{Kind: KindInvalidInput}
	ErrTransportUnavailable = &Error{Kind: KindTransportUnavailable}
	ErrNativeCall           = &Error{Kind: KindNativeCall}
	ErrNotInitialized       = &Error{Kind: KindNotInitialized}
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value     any
	Cause     error
	Phase     Phase
	Kind      Kind
	GoType    string
	Transport string
	Detail    string
	Path      []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if e.Transport != "" {
		b.WriteString(" (")
		b.WriteString(e.Transport)
		b.WriteByte(')')
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" {
		b.WriteString(": Go type ")
		b.WriteString(e.GoType)
	}

	if e.Detail != "" {
		if e.GoType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target with an empty
// Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Transport sets the name of the backend involved
func (b *Builder) Transport(name string) *Builder {
	b.err.Transport = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Unsupported creates an encoding error for a value the wire format cannot carry
func Unsupported(path []string, goType, detail string) *Error {
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindEncoding,
		Path:   path,
		GoType: goType,
		Detail: detail,
	}
}

// InvalidUTF8 creates an encoding error for text that is not valid UTF-8
func InvalidUTF8(path []string) *Error {
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindEncoding,
		Path:   path,
		GoType: "string",
		Detail: "invalid UTF-8 text",
	}
}

// InvalidParam creates a validation error for a request field
func InvalidParam(path []string, value any, detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindInvalidInput,
		Path:   path,
		Value:  value,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// Decode creates a decoding error
func Decode(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindEncoding,
		Detail: detail,
		Cause:  cause,
	}
}

// Unavailable creates a transport-unavailable error
func Unavailable(phase Phase, transport, detail string, cause error) *Error {
	err := Wrap(phase, KindTransportUnavailable, cause, detail)
	err.Transport = transport
	return err
}

// Closed creates the error returned by a transport after Close
func Closed(transport string) *Error {
	return &Error{
		Phase:     PhaseCall,
		Kind:      KindTransportUnavailable,
		Transport: transport,
		Detail:    "transport closed",
	}
}

// NativeCall creates a native call failure for the named entry point
func NativeCall(transport, entry, detail string, cause error) *Error {
	return &Error{
		Phase:     PhaseCall,
		Kind:      KindNativeCall,
		Transport: transport,
		Path:      []string{entry},
		Detail:    detail,
		Cause:     cause,
	}
}

// BadResult creates a native call failure for a result that could not be read back
func BadResult(transport, entry, detail string) *Error {
	return &Error{
		Phase:     PhaseResult,
		Kind:      KindNativeCall,
		Transport: transport,
		Path:      []string{entry},
		Detail:    detail,
	}
}

// NotInitialized creates a not-initialized error
func NotInitialized(transport, state string) *Error {
	return &Error{
		Phase:     PhaseCall,
		Kind:      KindNotInitialized,
		Transport: transport,
		Detail:    fmt.Sprintf("transport is %s", state),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
