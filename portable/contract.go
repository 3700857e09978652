package portable

import (
	"slices"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/argon2-bridge/errors"
)

// Guest export names.
const (
	EntryHash      = "argon2_hash"
	EntryVerify    = "argon2_verify"
	EntryVerifyExt = "argon2_verify_ext"
	EntryInit      = "argon2_init"
	exportMemory   = "memory"
)

type signature struct {
	params  []wit.Type
	results []wit.Type
}

var (
	sigRequest = signature{[]wit.Type{wit.U32{}}, []wit.Type{wit.U32{}}}
	sigVerify  = signature{[]wit.Type{wit.U32{}}, []wit.Type{wit.Bool{}}}
	sigInit    = signature{nil, []wit.Type{wit.S32{}}}
	sigRealloc = signature{[]wit.Type{wit.U32{}, wit.U32{}, wit.U32{}, wit.U32{}}, []wit.Type{wit.U32{}}}
	sigAlloc   = signature{[]wit.Type{wit.U32{}}, []wit.Type{wit.U32{}}}
)

type entryPoint struct {
	name     string
	sig      signature
	optional bool
}

var entryPoints = []entryPoint{
	{EntryHash, sigRequest, false},
	{EntryVerify, sigVerify, false},
	{EntryVerifyExt, sigVerify, false},
	{EntryInit, sigInit, true},
}

type allocExport struct {
	name    string
	sig     signature
	realloc bool
}

// Looked up in order; the first export present is used.
var allocExports = []allocExport{
	{"cabi_realloc", sigRealloc, true},
	{"canonical_abi_realloc", sigRealloc, true},
	{"allocate", sigAlloc, false},
	{"alloc", sigAlloc, false},
}

var freeExports = []entryPoint{
	{"cabi_free", signature{[]wit.Type{wit.U32{}, wit.U32{}, wit.U32{}}, nil}, true},
	{"deallocate", signature{[]wit.Type{wit.U32{}, wit.U32{}}, nil}, true},
	{"dealloc", signature{[]wit.Type{wit.U32{}, wit.U32{}}, nil}, true},
	{"free", signature{[]wit.Type{wit.U32{}}, nil}, true},
}

// flatTypes lowers primitive WIT types to core wasm value types.
func flatTypes(types []wit.Type) []api.ValueType {
	out := make([]api.ValueType, 0, len(types))
	for _, t := range types {
		switch t.(type) {
		case wit.Bool, wit.U8, wit.S8, wit.U16, wit.S16, wit.U32, wit.S32, wit.Char:
			out = append(out, api.ValueTypeI32)
		case wit.U64, wit.S64:
			out = append(out, api.ValueTypeI64)
		case wit.F32:
			out = append(out, api.ValueTypeF32)
		case wit.F64:
			out = append(out, api.ValueTypeF64)
		}
	}
	return out
}

func (s signature) matches(def api.FunctionDefinition) bool {
	return slices.Equal(def.ParamTypes(), flatTypes(s.params)) &&
		slices.Equal(def.ResultTypes(), flatTypes(s.results))
}

func (s signature) String() string {
	return typeList(flatTypes(s.params)) + " -> " + typeList(flatTypes(s.results))
}

func defString(def api.FunctionDefinition) string {
	return typeList(def.ParamTypes()) + " -> " + typeList(def.ResultTypes())
}

func typeList(types []api.ValueType) string {
	out := "("
	for i, t := range types {
		if i > 0 {
			out += " "
		}
		out += api.ValueTypeName(t)
	}
	return out + ")"
}

// layout is the set of guest exports the transport binds, as resolved
// from a compiled module.
type layout struct {
	alloc   allocExport
	free    string
	hasInit bool
}

// checkExports validates a compiled guest against the contract.
func checkExports(compiled wazero.CompiledModule) (layout, error) {
	var l layout
	funcs := compiled.ExportedFunctions()

	if _, ok := compiled.ExportedMemories()[exportMemory]; !ok {
		return l, contractError(exportMemory, "missing memory export")
	}

	for _, e := range entryPoints {
		def, ok := funcs[e.name]
		if !ok {
			if e.optional {
				continue
			}
			return l, contractError(e.name, "missing export")
		}
		if !e.sig.matches(def) {
			return l, contractError(e.name, "signature %s, want %s", defString(def), e.sig)
		}
		if e.name == EntryInit {
			l.hasInit = true
		}
	}

	found := false
	for _, a := range allocExports {
		def, ok := funcs[a.name]
		if !ok {
			continue
		}
		if !a.sig.matches(def) {
			return l, contractError(a.name, "signature %s, want %s", defString(def), a.sig)
		}
		l.alloc, found = a, true
		break
	}
	if !found {
		return l, contractError("cabi_realloc", "no allocator export")
	}

	for _, f := range freeExports {
		if def, ok := funcs[f.name]; ok && f.sig.matches(def) {
			l.free = f.name
			break
		}
	}
	return l, nil
}

func contractError(export, detail string, args ...any) error {
	return errors.New(errors.PhaseInit, errors.KindTransportUnavailable).
		Transport(Name).
		Path(export).
		Detail(detail, args...).
		Build()
}
