package wasmshim

import "slices"

// Section ids.
const (
	secType   = 1
	secImport = 2
	secFunc   = 3
	secMemory = 5
	secGlobal = 6
	secExport = 7
	secCode   = 10
)

const (
	valI32   = 0x7F
	funcType = 0x60

	kindFunc   = 0x00
	kindMemory = 0x02
	kindGlobal = 0x03
)

// Opcodes used by the guest bodies.
const (
	opUnreachable = 0x00
	opIf          = 0x04
	opEnd         = 0x0B
	opReturn      = 0x0F
	opCall        = 0x10
	opLocalGet    = 0x20
	opLocalSet    = 0x21
	opLocalTee    = 0x22
	opGlobalGet   = 0x23
	opGlobalSet   = 0x24
	opI32Store8   = 0x3A
	opMemorySize  = 0x3F
	opMemoryGrow  = 0x40
	opI32Const    = 0x41
	opI32Eqz      = 0x45
	opI32Eq       = 0x46
	opI32GtU      = 0x4B
	opI32LeS      = 0x4C
	opI32Add      = 0x6A
	opI32Sub      = 0x6B
	opI32And      = 0x71
	opI32Shl      = 0x74
	opI32ShrU     = 0x76

	blockEmpty = 0x40
)

// HeapBase is the first address handed out by the guest allocator. A hash
// result is written at the heap top, past the request, and stays valid
// until the next allocation.
const HeapBase = 4096

// Type indices.
const (
	tHash    = iota // (i32 i32) -> i32
	tUnary          // (i32) -> i32
	tFree           // (i32 i32) -> ()
	tNullary        // () -> i32
	tRealloc        // (i32 i32 i32 i32) -> i32
)

// Function indices. Imports come first.
const (
	fnHostHash = iota
	fnHostVerify
	fnHostVerifyExt
	fnAlloc
	fnDealloc
	fnInit
	fnHash
	fnVerify
	fnVerifyExt
	fnRealloc
)

// Options select a guest variant. The zero value is the well-behaved
// guest.
type Options struct {
	// InitResult is returned by argon2_init; nonzero means not ready.
	InitResult int32
	// Realloc exports cabi_realloc instead of alloc and dealloc.
	Realloc bool
	// TrapOnHash makes argon2_hash execute unreachable.
	TrapOnHash bool
	// VerifyNoParams declares argon2_verify as () -> i32.
	VerifyNoParams bool
	// Omit lists exports to leave out.
	Omit []string
}

// Wasm returns the well-behaved guest.
func Wasm() []byte {
	return Build(Options{})
}

// Build assembles a guest module. It imports hash, verify and verify_ext
// from the HostModule namespace and exports the entry points the portable
// transport expects.
func Build(opts Options) []byte {
	out := &buffer{}
	out.raw(0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00)

	types := &buffer{}
	types.u32(5)
	for _, sig := range [][2][]byte{
		{{valI32, valI32}, {valI32}},
		{{valI32}, {valI32}},
		{{valI32, valI32}, nil},
		{nil, {valI32}},
		{{valI32, valI32, valI32, valI32}, {valI32}},
	} {
		types.u8(funcType)
		types.u32(uint32(len(sig[0])))
		types.raw(sig[0]...)
		types.u32(uint32(len(sig[1])))
		types.raw(sig[1]...)
	}
	out.section(secType, types)

	imports := &buffer{}
	imports.u32(3)
	for _, imp := range []struct {
		name string
		typ  uint32
	}{{"hash", tHash}, {"verify", tUnary}, {"verify_ext", tUnary}} {
		imports.name(HostModule)
		imports.name(imp.name)
		imports.u8(kindFunc)
		imports.u32(imp.typ)
	}
	out.section(secImport, imports)

	verifyType := uint32(tUnary)
	if opts.VerifyNoParams {
		verifyType = tNullary
	}
	funcs := &buffer{}
	funcTypes := []uint32{tUnary, tFree, tNullary, tUnary, verifyType, tUnary, tRealloc}
	funcs.u32(uint32(len(funcTypes)))
	for _, t := range funcTypes {
		funcs.u32(t)
	}
	out.section(secFunc, funcs)

	mem := &buffer{}
	mem.raw(0x01, 0x00, 0x01) // one memory, min 1 page, no max
	out.section(secMemory, mem)

	globals := &buffer{}
	globals.raw(0x01, valI32, 0x01, opI32Const)
	globals.i32(HeapBase)
	globals.u8(opEnd)
	out.section(secGlobal, globals)

	type export struct {
		name string
		kind byte
		idx  uint32
	}
	exports := []export{
		{"memory", kindMemory, 0},
		{"argon2_init", kindFunc, fnInit},
		{"argon2_hash", kindFunc, fnHash},
		{"argon2_verify", kindFunc, fnVerify},
		{"argon2_verify_ext", kindFunc, fnVerifyExt},
	}
	if opts.Realloc {
		exports = append(exports, export{"cabi_realloc", kindFunc, fnRealloc})
	} else {
		exports = append(exports, export{"alloc", kindFunc, fnAlloc}, export{"dealloc", kindFunc, fnDealloc})
	}
	exports = slices.DeleteFunc(exports, func(e export) bool {
		return slices.Contains(opts.Omit, e.name)
	})
	exp := &buffer{}
	exp.u32(uint32(len(exports)))
	for _, e := range exports {
		exp.name(e.name)
		exp.u8(e.kind)
		exp.u32(e.idx)
	}
	out.section(secExport, exp)

	bodies := [][]byte{
		allocBody(),
		deallocBody(),
		constBody(opts.InitResult),
		hashBody(opts.TrapOnHash),
		verifyBody(fnHostVerify, opts.VerifyNoParams),
		verifyBody(fnHostVerifyExt, false),
		reallocBody(),
	}
	code := &buffer{}
	code.u32(uint32(len(bodies)))
	for _, b := range bodies {
		code.u32(uint32(len(b)))
		code.raw(b...)
	}
	out.section(secCode, code)

	return out.b
}

// body starts a function body with n extra i32 locals.
func body(locals uint32) *buffer {
	b := &buffer{}
	if locals == 0 {
		b.u32(0)
		return b
	}
	b.u32(1)
	b.u32(locals)
	b.u8(valI32)
	return b
}

func (w *buffer) const32(v int32) {
	w.u8(opI32Const)
	w.i32(v)
}

// pageBytes pushes memory.size << 16.
func (w *buffer) pageBytes() {
	w.raw(opMemorySize, 0x00)
	w.const32(16)
	w.u8(opI32Shl)
}

// alignedEnd pushes (local a + local b + 7) & -8.
func (w *buffer) alignedEnd(a byte, bIsGlobal bool, b byte) {
	if bIsGlobal {
		w.raw(opGlobalGet, b, opLocalGet, a)
	} else {
		w.raw(opLocalGet, a, opLocalGet, b)
	}
	w.u8(opI32Add)
	w.const32(7)
	w.u8(opI32Add)
	w.const32(-8)
	w.u8(opI32And)
}

// alloc(size) bumps the heap top, growing memory as needed. It returns 0
// when memory cannot grow.
func allocBody() []byte {
	b := body(1)
	b.raw(opGlobalGet, 0, opLocalSet, 1)
	b.alignedEnd(0, true, 0)
	b.raw(opGlobalSet, 0)

	b.raw(opGlobalGet, 0)
	b.pageBytes()
	b.u8(opI32GtU)
	b.raw(opIf, blockEmpty)
	{
		b.raw(opGlobalGet, 0)
		b.pageBytes()
		b.u8(opI32Sub)
		b.const32(0xFFFF)
		b.u8(opI32Add)
		b.const32(16)
		b.u8(opI32ShrU)
		b.raw(opMemoryGrow, 0x00)
		b.const32(-1)
		b.u8(opI32Eq)
		b.raw(opIf, blockEmpty)
		{
			b.raw(opLocalGet, 1, opGlobalSet, 0)
			b.const32(0)
			b.u8(opReturn)
		}
		b.u8(opEnd)
	}
	b.u8(opEnd)
	b.raw(opLocalGet, 1, opEnd)
	return b.b
}

// dealloc(ptr, size) rolls the heap top back when ptr is the most recent
// allocation.
func deallocBody() []byte {
	b := body(0)
	b.alignedEnd(0, false, 1)
	b.raw(opGlobalGet, 0, opI32Eq)
	b.raw(opIf, blockEmpty)
	b.raw(opLocalGet, 0, opGlobalSet, 0)
	b.u8(opEnd)
	b.u8(opEnd)
	return b.b
}

func constBody(v int32) []byte {
	b := body(0)
	b.const32(v)
	b.u8(opEnd)
	return b.b
}

// argon2_hash(req) asks the host to write the result at the heap top and
// terminates it. It returns 0 when the host reports failure.
func hashBody(trap bool) []byte {
	if trap {
		b := body(0)
		b.raw(opUnreachable, opEnd)
		return b.b
	}
	b := body(1)
	b.raw(opLocalGet, 0, opGlobalGet, 0)
	b.raw(opCall, fnHostHash, opLocalTee, 1)
	b.const32(0)
	b.u8(opI32LeS)
	b.raw(opIf, blockEmpty)
	b.const32(0)
	b.u8(opReturn)
	b.u8(opEnd)
	b.raw(opLocalGet, 1, opGlobalGet, 0)
	b.u8(opI32Add)
	b.const32(0)
	b.raw(opI32Store8, 0x00, 0x00)
	b.raw(opGlobalGet, 0)
	b.u8(opEnd)
	return b.b
}

func verifyBody(host byte, noParams bool) []byte {
	b := body(0)
	if noParams {
		b.const32(0)
	} else {
		b.raw(opLocalGet, 0, opCall, host)
	}
	b.u8(opEnd)
	return b.b
}

// cabi_realloc(old, oldSize, align, newSize) frees when newSize is 0 and
// otherwise allocates fresh memory. Requests are never resized.
func reallocBody() []byte {
	b := body(0)
	b.raw(opLocalGet, 3, opI32Eqz)
	b.raw(opIf, blockEmpty)
	b.raw(opLocalGet, 0, opLocalGet, 1, opCall, fnDealloc)
	b.const32(0)
	b.u8(opReturn)
	b.u8(opEnd)
	b.raw(opLocalGet, 3, opCall, fnAlloc, opEnd)
	return b.b
}
