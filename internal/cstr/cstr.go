// Package cstr copies NUL-terminated request buffers handed across a
// foreign boundary.
package cstr

import "unsafe"

// Bytes copies the NUL-terminated buffer at p, terminator included, so the
// result is a complete codec buffer. A nil p yields nil.
func Bytes(p unsafe.Pointer) []byte {
	if p == nil {
		return nil
	}
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return append([]byte(nil), unsafe.Slice((*byte)(p), n+1)...)
}
