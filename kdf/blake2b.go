package kdf

import (
	"encoding/binary"
	"hash"

	"golang.org/x/crypto/blake2b"
)

// blake2bLong is the variable-length hash H' of RFC 9106.
// It fills out completely.
func blake2bLong(out []byte, in []byte) {
	var b2 hash.Hash
	if n := len(out); n < blake2b.Size {
		b2, _ = blake2b.New(n, nil)
	} else {
		b2, _ = blake2b.New512(nil)
	}

	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(len(out)))
	b2.Write(prefix[:])
	b2.Write(in)

	if len(out) <= blake2b.Size {
		b2.Sum(out[:0])
		return
	}

	// V1 = H(len || in); emit 32 bytes of each 64-byte block, then the
	// remainder from a final block of exactly the remaining length.
	var v [blake2b.Size]byte
	b2.Sum(v[:0])
	copied := copy(out, v[:32])
	for len(out)-copied > blake2b.Size {
		h, _ := blake2b.New512(nil)
		h.Write(v[:])
		h.Sum(v[:0])
		copied += copy(out[copied:], v[:32])
	}
	h, _ := blake2b.New(len(out)-copied, nil)
	h.Write(v[:])
	h.Sum(out[copied:copied])
}
