package kdf

// block is one 1 KiB Argon2 memory block.
type block [blockWords]uint64

const blockWords = 128

func processBlock(out, in1, in2 *block) {
	processBlockGeneric(out, in1, in2, false)
}

func processBlockXOR(out, in1, in2 *block) {
	processBlockGeneric(out, in1, in2, true)
}

// processBlockGeneric computes the compression function G(in1, in2) and
// stores it in out, or XORs it into out.
func processBlockGeneric(out, in1, in2 *block, xor bool) {
	var t block
	for i := range t {
		t[i] = in1[i] ^ in2[i]
	}
	r := t

	var v [16]uint64
	// rows: 8 groups of 16 consecutive words
	for i := 0; i < blockWords; i += 16 {
		copy(v[:], t[i:i+16])
		blamka(&v)
		copy(t[i:i+16], v[:])
	}
	// columns: 8 groups of 2-word pairs, one pair per row
	for i := 0; i < 16; i += 2 {
		for j := 0; j < 8; j++ {
			v[2*j] = t[16*j+i]
			v[2*j+1] = t[16*j+i+1]
		}
		blamka(&v)
		for j := 0; j < 8; j++ {
			t[16*j+i] = v[2*j]
			t[16*j+i+1] = v[2*j+1]
		}
	}

	if xor {
		for i := range t {
			out[i] ^= r[i] ^ t[i]
		}
	} else {
		for i := range t {
			out[i] = r[i] ^ t[i]
		}
	}
}

// blamka is the BLAKE2b round with the multiplication-hardened G function.
func blamka(v *[16]uint64) {
	g(&v[0], &v[4], &v[8], &v[12])
	g(&v[1], &v[5], &v[9], &v[13])
	g(&v[2], &v[6], &v[10], &v[14])
	g(&v[3], &v[7], &v[11], &v[15])

	g(&v[0], &v[5], &v[10], &v[15])
	g(&v[1], &v[6], &v[11], &v[12])
	g(&v[2], &v[7], &v[8], &v[13])
	g(&v[3], &v[4], &v[9], &v[14])
}

func fBlaMka(x, y uint64) uint64 {
	return x + y + 2*uint64(uint32(x))*uint64(uint32(y))
}

func g(a, b, c, d *uint64) {
	*a = fBlaMka(*a, *b)
	*d = rotr(*d^*a, 32)
	*c = fBlaMka(*c, *d)
	*b = rotr(*b^*c, 24)

	*a = fBlaMka(*a, *b)
	*d = rotr(*d^*a, 16)
	*c = fBlaMka(*c, *d)
	*b = rotr(*b^*c, 63)
}

func rotr(x uint64, n uint) uint64 {
	return x>>n | x<<(64-n)
}
