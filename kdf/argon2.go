package kdf

import (
	"encoding/binary"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/wippyai/argon2-bridge/schema"
)

const syncPoints = 4

// Argon2 type identifiers as hashed into H0 and the address blocks.
const (
	typeArgon2d  = 0
	typeArgon2i  = 1
	typeArgon2id = 2
)

func variantType(v schema.Variant) uint32 {
	switch v {
	case schema.Argon2d:
		return typeArgon2d
	case schema.Argon2id:
		return typeArgon2id
	}
	return typeArgon2i
}

// deriveKey runs Argon2 over cfg. cfg must have passed validate.
func deriveKey(password, salt []byte, cfg *Config) []byte {
	lanes := cfg.Lanes
	h0 := initHash(password, salt, cfg)

	memory := cfg.MemoryCost / (syncPoints * lanes) * (syncPoints * lanes)
	if memory < 2*syncPoints*lanes {
		memory = 2 * syncPoints * lanes
	}

	B := initBlocks(&h0, memory, lanes)
	processBlocks(B, memory, cfg)
	return extractKey(B, memory, lanes, cfg.HashLength)
}

func initHash(password, salt []byte, cfg *Config) [blake2b.Size + 8]byte {
	var (
		h0     [blake2b.Size + 8]byte
		params [24]byte
		tmp    [4]byte
	)

	b2, _ := blake2b.New512(nil)
	binary.LittleEndian.PutUint32(params[0:4], cfg.Lanes)
	binary.LittleEndian.PutUint32(params[4:8], cfg.HashLength)
	binary.LittleEndian.PutUint32(params[8:12], cfg.MemoryCost)
	binary.LittleEndian.PutUint32(params[12:16], cfg.TimeCost)
	binary.LittleEndian.PutUint32(params[16:20], uint32(cfg.Version))
	binary.LittleEndian.PutUint32(params[20:24], variantType(cfg.Variant))
	b2.Write(params[:])
	for _, field := range [][]byte{password, salt, cfg.Secret, cfg.AssociatedData} {
		binary.LittleEndian.PutUint32(tmp[:], uint32(len(field)))
		b2.Write(tmp[:])
		b2.Write(field)
	}
	b2.Sum(h0[:0])
	return h0
}

func initBlocks(h0 *[blake2b.Size + 8]byte, memory, lanes uint32) []block {
	var block0 [1024]byte
	B := make([]block, memory)
	for lane := uint32(0); lane < lanes; lane++ {
		j := lane * (memory / lanes)
		binary.LittleEndian.PutUint32(h0[blake2b.Size+4:], lane)

		for i := uint32(0); i < 2; i++ {
			binary.LittleEndian.PutUint32(h0[blake2b.Size:], i)
			blake2bLong(block0[:], h0[:])
			for k := range B[j+i] {
				B[j+i][k] = binary.LittleEndian.Uint64(block0[k*8:])
			}
		}
	}
	return B
}

func processBlocks(B []block, memory uint32, cfg *Config) {
	lanes := cfg.Lanes
	laneLength := memory / lanes
	segmentLength := laneLength / syncPoints
	mode := variantType(cfg.Variant)
	overwrite := cfg.Version == schema.Version10

	processSegment := func(n, slice, lane uint32) {
		var addresses, in, zero block
		independent := mode == typeArgon2i || (mode == typeArgon2id && n == 0 && slice < syncPoints/2)
		if independent {
			in[0] = uint64(n)
			in[1] = uint64(lane)
			in[2] = uint64(slice)
			in[3] = uint64(memory)
			in[4] = uint64(cfg.TimeCost)
			in[5] = uint64(mode)
		}

		index := uint32(0)
		if n == 0 && slice == 0 {
			index = 2 // the first two blocks of each lane come from H0
			if independent {
				in[6]++
				processBlock(&addresses, &in, &zero)
				processBlock(&addresses, &addresses, &zero)
			}
		}

		offset := lane*laneLength + slice*segmentLength + index
		for index < segmentLength {
			prev := offset - 1
			if index == 0 && slice == 0 {
				prev += laneLength
			}

			var random uint64
			if independent {
				if index%blockWords == 0 {
					in[6]++
					processBlock(&addresses, &in, &zero)
					processBlock(&addresses, &addresses, &zero)
				}
				random = addresses[index%blockWords]
			} else {
				random = B[prev][0]
			}

			ref := indexAlpha(random, laneLength, segmentLength, lanes, n, slice, lane, index)
			if overwrite || n == 0 {
				processBlock(&B[offset], &B[prev], &B[ref])
			} else {
				processBlockXOR(&B[offset], &B[prev], &B[ref])
			}
			index, offset = index+1, offset+1
		}
	}

	for n := uint32(0); n < cfg.TimeCost; n++ {
		for slice := uint32(0); slice < syncPoints; slice++ {
			if cfg.ThreadMode == schema.Parallel && lanes > 1 {
				var wg sync.WaitGroup
				for lane := uint32(0); lane < lanes; lane++ {
					wg.Add(1)
					go func(lane uint32) {
						defer wg.Done()
						processSegment(n, slice, lane)
					}(lane)
				}
				wg.Wait()
				continue
			}
			for lane := uint32(0); lane < lanes; lane++ {
				processSegment(n, slice, lane)
			}
		}
	}
}

func extractKey(B []block, memory, lanes, keyLen uint32) []byte {
	laneLength := memory / lanes
	final := B[memory-1]
	for lane := uint32(0); lane < lanes-1; lane++ {
		for i, v := range B[lane*laneLength+laneLength-1] {
			final[i] ^= v
		}
	}

	var out [1024]byte
	for i, v := range final {
		binary.LittleEndian.PutUint64(out[i*8:], v)
	}
	key := make([]byte, keyLen)
	blake2bLong(key, out[:])
	return key
}

func indexAlpha(rand uint64, laneLength, segmentLength, lanes, n, slice, lane, index uint32) uint32 {
	refLane := uint32(rand>>32) % lanes
	if n == 0 && slice == 0 {
		refLane = lane
	}
	m, s := 3*segmentLength, ((slice+1)%syncPoints)*segmentLength
	if lane == refLane {
		m += index
	}
	if n == 0 {
		m, s = slice*segmentLength, 0
		if slice == 0 || lane == refLane {
			m += index
		}
	}
	if index == 0 || lane == refLane {
		m--
	}
	return phi(rand, uint64(m), uint64(s), refLane, laneLength)
}

func phi(rand, m, s uint64, lane, laneLength uint32) uint32 {
	p := rand & 0xFFFFFFFF
	p = (p * p) >> 32
	p = (p * m) >> 32
	return lane*laneLength + uint32((s+m-(p+1))%uint64(laneLength))
}
