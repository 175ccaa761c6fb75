package checksum

import (
	"encoding/binary"
	"fmt"
	"hash"

	"github.com/cespare/xxhash/v2"
	"github.com/dchest/siphash"
	"github.com/spaolacci/murmur3"
)

// Algorithm selects the non-cryptographic hash used by an Accumulator.
type Algorithm string

const (
	SipHash Algorithm = "siphash"
	XXHash  Algorithm = "xxhash"
	Murmur3 Algorithm = "murmur3"
)

// ParseAlgorithm validates an algorithm name. The empty string selects
// SipHash.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch a := Algorithm(name); a {
	case "":
		return SipHash, nil
	case SipHash, XXHash, Murmur3:
		return a, nil
	default:
		return "", fmt.Errorf("unknown hash algorithm %q", name)
	}
}

// Seed is the fixed hash seed. The same seed over the same bytes always
// yields the same checksum.
type Seed [4]uint64

// DefaultSeed is used when a request leaves the seed zero.
var DefaultSeed = Seed{1, 2, 3, 4}

// Accumulator is the running hash state of one walk. It is never reset.
type Accumulator struct {
	h hash.Hash64
}

// NewAccumulator builds a seeded accumulator.
//
// The first seed words key the hash where the algorithm takes a key
// (siphash: words 0 and 1, xxhash: word 0, murmur3: low 32 bits of word 0);
// the remaining words are written into the state before any record.
func NewAccumulator(alg Algorithm, seed Seed) (*Accumulator, error) {
	var (
		h     hash.Hash64
		prime []uint64
	)
	switch alg {
	case SipHash, "":
		key := make([]byte, 16)
		binary.LittleEndian.PutUint64(key[:8], seed[0])
		binary.LittleEndian.PutUint64(key[8:], seed[1])
		h = siphash.New(key)
		prime = seed[2:]
	case XXHash:
		h = xxhash.NewWithSeed(seed[0])
		prime = seed[1:]
	case Murmur3:
		h = murmur3.New64WithSeed(uint32(seed[0]))
		prime = seed[1:]
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", alg)
	}

	var word [8]byte
	for _, s := range prime {
		binary.LittleEndian.PutUint64(word[:], s)
		h.Write(word[:])
	}
	return &Accumulator{h: h}, nil
}

// Write feeds raw bytes into the state.
func (a *Accumulator) Write(p []byte) {
	// hash.Hash never returns an error from Write.
	a.h.Write(p)
}

// Record feeds one record: key bytes, then value bytes.
func (a *Accumulator) Record(key, value []byte) {
	a.h.Write(key)
	a.h.Write(value)
}

// Sum64 returns the checksum of everything written so far.
func (a *Accumulator) Sum64() uint64 {
	return a.h.Sum64()
}
