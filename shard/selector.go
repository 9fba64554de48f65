package shard

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

/*
This file decides HOW a key is assigned to a shard.

The assignment must be stable for the whole life of the process: a key written to shard 3
must be found in shard 3 by every later lookup. So the hash is deterministic and depends on
the key only, no per-process random seed.
*/

// ErrInvalidShardCount is returned when a store is built with fewer than one shard.
var ErrInvalidShardCount = errors.New("kvstore: shard count must be positive")

// Selector maps a key to a shard index in [0, n).
type Selector interface {
	Select(key string) int
}

// FNV-1a 32-bit parameters.
const (
	offset32 = 2166136261
	prime32  = 16777619
)

/*
Hash computes the FNV-1a hash of key.

Starting from a fixed offset, each byte is xor-ed in and the result multiplied by a fixed
prime. Same output as hash/fnv.New32a, without allocating for the []byte conversion.
*/
func Hash(key string) uint32 {
	h := uint32(offset32)
	for i := 0; i < len(key); i++ {
		h ^= uint32(key[i])
		h *= prime32
	}
	return h
}

// MaskSelector selects with a bit mask. Only valid for power-of-two shard counts.
type MaskSelector struct {
	mask uint32
}

func (m MaskSelector) Select(key string) int {
	return int(Hash(key) & m.mask)
}

// ModuloSelector selects with a modulo. Works for any positive shard count.
type ModuloSelector struct {
	n uint32
}

func (m ModuloSelector) Select(key string) int {
	return int(Hash(key) % m.n)
}

/*
NewSelector returns the selector for n shards.

Power-of-two counts get a MaskSelector, every other positive count a ModuloSelector.
Both compute hash mod n, so the choice only changes the cost, never the placement.
*/
func NewSelector(n int) (Selector, error) {
	if n <= 0 || uint64(n) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidShardCount, n)
	}
	if IsPowerOfTwo(n) {
		return MaskSelector{mask: uint32(n - 1)}, nil
	}
	return ModuloSelector{n: uint32(n)}, nil
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// NextPowerOfTwo rounds n up to a power of two. n < 1 yields 1.
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
