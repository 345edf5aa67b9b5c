package multimap

import (
	"encoding/binary"
	"fmt"
	"hash/maphash"
	"reflect"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
)

// Comparer supplies key equality and the hash used for bucket placement.
// Two keys that are Equal must produce the same Hash.
type Comparer[K any] interface {
	Equal(a, b K) bool
	Hash(key K) uint64
}

// HashAlgorithm selects how a MultiMap derives bucket hashes from its keys.
type HashAlgorithm int

const (
	// HashNatural uses the Go runtime hash of the key.
	HashNatural HashAlgorithm = iota
	// HashFNV folds the bytes of the natural hash with 32-bit FNV-1a.
	HashFNV
	// HashMurmur mixes the bytes of the natural hash with a Murmur2-style
	// finalizer.
	HashMurmur
	// HashXXHash runs xxHash64 over the bytes of the natural hash.
	HashXXHash
	// HashMurmur3 runs MurmurHash3 (64-bit) over the bytes of the natural hash.
	HashMurmur3
)

// String returns the algorithm name.
func (a HashAlgorithm) String() string {
	switch a {
	case HashNatural:
		return "natural"
	case HashFNV:
		return "fnv"
	case HashMurmur:
		return "murmur"
	case HashXXHash:
		return "xxhash"
	case HashMurmur3:
		return "murmur3"
	default:
		return "unknown"
	}
}

// NewComparer returns the comparer for alg over comparable keys.
// Finalizing algorithms wrap a NaturalComparer, so equality is always Go's ==.
func NewComparer[K comparable](alg HashAlgorithm) (Comparer[K], error) {
	natural := NewNaturalComparer[K]()
	if alg == HashNatural {
		return natural, nil
	}
	c, err := NewFinalizerComparer[K](alg, natural)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// NaturalComparer hashes keys with the Go runtime hasher, the same one the
// builtin map uses. Hashes are stable for the lifetime of the comparer only.
type NaturalComparer[K comparable] struct {
	seed maphash.Seed
}

// NewNaturalComparer creates a NaturalComparer with a random seed.
func NewNaturalComparer[K comparable]() *NaturalComparer[K] {
	return &NaturalComparer[K]{seed: maphash.MakeSeed()}
}

func (c *NaturalComparer[K]) Equal(a, b K) bool { return a == b }

func (c *NaturalComparer[K]) Hash(key K) uint64 {
	return maphash.Comparable(c.seed, key)
}

// StringComparer hashes string keys with xxh3. Unlike NaturalComparer the
// result is identical across processes, which keeps bucket placement
// reproducible.
type StringComparer struct{}

func (StringComparer) Equal(a, b string) bool { return a == b }

func (StringComparer) Hash(key string) uint64 { return xxh3.HashString(key) }

const (
	fnvOffsetBasis32 uint32 = 2166136261
	fnvPrime32       uint32 = 16777619

	murmurSeed uint32 = 0x9747b28c
	murmurM    uint32 = 0x5bd1e995
	murmurR           = 24
)

// FinalizerComparer post-processes the hash produced by an inner comparer.
// The inner hash is decomposed into its 8 little-endian bytes and mixed by the
// selected algorithm. Equality is always delegated to the inner comparer, so a
// finalizer changes bucket distribution but never which keys are equal.
type FinalizerComparer[K comparable] struct {
	alg   HashAlgorithm
	inner Comparer[K]
	mix   func(b []byte) uint64
	isNil func(key K) bool
}

// NewFinalizerComparer wraps inner with the finalizer selected by alg.
func NewFinalizerComparer[K comparable](alg HashAlgorithm, inner Comparer[K]) (*FinalizerComparer[K], error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: inner comparer is nil", ErrInvalidArgument)
	}
	var mix func(b []byte) uint64
	switch alg {
	case HashFNV:
		mix = func(b []byte) uint64 { return uint64(fnvFinalize(b)) }
	case HashMurmur:
		mix = func(b []byte) uint64 { return uint64(murmurFinalize(b)) }
	case HashXXHash:
		mix = xxhash.Sum64
	case HashMurmur3:
		mix = murmur3.Sum64
	default:
		return nil, fmt.Errorf("%w: no finalizer for hash algorithm %q", ErrInvalidArgument, alg)
	}
	return &FinalizerComparer[K]{
		alg:   alg,
		inner: inner,
		mix:   mix,
		isNil: nilKeyFunc[K](),
	}, nil
}

// NewFNVComparer wraps inner with the FNV-1a finalizer.
func NewFNVComparer[K comparable](inner Comparer[K]) (*FinalizerComparer[K], error) {
	return NewFinalizerComparer(HashFNV, inner)
}

// NewMurmurComparer wraps inner with the Murmur-style finalizer.
func NewMurmurComparer[K comparable](inner Comparer[K]) (*FinalizerComparer[K], error) {
	return NewFinalizerComparer(HashMurmur, inner)
}

// Algorithm reports the finalizer in use.
func (c *FinalizerComparer[K]) Algorithm() HashAlgorithm { return c.alg }

func (c *FinalizerComparer[K]) Equal(a, b K) bool { return c.inner.Equal(a, b) }

// Hash returns 0 for a nil key.
func (c *FinalizerComparer[K]) Hash(key K) uint64 {
	if c.isNil != nil && c.isNil(key) {
		return 0
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], c.inner.Hash(key))
	return c.mix(buf[:])
}

func fnvFinalize(b []byte) uint32 {
	h := fnvOffsetBasis32
	for _, c := range b {
		h ^= uint32(c)
		h *= fnvPrime32
	}
	return h
}

func murmurFinalize(b []byte) uint32 {
	h := murmurSeed ^ uint32(len(b))
	for _, c := range b {
		k := uint32(c) * murmurM
		k ^= k >> murmurR
		k *= murmurM

		h *= murmurM
		h ^= k
	}

	h ^= h >> 13
	h *= murmurM
	h ^= h >> 15
	return h
}

// nilKeyFunc returns a predicate reporting whether a key is nil, or nil when
// K has no nil value. For the nillable kinds the zero value is nil, so the
// check is a plain comparison.
func nilKeyFunc[K comparable]() func(key K) bool {
	switch reflect.TypeFor[K]().Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		var zero K
		return func(key K) bool { return key == zero }
	default:
		return nil
	}
}
