package multimap

import "fmt"

// BucketComparer reduces the hash of an inner comparer to an index within a
// fixed number of buckets. It lets a caller decide the bucket count up front,
// independently of a resizing table; a MultiMap configured WithBucketCount
// routes every key through one.
type BucketComparer[K comparable] struct {
	bucketCount int
	inner       Comparer[K]
	isNil       func(key K) bool
}

// NewBucketComparer creates a BucketComparer over inner.
// bucketCount must be positive and inner must be set.
func NewBucketComparer[K comparable](bucketCount int, inner Comparer[K]) (*BucketComparer[K], error) {
	if bucketCount <= 0 {
		return nil, fmt.Errorf("%w: bucket count must be positive, got %d", ErrInvalidArgument, bucketCount)
	}
	if inner == nil {
		return nil, fmt.Errorf("%w: inner comparer is nil", ErrInvalidArgument)
	}
	return &BucketComparer[K]{
		bucketCount: bucketCount,
		inner:       inner,
		isNil:       nilKeyFunc[K](),
	}, nil
}

// NewDefaultBucketComparer creates a BucketComparer over natural hashing.
func NewDefaultBucketComparer[K comparable](bucketCount int) (*BucketComparer[K], error) {
	return NewBucketComparer[K](bucketCount, NewNaturalComparer[K]())
}

func (c *BucketComparer[K]) Equal(a, b K) bool { return c.inner.Equal(a, b) }

// Hash returns the inner hash unchanged.
func (c *BucketComparer[K]) Hash(key K) uint64 { return c.inner.Hash(key) }

// BucketIndex returns the bucket for key in [0, BucketCount).
// Hashes are unsigned, so no sign correction is needed before the modulus.
func (c *BucketComparer[K]) BucketIndex(key K) int {
	if c.isNil != nil && c.isNil(key) {
		return 0
	}
	return int(c.inner.Hash(key) % uint64(c.bucketCount))
}

// BucketCount returns the fixed number of buckets.
func (c *BucketComparer[K]) BucketCount() int { return c.bucketCount }
