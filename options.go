package multimap

import (
	"fmt"

	"github.com/rs/zerolog"
)

// DefaultCapacity is the initial number of buckets when WithCapacity is not given.
const DefaultCapacity = 64

// ValuePolicy controls how values collected under a single key behave.
type ValuePolicy int

const (
	// ValuesList keeps every added value in insertion order, duplicates included.
	ValuesList ValuePolicy = iota
	// ValuesSet ignores an Add whose value is already present under the key.
	ValuesSet
)

// String returns the policy name.
func (p ValuePolicy) String() string {
	switch p {
	case ValuesList:
		return "list"
	case ValuesSet:
		return "set"
	default:
		return "unknown"
	}
}

// MapConfig defines configurable MultiMap options.
type MapConfig struct {
	capacity      int
	hashAlgorithm HashAlgorithm
	bucketCount   int
	fixedBuckets  bool
	valuePolicy   ValuePolicy
	logger        zerolog.Logger
}

func defaultMapConfig() *MapConfig {
	return &MapConfig{
		capacity: DefaultCapacity,
		logger:   zerolog.Nop(),
	}
}

func (c *MapConfig) validate() error {
	if c.fixedBuckets && c.bucketCount <= 0 {
		return fmt.Errorf("%w: bucket count must be positive, got %d", ErrInvalidArgument, c.bucketCount)
	}
	switch c.valuePolicy {
	case ValuesList, ValuesSet:
	default:
		return fmt.Errorf("%w: unknown value policy %d", ErrInvalidArgument, int(c.valuePolicy))
	}
	return nil
}

// WithCapacity configures the initial number of buckets. The table only grows
// from there. If capacity is zero or negative, the value is ignored.
func WithCapacity(capacity int) func(*MapConfig) {
	return func(c *MapConfig) {
		if capacity > 0 {
			c.capacity = capacity
		}
	}
}

// WithHashAlgorithm selects the hash strategy used for bucket placement.
// It is ignored by NewWithComparer when an explicit comparer is passed.
func WithHashAlgorithm(alg HashAlgorithm) func(*MapConfig) {
	return func(c *MapConfig) {
		c.hashAlgorithm = alg
	}
}

// WithBucketCount fixes the number of buckets. Keys are placed through a
// BucketComparer and the table never resizes, so chains grow with the key
// count instead.
func WithBucketCount(n int) func(*MapConfig) {
	return func(c *MapConfig) {
		c.bucketCount = n
		c.fixedBuckets = true
	}
}

// WithValuePolicy selects list (default) or set semantics for values.
func WithValuePolicy(p ValuePolicy) func(*MapConfig) {
	return func(c *MapConfig) {
		c.valuePolicy = p
	}
}

// WithLogger sets the logger receiving resize and clear events at debug level.
// Defaults to zerolog.Nop().
func WithLogger(logger zerolog.Logger) func(*MapConfig) {
	return func(c *MapConfig) {
		c.logger = logger
	}
}
