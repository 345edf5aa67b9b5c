package multimap

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"unsafe"

	"github.com/rs/zerolog"
)

// loadFactorThreshold is the distinct-key to bucket ratio at which Add
// doubles the table before inserting.
const loadFactorThreshold = 0.75

// MultiMap associates each key with an ordered collection of values.
//
// All state (the bucket table, the key and value counters and the mutation
// version) sits behind a single RWMutex. Mutations take the write lock for the
// duration of one call; lookups and iterator steps take the read lock, so any
// number of readers and iterators proceed together while no writer is active.
//
// Every mutation that could invalidate a traversal bumps the version. An
// Iterator captures the version when it is created and fails with
// ErrConcurrentModification on its next step once the version moves.
//
// The table grows by doubling whenever Add finds the load factor at or above
// 0.75; it never shrinks. With WithBucketCount the bucket count is fixed and
// the table never resizes.
//
// A MultiMap must not be copied after first use.
type MultiMap[K comparable, V any] struct {
	//lint:ignore U1000 prevents false sharing
	pad [(CacheLineSize - unsafe.Sizeof(struct {
		mu       sync.RWMutex
		buckets  []unsafe.Pointer
		count    int
		values   int
		version  uint64
		growths  uint32
		policy   ValuePolicy
		keys     any
		bucketer unsafe.Pointer
		valEqual func()
		isNil    func()
		logger   zerolog.Logger
	}{})%CacheLineSize) % CacheLineSize]byte

	mu       sync.RWMutex
	buckets  []bucket[K, V]
	count    int // distinct keys
	values   int // values across all keys
	version  uint64
	growths  uint32
	policy   ValuePolicy
	keys     Comparer[K]
	bucketer *BucketComparer[K] // WithBucketCount
	valEqual func(a, b V) bool
	isNil    func(key K) bool
	logger   zerolog.Logger
}

// New creates a MultiMap hashing keys with the configured HashAlgorithm
// (natural by default) and comparing values with ==, falling back to
// reflect.DeepEqual for value types that are not comparable.
//
// Parameters:
//   - WithCapacity option for the initial bucket count (default 64)
//   - WithHashAlgorithm option to select a hash finalizer
//   - WithBucketCount option to fix the bucket count and disable resizing
//   - WithValuePolicy option to reject duplicate values per key
//   - WithLogger option to receive resize events
func New[K comparable, V any](options ...func(*MapConfig)) (*MultiMap[K, V], error) {
	return NewWithComparer[K, V](nil, nil, options...)
}

// NewWithComparer creates a MultiMap with custom key comparison and value
// equality.
//
// Parameters:
//   - keys: nil selects the comparer for the configured HashAlgorithm
//   - valEqual: nil uses ==, or reflect.DeepEqual when V is not comparable
func NewWithComparer[K comparable, V any](
	keys Comparer[K],
	valEqual func(a, b V) bool,
	options ...func(*MapConfig),
) (*MultiMap[K, V], error) {
	c := defaultMapConfig()
	for _, o := range options {
		o(c)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}

	if keys == nil {
		var err error
		if keys, err = NewComparer[K](c.hashAlgorithm); err != nil {
			return nil, err
		}
	}
	if valEqual == nil {
		valEqual = defaultValueEqual[V]()
	}

	m := &MultiMap[K, V]{
		policy:   c.valuePolicy,
		keys:     keys,
		valEqual: valEqual,
		isNil:    nilKeyFunc[K](),
		logger:   c.logger,
	}

	capacity := c.capacity
	if c.fixedBuckets {
		bc, err := NewBucketComparer(c.bucketCount, keys)
		if err != nil {
			return nil, err
		}
		m.bucketer = bc
		capacity = bc.BucketCount()
	}
	m.buckets = make([]bucket[K, V], capacity)
	return m, nil
}

func defaultValueEqual[V any]() func(a, b V) bool {
	t := reflect.TypeFor[V]()
	if t.Kind() != reflect.Interface && t.Comparable() {
		return func(a, b V) bool { return any(a) == any(b) }
	}
	return func(a, b V) bool { return reflect.DeepEqual(a, b) }
}

func (m *MultiMap[K, V]) checkKey(key K) error {
	if m.isNil != nil && m.isNil(key) {
		return ErrNilKey
	}
	return nil
}

// bucketIndex must be called with the lock held.
func (m *MultiMap[K, V]) bucketIndex(key K) int {
	if m.bucketer != nil {
		return m.bucketer.BucketIndex(key)
	}
	return int(m.keys.Hash(key) % uint64(len(m.buckets)))
}

// lookup returns the bucket for key and the entry index within it, or -1.
func (m *MultiMap[K, V]) lookup(key K) (*bucket[K, V], int) {
	b := &m.buckets[m.bucketIndex(key)]
	return b, b.find(key, m.keys.Equal)
}

func (m *MultiMap[K, V]) findEntry(key K) *entry[K, V] {
	b, i := m.lookup(key)
	if i < 0 {
		return nil
	}
	return &b.entries[i]
}

// Add appends value to the values stored under key, creating the key if it is
// absent. Under ValuesSet an already-present value is left alone and the map
// is not modified.
func (m *MultiMap[K, V]) Add(key K, value V) error {
	if err := m.checkKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.growIfNeeded()
	m.insert(key, value)
	return nil
}

// AddAll adds each of values under key as if by repeated Add, under a single
// lock acquisition.
func (m *MultiMap[K, V]) AddAll(key K, values ...V) error {
	if err := m.checkKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range values {
		m.growIfNeeded()
		m.insert(key, v)
	}
	return nil
}

// insert must be called with the write lock held.
func (m *MultiMap[K, V]) insert(key K, value V) bool {
	b, i := m.lookup(key)
	if i < 0 {
		b.entries = append(b.entries, entry[K, V]{key: key, values: []V{value}})
		m.count++
		m.values++
		m.version++
		return true
	}

	e := &b.entries[i]
	if m.policy == ValuesSet && e.indexOf(value, m.valEqual) >= 0 {
		return false
	}
	e.values = append(e.values, value)
	m.values++
	m.version++
	return true
}

func (m *MultiMap[K, V]) growIfNeeded() {
	if m.bucketer != nil {
		return
	}
	if float64(m.count)/float64(len(m.buckets)) >= loadFactorThreshold {
		m.resize(len(m.buckets) * 2)
	}
}

// resize swaps in an empty table of newCapacity buckets and re-inserts every
// (key, value) pair through the normal insertion path. The caller holds the
// write lock, so no reader sees a partially filled table.
func (m *MultiMap[K, V]) resize(newCapacity int) {
	old := m.buckets
	m.buckets = make([]bucket[K, V], newCapacity)
	m.count, m.values = 0, 0
	m.version++
	m.growths++

	for i := range old {
		for j := range old[i].entries {
			e := &old[i].entries[j]
			for _, v := range e.values {
				m.insert(e.key, v)
			}
		}
	}

	m.logger.Debug().
		Int("old_capacity", len(old)).
		Int("new_capacity", newCapacity).
		Int("keys", m.count).
		Uint32("growths", m.growths).
		Msg("multimap resized")
}

// GetValues returns a copy of the values stored under key, or an empty slice
// when the key is absent.
func (m *MultiMap[K, V]) GetValues(key K) ([]V, error) {
	if err := m.checkKey(key); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if e := m.findEntry(key); e != nil {
		return slices.Clone(e.values), nil
	}
	return []V{}, nil
}

// Get returns a copy of the values stored under key, or ErrKeyNotFound.
func (m *MultiMap[K, V]) Get(key K) ([]V, error) {
	values, ok, err := m.Load(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrKeyNotFound, key)
	}
	return values, nil
}

// Load returns a copy of the values stored under key and whether the key is
// present.
func (m *MultiMap[K, V]) Load(key K) (values []V, ok bool, err error) {
	if err := m.checkKey(key); err != nil {
		return nil, false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if e := m.findEntry(key); e != nil {
		return slices.Clone(e.values), true, nil
	}
	return nil, false, nil
}

// ContainsKey reports whether key has at least one value.
func (m *MultiMap[K, V]) ContainsKey(key K) (bool, error) {
	if err := m.checkKey(key); err != nil {
		return false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.findEntry(key) != nil, nil
}

// ContainsValue reports whether value is stored under key.
func (m *MultiMap[K, V]) ContainsValue(key K, value V) (bool, error) {
	if err := m.checkKey(key); err != nil {
		return false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	e := m.findEntry(key)
	return e != nil && e.indexOf(value, m.valEqual) >= 0, nil
}

// RemoveValue removes one occurrence of value from the values stored under
// key. The key itself is removed once its last value is gone.
// It reports whether a value was removed.
func (m *MultiMap[K, V]) RemoveValue(key K, value V) (bool, error) {
	if err := m.checkKey(key); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	b, i := m.lookup(key)
	if i < 0 {
		return false, nil
	}
	e := &b.entries[i]
	if !e.removeValue(value, m.valEqual) {
		return false, nil
	}
	m.values--
	m.version++
	if len(e.values) == 0 {
		b.unlink(i)
		m.count--
	}
	return true, nil
}

// RemoveKey removes key and all of its values.
// It reports whether the key was present.
func (m *MultiMap[K, V]) RemoveKey(key K) (bool, error) {
	if err := m.checkKey(key); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	b, i := m.lookup(key)
	if i < 0 {
		return false, nil
	}
	m.values -= len(b.entries[i].values)
	b.unlink(i)
	m.count--
	m.version++
	return true, nil
}

// Clear removes every key. The bucket table keeps its current capacity.
func (m *MultiMap[K, V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.count == 0 {
		return
	}
	keys := m.count
	m.buckets = make([]bucket[K, V], len(m.buckets))
	m.count, m.values = 0, 0
	m.version++

	m.logger.Debug().
		Int("capacity", len(m.buckets)).
		Int("keys", keys).
		Msg("multimap cleared")
}

// Count returns the number of distinct keys.
func (m *MultiMap[K, V]) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.count
}

// Len returns the number of values across all keys.
func (m *MultiMap[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values
}

// Capacity returns the current number of buckets.
func (m *MultiMap[K, V]) Capacity() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.buckets)
}

// Keys returns a snapshot of the distinct keys in unspecified order.
func (m *MultiMap[K, V]) Keys() []K {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]K, 0, m.count)
	for i := range m.buckets {
		for j := range m.buckets[i].entries {
			keys = append(keys, m.buckets[i].entries[j].key)
		}
	}
	return keys
}

// ToMap collects all keys into a map[K][]V. The value slices are copies.
func (m *MultiMap[K, V]) ToMap() map[K][]V {
	return m.toMapWithLimit(-1)
}

// toMapWithLimit collects up to limit keys, limit < 0 is no limit.
func (m *MultiMap[K, V]) toMapWithLimit(limit int) map[K][]V {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit < 0 || limit > m.count {
		limit = m.count
	}
	a := make(map[K][]V, limit)
	for i := range m.buckets {
		for j := range m.buckets[i].entries {
			if len(a) >= limit {
				return a
			}
			e := &m.buckets[i].entries[j]
			a[e.key] = slices.Clone(e.values)
		}
	}
	return a
}

// EntryOf is a single (key, value) pair.
type EntryOf[K comparable, V any] struct {
	Key   K
	Value V
}

// Pairs returns a snapshot of every (key, value) pair in unspecified order.
func (m *MultiMap[K, V]) Pairs() []EntryOf[K, V] {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pairs := make([]EntryOf[K, V], 0, m.values)
	for i := range m.buckets {
		for j := range m.buckets[i].entries {
			e := &m.buckets[i].entries[j]
			for _, v := range e.values {
				pairs = append(pairs, EntryOf[K, V]{Key: e.key, Value: v})
			}
		}
	}
	return pairs
}

// Iterator returns a fail-fast iterator positioned before the first pair.
func (m *MultiMap[K, V]) Iterator() *Iterator[K, V] {
	return newIterator(m)
}

// Range calls yield for every (key, value) pair until yield returns false.
// yield runs without the lock held and may call back into the map, but any
// mutation ends the traversal with ErrConcurrentModification.
func (m *MultiMap[K, V]) Range(yield func(key K, value V) bool) error {
	it := m.Iterator()
	for {
		ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		k, v, err := it.Current()
		if err != nil {
			return err
		}
		if !yield(k, v) {
			return nil
		}
	}
}

// String implement the formatting output interface fmt.Stringer
func (m *MultiMap[K, V]) String() string {
	const limit = 1024
	return strings.Replace(fmt.Sprint(m.toMapWithLimit(limit)), "map[", "MultiMap[", 1)
}
