package multimap

type iteratorState uint8

const (
	iterNotStarted iteratorState = iota
	iterPositioned
	iterExhausted
)

// Iterator walks a MultiMap bucket by bucket, entry by entry and value by
// value, yielding one (key, value) pair per step.
//
// It holds positions only, never references into the table, and re-checks the
// map version under the read lock on every call. Once the map has been
// mutated since the iterator was created, Next, Current and Reset all return
// ErrConcurrentModification; the caller has to start over with a new
// Iterator.
//
// Iteration order is unspecified and changes after a resize. Each Iterator
// has its own position; several may run over the same map concurrently, but
// a single Iterator must not be shared between goroutines.
type Iterator[K comparable, V any] struct {
	m       *MultiMap[K, V]
	version uint64
	state   iteratorState

	bucketIdx int
	entryIdx  int
	valueIdx  int

	key   K
	value V
}

func newIterator[K comparable, V any](m *MultiMap[K, V]) *Iterator[K, V] {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it := &Iterator[K, V]{m: m, version: m.version}
	it.rewind()
	return it
}

func (it *Iterator[K, V]) rewind() {
	var (
		zeroK K
		zeroV V
	)
	it.state = iterNotStarted
	it.bucketIdx, it.entryIdx, it.valueIdx = -1, -1, -1
	it.key, it.value = zeroK, zeroV
}

// checkVersion must be called with the read lock held.
func (it *Iterator[K, V]) checkVersion() error {
	if it.version != it.m.version {
		return ErrConcurrentModification
	}
	return nil
}

// Next advances to the next pair. It returns false once the map is exhausted.
func (it *Iterator[K, V]) Next() (bool, error) {
	it.m.mu.RLock()
	defer it.m.mu.RUnlock()

	if err := it.checkVersion(); err != nil {
		return false, err
	}
	if it.state == iterExhausted {
		return false, nil
	}

	buckets := it.m.buckets
	if it.state == iterPositioned {
		entries := buckets[it.bucketIdx].entries

		// more values under the current key
		if it.valueIdx+1 < len(entries[it.entryIdx].values) {
			it.valueIdx++
			it.load(&entries[it.entryIdx])
			return true, nil
		}

		// next key in the same bucket
		for it.entryIdx+1 < len(entries) {
			it.entryIdx++
			if e := &entries[it.entryIdx]; len(e.values) > 0 {
				it.valueIdx = 0
				it.load(e)
				return true, nil
			}
		}
	}

	// first key of the next non-empty bucket
	for it.bucketIdx+1 < len(buckets) {
		it.bucketIdx++
		entries := buckets[it.bucketIdx].entries
		for j := range entries {
			if len(entries[j].values) > 0 {
				it.entryIdx, it.valueIdx = j, 0
				it.state = iterPositioned
				it.load(&entries[j])
				return true, nil
			}
		}
	}

	it.rewind()
	it.state = iterExhausted
	return false, nil
}

func (it *Iterator[K, V]) load(e *entry[K, V]) {
	it.key, it.value = e.key, e.values[it.valueIdx]
}

// Current returns the pair at the current position. It returns
// ErrInvalidState before the first successful Next and after Next has
// reported exhaustion.
func (it *Iterator[K, V]) Current() (key K, value V, err error) {
	it.m.mu.RLock()
	defer it.m.mu.RUnlock()

	if err = it.checkVersion(); err != nil {
		return key, value, err
	}
	if it.state != iterPositioned {
		return key, value, ErrInvalidState
	}
	return it.key, it.value, nil
}

// Reset moves the iterator back before the first pair.
func (it *Iterator[K, V]) Reset() error {
	it.m.mu.RLock()
	defer it.m.mu.RUnlock()

	if err := it.checkVersion(); err != nil {
		return err
	}
	it.rewind()
	return nil
}
