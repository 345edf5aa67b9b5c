package multimap

import "slices"

// entry holds one distinct key and the values added under it.
// A live entry always has at least one value.
type entry[K comparable, V any] struct {
	key    K
	values []V
}

// bucket owns the entries whose keys map to its slot. Entries are kept in a
// slice rather than a linked chain, so unlinking is a slice delete.
type bucket[K comparable, V any] struct {
	entries []entry[K, V]
}

// find returns the index of the entry for key, or -1.
func (b *bucket[K, V]) find(key K, equal func(a, b K) bool) int {
	for i := range b.entries {
		if equal(b.entries[i].key, key) {
			return i
		}
	}
	return -1
}

func (b *bucket[K, V]) unlink(i int) {
	b.entries = slices.Delete(b.entries, i, i+1)
	if len(b.entries) == 0 {
		b.entries = nil
	}
}

func (e *entry[K, V]) indexOf(value V, equal func(a, b V) bool) int {
	return slices.IndexFunc(e.values, func(v V) bool { return equal(v, value) })
}

// removeValue removes the first occurrence of value.
func (e *entry[K, V]) removeValue(value V, equal func(a, b V) bool) bool {
	i := e.indexOf(value, equal)
	if i < 0 {
		return false
	}
	e.values = slices.Delete(e.values, i, i+1)
	return true
}
