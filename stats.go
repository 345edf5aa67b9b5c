package multimap

import (
	"fmt"
	"math"
	"strings"
)

// Stats returns statistics for the MultiMap. Just like other map
// methods, this one is thread-safe. Yet it's an O(N) operation,
// so it should be used only for diagnostics or debugging purposes.
func (m *MultiMap[K, V]) Stats() *MapStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &MapStats{
		Buckets:      len(m.buckets),
		Keys:         m.count,
		Values:       m.values,
		TotalGrowths: m.growths,
		Version:      m.version,
		FixedBuckets: m.bucketer != nil,
		MinEntries:   math.MaxInt,
	}
	for i := range m.buckets {
		nentries := len(m.buckets[i].entries)
		if nentries == 0 {
			stats.EmptyBuckets++
		}
		stats.MinEntries = min(stats.MinEntries, nentries)
		stats.MaxEntries = max(stats.MaxEntries, nentries)
	}
	if stats.Buckets > 0 {
		stats.LoadFactor = float64(stats.Keys) / float64(stats.Buckets)
	} else {
		stats.MinEntries = 0
	}
	return stats
}

// MapStats is MultiMap statistics.
//
// Warning: map statistics are intended to be used for diagnostic
// purposes, not for production code. This means that breaking changes
// may be introduced into this struct even between minor releases.
type MapStats struct {
	// Buckets is the number of buckets in the table.
	Buckets int
	// EmptyBuckets is the number of buckets that hold no keys.
	EmptyBuckets int
	// Keys is the number of distinct keys.
	Keys int
	// Values is the number of values across all keys.
	Values int
	// MinEntries is the minimum number of keys in a single bucket.
	MinEntries int
	// MaxEntries is the maximum number of keys in a single bucket,
	// i.e. the longest chain a lookup may walk.
	MaxEntries int
	// LoadFactor is Keys divided by Buckets.
	LoadFactor float64
	// TotalGrowths is the number of times the table doubled.
	TotalGrowths uint32
	// Version is the mutation counter iterators validate against.
	Version uint64
	// FixedBuckets is set when the map was created WithBucketCount.
	FixedBuckets bool
}

// ToString returns string representation of map stats.
func (s *MapStats) ToString() string {
	var sb strings.Builder
	sb.WriteString("MapStats{\n")
	sb.WriteString(fmt.Sprintf("Buckets:      %d\n", s.Buckets))
	sb.WriteString(fmt.Sprintf("EmptyBuckets: %d\n", s.EmptyBuckets))
	sb.WriteString(fmt.Sprintf("Keys:         %d\n", s.Keys))
	sb.WriteString(fmt.Sprintf("Values:       %d\n", s.Values))
	sb.WriteString(fmt.Sprintf("MinEntries:   %d\n", s.MinEntries))
	sb.WriteString(fmt.Sprintf("MaxEntries:   %d\n", s.MaxEntries))
	sb.WriteString(fmt.Sprintf("LoadFactor:   %.3f\n", s.LoadFactor))
	sb.WriteString(fmt.Sprintf("TotalGrowths: %d\n", s.TotalGrowths))
	sb.WriteString(fmt.Sprintf("Version:      %d\n", s.Version))
	sb.WriteString(fmt.Sprintf("FixedBuckets: %t\n", s.FixedBuckets))
	sb.WriteString("}\n")
	return sb.String()
}
