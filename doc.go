// Package multimap implements a concurrent in-memory multimap: every key maps
// to an ordered collection of values.
//
// # Basic Usage
//
//	m, err := multimap.New[string, int]()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = m.Add("x", 1)
//	_ = m.Add("y", 2)
//	_ = m.Add("y", 3)
//
//	values, _ := m.GetValues("y") // [2 3]
//
//	err = m.Range(func(key string, value int) bool {
//	    fmt.Println(key, value)
//	    return true
//	})
//	if errors.Is(err, multimap.ErrConcurrentModification) {
//	    // the map changed underneath the traversal; start again
//	}
//
// # Hashing
//
// Keys are placed with a Comparer. The default hashes with the Go runtime
// hasher; WithHashAlgorithm selects a finalizer (FNV, Murmur, xxHash,
// MurmurHash3) applied to that hash, and NewWithComparer accepts any Comparer,
// e.g. StringComparer for process-independent placement of string keys.
// WithBucketCount pins the bucket count through a BucketComparer and disables
// resizing.
//
// # Package Structure
//
//   - Engine: multimap.go (New, Add, GetValues, RemoveValue, RemoveKey, resize)
//   - Data model: bucket.go (entry, bucket)
//   - Iteration: iterator.go (fail-fast Iterator)
//   - Hashing: hasher.go (Comparer, finalizers), bucket_comparer.go
//   - Configuration: options.go (MapConfig, With* functions)
//   - Diagnostics: stats.go (MapStats), metrics.go (prometheus collector)
package multimap
