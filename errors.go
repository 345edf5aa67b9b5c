package multimap

import "errors"

// Construction errors
var (
	ErrInvalidArgument = errors.New("multimap: invalid argument")
)

// Key errors
var (
	ErrNilKey      = errors.New("multimap: key is nil")
	ErrKeyNotFound = errors.New("multimap: key not found")
)

// Iteration errors
var (
	ErrInvalidState           = errors.New("multimap: iterator is not positioned on an element")
	ErrConcurrentModification = errors.New("multimap: collection was modified during iteration")
)
