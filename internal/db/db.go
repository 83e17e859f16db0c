package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // consumers depend on the narrow sub-interfaces
type Store interface {
	Pinger
	JSONStore
	HashStore
	SortedSetStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JSONStore provides JSON document operations.
type JSONStore interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	// JSONMGet returns one entry per key, nil for keys that do not exist.
	JSONMGet(ctx context.Context, keys []string, path string) ([][]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
}

// SortedSetItem is a single member of a lexicographically ordered set.
type SortedSetItem struct {
	Key    string
	Member string
}

// LexRange is one ZRANGE BYLEX request. Min and Max use the Redis
// lexicographic bound syntax ("[a", "(a", "-", "+").
type LexRange struct {
	Key    string
	Min    string
	Max    string
	Rev    bool
	Offset int
	Count  int // <= 0 means unbounded
}

// SortedSetStore provides ordered-index operations used for view rows.
type SortedSetStore interface {
	ZAddMulti(ctx context.Context, items []SortedSetItem) error
	ZRemMulti(ctx context.Context, items []SortedSetItem) error
	// ZRangeByLexMulti runs every range in a single round-trip; results keep input order.
	ZRangeByLexMulti(ctx context.Context, ranges []LexRange) ([][]string, error)
}
