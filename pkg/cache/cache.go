// Package cache defines the key/value store that holds serialized
// repository models, and the byte accounting shared by its backends.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/JoaoClaudiano/gittree/pkg/models"
)

// ErrCapacityExceeded is returned when a Put would push the store past its
// configured byte budget.
var ErrCapacityExceeded = errors.New("cache capacity exceeded")

// Store is a size-bounded, key-addressed persistent cache.
type Store interface {
	// Put stores value under key, replacing any previous entry.
	Put(ctx context.Context, key string, value []byte) error
	// Get returns the stored value. A missing key is reported as ok=false, never as an error.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Delete removes one entry. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error
	// Clear removes every entry and resets the running total to zero.
	Clear(ctx context.Context) error
	// List returns entry metadata (without payload) for keys starting with prefix, sorted by key.
	List(ctx context.Context, prefix string) ([]models.CacheEntry, error)
	// CurrentSizeBytes returns the running total of all entry sizes.
	CurrentSizeBytes() int64
	// Stats returns occupancy and hit/miss counters.
	Stats(ctx context.Context) (models.CacheStats, error)
	// Close releases the backing resources.
	Close() error
}

// Eviction selects what a store does when a Put does not fit.
type Eviction string

const (
	// EvictNone fails the Put with ErrCapacityExceeded.
	EvictNone Eviction = "none"
	// EvictLRU drops least-recently-used entries until the new one fits.
	EvictLRU Eviction = "lru"
)

// ParseEviction maps a config value to an Eviction. Empty means EvictNone.
func ParseEviction(s string) (Eviction, error) {
	switch Eviction(strings.ToLower(strings.TrimSpace(s))) {
	case "", EvictNone:
		return EvictNone, nil
	case EvictLRU:
		return EvictLRU, nil
	default:
		return "", fmt.Errorf("unknown eviction policy %q", s)
	}
}

// EntrySize returns the accounted size of an entry: two bytes per UTF-16
// code unit of key and value, the value read as UTF-8 text.
func EntrySize(key string, value []byte) int64 {
	return 2 * (utf16Len(key) + utf16Len(string(value)))
}

func utf16Len(s string) int64 {
	var n int64
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += int64(l)
		} else {
			n++
		}
	}
	return n
}

// Remaining returns the bytes left under capacity; zero capacity means unbounded.
func Remaining(capacity, used int64) int64 {
	if capacity <= 0 {
		return -1
	}
	if used >= capacity {
		return 0
	}
	return capacity - used
}

// CapacityError wraps ErrCapacityExceeded with the sizes involved.
func CapacityError(key string, size, used, capacity int64) error {
	return fmt.Errorf("%w: entry %q needs %d bytes, %d of %d in use", ErrCapacityExceeded, key, size, used, capacity)
}
