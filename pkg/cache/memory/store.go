// Package memory implements cache.Store in process memory on top of
// hashicorp/golang-lru. It is used for tests and cache-less sessions.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/JoaoClaudiano/gittree/pkg/cache"
	"github.com/JoaoClaudiano/gittree/pkg/models"
)

const defaultMaxEntries = 1024

// Config configures a Store.
type Config struct {
	MaxEntries    int
	CapacityBytes int64 // 0 means unbounded
	Eviction      cache.Eviction
}

type entry struct {
	value     []byte
	size      int64
	createdAt time.Time
}

// Store is an in-memory cache.Store bounded by entry count and bytes.
type Store struct {
	mu         sync.Mutex
	items      *lru.Cache[string, entry]
	maxEntries int
	capacity   int64
	eviction   cache.Eviction
	total      int64

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates an empty Store.
func New(cfg Config) (*Store, error) {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = defaultMaxEntries
	}
	if cfg.Eviction == "" {
		cfg.Eviction = cache.EvictNone
	}
	items, err := lru.New[string, entry](cfg.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("init memory cache: %w", err)
	}
	return &Store{
		items:      items,
		maxEntries: cfg.MaxEntries,
		capacity:   cfg.CapacityBytes,
		eviction:   cfg.Eviction,
	}, nil
}

// Put stores value under key. See cache.Store.
func (s *Store) Put(_ context.Context, key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("cache put: key is required")
	}
	size := cache.EntrySize(key, value)

	s.mu.Lock()
	defer s.mu.Unlock()

	old, replacing := s.items.Peek(key)
	total := s.total
	if replacing {
		total -= old.size
	}
	overBytes := s.capacity > 0 && total+size > s.capacity
	overCount := !replacing && s.items.Len() >= s.maxEntries

	if overBytes || overCount {
		if s.eviction != cache.EvictLRU || (s.capacity > 0 && size > s.capacity) {
			if overBytes {
				return cache.CapacityError(key, size, total, s.capacity)
			}
			return fmt.Errorf("%w: %d entries in use", cache.ErrCapacityExceeded, s.maxEntries)
		}
		if replacing {
			s.items.Remove(key)
			s.total -= old.size
			replacing = false
		}
		for s.items.Len() > 0 &&
			((s.capacity > 0 && s.total+size > s.capacity) || s.items.Len() >= s.maxEntries) {
			_, victim, ok := s.items.RemoveOldest()
			if !ok {
				break
			}
			s.total -= victim.size
		}
	}

	s.items.Add(key, entry{
		value:     append([]byte(nil), value...),
		size:      size,
		createdAt: time.Now().UTC(),
	})
	if replacing {
		s.total -= old.size
	}
	s.total += size
	return nil
}

// Get returns a copy of the stored value. See cache.Store.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.items.Get(key)
	if !ok {
		s.misses.Add(1)
		return nil, false, nil
	}
	s.hits.Add(1)
	return append([]byte(nil), ent.value...), true, nil
}

// Delete removes key. See cache.Store.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.items.Peek(key); ok {
		s.items.Remove(key)
		s.total -= ent.size
	}
	return nil
}

// Clear removes every entry. See cache.Store.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items.Purge()
	s.total = 0
	return nil
}

// List returns entry metadata for keys with the given prefix.
func (s *Store) List(_ context.Context, prefix string) ([]models.CacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []models.CacheEntry
	for _, k := range s.items.Keys() {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		ent, ok := s.items.Peek(k)
		if !ok {
			continue
		}
		entries = append(entries, models.CacheEntry{Key: k, SizeBytes: ent.size, CreatedAt: ent.createdAt})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// CurrentSizeBytes returns the running total.
func (s *Store) CurrentSizeBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Stats returns cache occupancy and performance metrics.
func (s *Store) Stats(_ context.Context) (models.CacheStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CacheStats{
		Entries:        int64(s.items.Len()),
		Hits:           s.hits.Load(),
		Misses:         s.misses.Load(),
		SizeBytes:      s.total,
		CapacityBytes:  s.capacity,
		RemainingBytes: cache.Remaining(s.capacity, s.total),
		Eviction:       string(s.eviction),
	}, nil
}

// Close drops all entries.
func (s *Store) Close() error {
	return s.Clear(context.Background())
}

var _ cache.Store = (*Store)(nil)
