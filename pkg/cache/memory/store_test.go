package memory

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/JoaoClaudiano/gittree/pkg/cache"
)

func newTestStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sumEntries(t *testing.T, s *Store) int64 {
	t.Helper()
	entries, err := s.List(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	var sum int64
	for _, e := range entries {
		sum += e.SizeBytes
	}
	return sum
}

func TestPutGetCopiesValue(t *testing.T) {
	s := newTestStore(t, Config{})
	ctx := context.Background()

	value := []byte("payload")
	if err := s.Put(ctx, "k", value); err != nil {
		t.Fatal(err)
	}
	value[0] = 'X'

	got, ok, err := s.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(got) != "payload" {
		t.Errorf("stored value was aliased: %q", got)
	}
	got[0] = 'Y'
	again, _, _ := s.Get(ctx, "k")
	if string(again) != "payload" {
		t.Errorf("returned value was aliased: %q", again)
	}
}

func TestPutOverwrites(t *testing.T) {
	s := newTestStore(t, Config{})
	ctx := context.Background()

	_ = s.Put(ctx, "k", []byte("first value"))
	_ = s.Put(ctx, "k", []byte("2nd"))

	if got := s.CurrentSizeBytes(); got != 8 {
		t.Errorf("CurrentSizeBytes = %d, want 8", got)
	}
	if got := sumEntries(t, s); got != 8 {
		t.Errorf("entry sum = %d, want 8", got)
	}
}

func TestCapacityFailFast(t *testing.T) {
	s := newTestStore(t, Config{CapacityBytes: 30})
	ctx := context.Background()

	_ = s.Put(ctx, "a", []byte("0123456789"))
	_ = s.Put(ctx, "b", []byte("xyz"))
	err := s.Put(ctx, "c", []byte("1"))
	if !errors.Is(err, cache.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	if got := s.CurrentSizeBytes(); got != 30 {
		t.Errorf("CurrentSizeBytes = %d, want 30", got)
	}
}

func TestEntryLimitFailFast(t *testing.T) {
	s := newTestStore(t, Config{MaxEntries: 2})
	ctx := context.Background()

	_ = s.Put(ctx, "a", []byte("1"))
	_ = s.Put(ctx, "b", []byte("2"))
	if err := s.Put(ctx, "a", []byte("3")); err != nil {
		t.Fatalf("overwrite within the entry limit failed: %v", err)
	}
	if err := s.Put(ctx, "c", []byte("4")); !errors.Is(err, cache.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
}

func TestLRUEviction(t *testing.T) {
	s := newTestStore(t, Config{CapacityBytes: 30, Eviction: cache.EvictLRU})
	ctx := context.Background()

	_ = s.Put(ctx, "a", []byte("0123456789"))
	_ = s.Put(ctx, "b", []byte("xyz"))
	s.Get(ctx, "a")

	if err := s.Put(ctx, "c", []byte("1")); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(ctx, "b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok, _ := s.Get(ctx, "a"); !ok {
		t.Error("expected a to survive")
	}
	if got := s.CurrentSizeBytes(); got != 26 {
		t.Errorf("CurrentSizeBytes = %d, want 26", got)
	}
}

func TestLRUEntryLimit(t *testing.T) {
	s := newTestStore(t, Config{MaxEntries: 2, Eviction: cache.EvictLRU})
	ctx := context.Background()

	_ = s.Put(ctx, "a", []byte("1"))
	_ = s.Put(ctx, "b", []byte("2"))
	_ = s.Put(ctx, "c", []byte("3"))

	if _, ok, _ := s.Get(ctx, "a"); ok {
		t.Error("expected a to be evicted")
	}
	if got, want := s.CurrentSizeBytes(), int64(8); got != want {
		t.Errorf("CurrentSizeBytes = %d, want %d", got, want)
	}
}

func TestClearResetsTotal(t *testing.T) {
	s := newTestStore(t, Config{})
	ctx := context.Background()

	_ = s.Put(ctx, "a", []byte("1"))
	_ = s.Put(ctx, "b", []byte("2"))
	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if got := s.CurrentSizeBytes(); got != 0 {
		t.Errorf("CurrentSizeBytes = %d after clear", got)
	}
	stats, _ := s.Stats(ctx)
	if stats.Entries != 0 {
		t.Errorf("expected 0 entries, got %d", stats.Entries)
	}
}

func TestRunningTotalMatchesEntriesUnderRandomOps(t *testing.T) {
	for _, eviction := range []cache.Eviction{cache.EvictNone, cache.EvictLRU} {
		t.Run(string(eviction), func(t *testing.T) {
			s := newTestStore(t, Config{MaxEntries: 6, CapacityBytes: 300, Eviction: eviction})
			ctx := context.Background()
			rng := rand.New(rand.NewSource(42))

			for i := 0; i < 500; i++ {
				key := fmt.Sprintf("k%d", rng.Intn(10))
				switch op := rng.Intn(10); {
				case op < 6:
					value := make([]rune, rng.Intn(50))
					for j := range value {
						value[j] = []rune("xü𝄞")[rng.Intn(3)]
					}
					err := s.Put(ctx, key, []byte(string(value)))
					if err != nil && !errors.Is(err, cache.ErrCapacityExceeded) {
						t.Fatal(err)
					}
				case op < 9:
					_ = s.Delete(ctx, key)
				default:
					_ = s.Clear(ctx)
				}
				if got, sum := s.CurrentSizeBytes(), sumEntries(t, s); got != sum {
					t.Fatalf("step %d: running total %d != entry sum %d", i, got, sum)
				}
			}
		})
	}
}

func TestCapacityErrorReportsUsageWithoutReplacedEntry(t *testing.T) {
	s := newTestStore(t, Config{CapacityBytes: 30})
	ctx := context.Background()

	_ = s.Put(ctx, "a", []byte("0123456789"))
	_ = s.Put(ctx, "b", []byte("xyz"))

	err := s.Put(ctx, "b", []byte("0123456789"))
	if !errors.Is(err, cache.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	if !strings.Contains(err.Error(), "22 of 30 in use") {
		t.Errorf("error should count only the entries that stay: %v", err)
	}
	if got := s.CurrentSizeBytes(); got != 30 {
		t.Errorf("CurrentSizeBytes = %d, want 30", got)
	}
	if data, _, _ := s.Get(ctx, "b"); string(data) != "xyz" {
		t.Errorf("rejected overwrite replaced the entry: %q", data)
	}
}
