package models

import "time"

// CacheEntry is one key/payload pair held by a cache store.
type CacheEntry struct {
	Key       string    `json:"key"`
	Payload   []byte    `json:"payload,omitempty"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// CacheStats reports cache occupancy and performance.
type CacheStats struct {
	Entries        int64  `json:"entries"`
	Hits           int64  `json:"hits"`
	Misses         int64  `json:"misses"`
	SizeBytes      int64  `json:"size_bytes"`
	CapacityBytes  int64  `json:"capacity_bytes"`
	RemainingBytes int64  `json:"remaining_bytes"`
	Eviction       string `json:"eviction"`
}
