package cache

import (
	"context"
	"hash/fnv"
	"slices"
	"sync"
)

// DefaultShards is the number of lock shards used by NewMemoryStore when
// a non-positive count is given.
const DefaultShards = 32

// Store is the keyed storage behind a Manager.
//
// Load returns ErrCacheMiss when no entry exists for key. Stores do not
// judge freshness; the Manager does.
type Store interface {
	Load(ctx context.Context, key string) (*CacheEntry, error)
	Save(ctx context.Context, key string, entry *CacheEntry) error
}

// MemoryStore is an in-process Store split into independently locked shards
// so unrelated keys never contend on the same mutex.
//
// Entries are never purged. A stale entry stays in memory until the next
// Save for its key overwrites it.
type MemoryStore struct {
	shards []*memoryShard
}

type memoryShard struct {
	mu      sync.RWMutex
	entries map[string]*CacheEntry
}

// NewMemoryStore creates a MemoryStore with the given number of shards.
func NewMemoryStore(shards int) *MemoryStore {
	if shards <= 0 {
		shards = DefaultShards
	}

	s := &MemoryStore{shards: make([]*memoryShard, shards)}
	for i := range s.shards {
		s.shards[i] = &memoryShard{entries: make(map[string]*CacheEntry)}
	}
	return s
}

// Load returns a copy of the entry stored under key.
func (s *MemoryStore) Load(_ context.Context, key string) (*CacheEntry, error) {
	shard := s.shardFor(key)

	shard.mu.RLock()
	entry, ok := shard.entries[key]
	shard.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	return cloneEntry(entry), nil
}

// Save stores a copy of entry under key, replacing any previous entry.
func (s *MemoryStore) Save(_ context.Context, key string, entry *CacheEntry) error {
	if entry == nil {
		return ErrInvalidEntry
	}

	stored := cloneEntry(entry)
	shard := s.shardFor(key)

	shard.mu.Lock()
	shard.entries[key] = stored
	shard.mu.Unlock()

	return nil
}

// Len returns the number of physically stored entries, stale ones included.
func (s *MemoryStore) Len() int {
	n := 0
	for _, shard := range s.shards {
		shard.mu.RLock()
		n += len(shard.entries)
		shard.mu.RUnlock()
	}
	return n
}

func (s *MemoryStore) shardFor(key string) *memoryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

func cloneEntry(e *CacheEntry) *CacheEntry {
	c := *e
	c.Offers = slices.Clone(e.Offers)
	return &c
}
