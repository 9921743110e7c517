package cache

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/vacancy-aggregator/backend/internal/domain"
)

type entry struct {
	list      []domain.Vacancy
	expiresAt time.Time
}

type shard struct {
	mu    sync.RWMutex
	items map[string]entry
}

// MemoryCache is a sharded in-process cache for single instance deployments and the CLI
type MemoryCache struct {
	shards []*shard
	ttl    time.Duration
	now    func() time.Time
	stop   chan struct{}
	once   sync.Once
}

// NewMemoryCache creates the cache and starts a janitor removing expired entries
func NewMemoryCache(numShards int, ttl time.Duration) *MemoryCache {
	return newMemoryCache(numShards, ttl, time.Now)
}

func newMemoryCache(numShards int, ttl time.Duration, now func() time.Time) *MemoryCache {
	if numShards <= 0 {
		numShards = 1
	}
	c := &MemoryCache{
		shards: make([]*shard, numShards),
		ttl:    ttl,
		now:    now,
		stop:   make(chan struct{}),
	}
	for i := range c.shards {
		c.shards[i] = &shard{items: make(map[string]entry)}
	}

	go c.janitor(ttl)
	return c
}

func (c *MemoryCache) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return c.shards[h.Sum32()%uint32(len(c.shards))]
}

// Get returns the list stored under key unless it has expired
func (c *MemoryCache) Get(_ context.Context, key string) ([]domain.Vacancy, bool) {
	s := c.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.items[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	out := make([]domain.Vacancy, len(e.list))
	copy(out, e.list)
	return out, true
}

// Set overwrites the list stored under key
func (c *MemoryCache) Set(_ context.Context, key string, list []domain.Vacancy) {
	stored := make([]domain.Vacancy, len(list))
	copy(stored, list)

	s := c.shardFor(key)
	s.mu.Lock()
	s.items[key] = entry{list: stored, expiresAt: c.now().Add(c.ttl)}
	s.mu.Unlock()
}

// Close stops the janitor
func (c *MemoryCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *MemoryCache) janitor(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *MemoryCache) evictExpired() {
	now := c.now()
	for _, s := range c.shards {
		s.mu.Lock()
		for key, e := range s.items {
			if !now.Before(e.expiresAt) {
				delete(s.items, key)
			}
		}
		s.mu.Unlock()
	}
}
