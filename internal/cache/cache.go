// Package cache implements the answer cache (C2): a TTL-bounded mapping
// from fully-qualified query name to the prior answer's resource records.
//
// It generalizes the teacher's server.TTLCache (a single RWMutex guarding
// one map) into a 16-way sharded map so no single writer can block every
// concurrent reader for longer than one shard's update, per the resolver's
// "no reader starves writers, no writer blocks all readers" requirement.
package cache

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/miekg/dns"
)

const shardCount = 16

type entry struct {
	records  []dns.RR
	expireAt time.Time
}

type shard struct {
	mu    sync.RWMutex
	items map[string]entry
}

// Cache is safe for arbitrary concurrent readers and writers. It has no
// size bound; a background sweep only reclaims entries that have already
// expired, it does not evict live entries under memory pressure.
type Cache struct {
	shards [shardCount]*shard
	stop   chan struct{}
	once   sync.Once
}

// New creates an empty Cache and starts its background expiry sweep.
func New() *Cache {
	c := &Cache{stop: make(chan struct{})}
	for i := range c.shards {
		c.shards[i] = &shard{items: make(map[string]entry)}
	}
	go c.sweepLoop()
	return c
}

// Stop halts the background sweep goroutine. Safe to call more than once.
func (c *Cache) Stop() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Cache) shardFor(name string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return c.shards[h.Sum32()%shardCount]
}

// Get returns a copy of the records stored under name if present and not
// yet expired. A concurrent get after expiry returns a miss and may remove
// the stale entry; this race is benign (double-remove is harmless).
func (c *Cache) Get(name string) ([]dns.RR, bool) {
	sh := c.shardFor(name)

	sh.mu.RLock()
	e, ok := sh.items[name]
	sh.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if time.Now().After(e.expireAt) {
		sh.mu.Lock()
		delete(sh.items, name)
		sh.mu.Unlock()
		return nil, false
	}

	out := make([]dns.RR, len(e.records))
	for i, rr := range e.records {
		out[i] = dns.Copy(rr)
	}
	return out, true
}

// Set stores records under name with expireAt = now + min(ttl of records).
// An empty record set is a no-op — it must never be stored.
func (c *Cache) Set(name string, records []dns.RR) {
	if len(records) == 0 {
		return
	}

	minTTL := records[0].Header().Ttl
	for _, rr := range records[1:] {
		if ttl := rr.Header().Ttl; ttl < minTTL {
			minTTL = ttl
		}
	}

	stored := make([]dns.RR, len(records))
	for i, rr := range records {
		stored[i] = dns.Copy(rr)
	}

	sh := c.shardFor(name)
	sh.mu.Lock()
	sh.items[name] = entry{
		records:  stored,
		expireAt: time.Now().Add(time.Duration(minTTL) * time.Second),
	}
	sh.mu.Unlock()
}

func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) sweep() {
	now := time.Now()
	for _, sh := range c.shards {
		sh.mu.Lock()
		for k, e := range sh.items {
			if now.After(e.expireAt) {
				delete(sh.items, k)
			}
		}
		sh.mu.Unlock()
	}
}
