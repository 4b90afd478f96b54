package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jonwraymond/contentcache/codec"
	"github.com/jonwraymond/contentcache/content"
	"github.com/jonwraymond/contentcache/observe"
)

// store is the keyed entry table with size accounting and priority/LRU
// eviction. All access goes through the mutex.
type store struct {
	codec      *codec.Codec
	clock      clockwork.Clock
	metrics    observe.Metrics
	maxBytes   int64
	maxEntries int

	mu         sync.Mutex
	entries    map[string]*entry
	totalBytes int64
}

// lookup is a successful store read.
type lookup struct {
	data []byte
	age  time.Duration
	ttl  time.Duration
}

func newStore(c *codec.Codec, clock clockwork.Clock, metrics observe.Metrics, maxBytes int64, maxEntries int) *store {
	return &store{
		codec:      c,
		clock:      clock,
		metrics:    metrics,
		maxBytes:   maxBytes,
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

// get returns the decoded payload for key, or (nil, nil) on a miss.
// Expired entries are removed lazily. A checksum mismatch or decompress
// failure purges the entry and returns errCorruptedEntry; callers treat
// it as a miss and feed it to the circuit breaker.
func (s *store) get(_ context.Context, key string) (*lookup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, nil
	}

	now := s.clock.Now()
	if e.expired(now) {
		s.removeLocked(e)
		return nil, nil
	}

	data := e.blob
	if e.compressed {
		if codec.Checksum(e.blob) != e.checksum {
			s.removeLocked(e)
			return nil, fmt.Errorf("%w: checksum mismatch for %s", errCorruptedEntry, key)
		}
		decoded, err := s.codec.Decompress(e.blob)
		if err != nil {
			s.removeLocked(e)
			return nil, fmt.Errorf("%w: %v", errCorruptedEntry, err)
		}
		data = decoded
	}

	e.accessCount++
	e.lastAccessed = now

	return &lookup{
		data: data,
		age:  now.Sub(e.createdAt),
		ttl:  e.category.TTL(),
	}, nil
}

// set stores a payload under key, evicting lower-importance entries as
// needed to satisfy the byte and entry ceilings. When no eligible
// eviction candidate exists the entry is inserted anyway and the store
// runs over its ceiling until entries expire.
func (s *store) set(ctx context.Context, key string, data []byte, cat content.Category, tags []string) {
	blob, _, compressed := s.codec.Compress(data)

	e := &entry{
		key:        key,
		blob:       blob,
		rawSize:    len(data),
		storedSize: len(blob),
		category:   cat,
		priority:   cat.Priority(),
		compressed: compressed,
		tags:       tags,
	}
	if compressed {
		e.checksum = codec.Checksum(blob)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	e.createdAt = now
	e.lastAccessed = now

	// Replace-then-insert keeps size accounting exact.
	if old, ok := s.entries[key]; ok {
		s.removeLocked(old)
	}

	for s.overCapacityLocked(int64(e.storedSize)) {
		victim := s.evictionCandidateLocked(e.priority)
		if victim == nil {
			break
		}
		s.removeLocked(victim)
		s.metrics.RecordEviction(ctx, victim.category.String())
	}

	s.entries[key] = e
	s.totalBytes += int64(e.storedSize)
}

func (s *store) overCapacityLocked(incoming int64) bool {
	return s.totalBytes+incoming > s.maxBytes || len(s.entries)+1 > s.maxEntries
}

// evictionCandidateLocked picks the entry to evict for an incoming entry
// of the given priority: only entries at equal or numerically larger
// priority are eligible, preferring the largest priority and breaking
// ties by oldest access time.
func (s *store) evictionCandidateLocked(incomingPriority int) *entry {
	var victim *entry
	for _, e := range s.entries {
		if e.priority < incomingPriority {
			continue
		}
		if victim == nil ||
			e.priority > victim.priority ||
			(e.priority == victim.priority && e.lastAccessed.Before(victim.lastAccessed)) {
			victim = e
		}
	}
	return victim
}

func (s *store) removeLocked(e *entry) {
	delete(s.entries, e.key)
	s.totalBytes -= int64(e.storedSize)
}

// delete removes an entry by key, reporting whether it existed.
func (s *store) delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	s.removeLocked(e)
	return true
}

// deleteByTags removes every entry carrying any of the given tags and
// returns how many were removed.
func (s *store) deleteByTags(tags []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, e := range s.entries {
		if e.hasAnyTag(tags) {
			s.removeLocked(e)
			removed++
		}
	}
	return removed
}

// clear removes all entries.
func (s *store) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry)
	s.totalBytes = 0
}

// sweep removes expired entries. Called periodically by the cache's
// cleanup ticker.
func (s *store) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	removed := 0
	for _, e := range s.entries {
		if e.expired(now) {
			s.removeLocked(e)
			removed++
		}
	}
	return removed
}

// storeSnapshot is a point-in-time aggregate over stored entries, used
// by Stats.
type storeSnapshot struct {
	entries          int
	totalBytes       int64
	compressedRaw    int64
	compressedStored int64
	unexpiredBytes   int64
	priorityCounts   map[int]int
	categories       map[string]categorySnapshot
}

type categorySnapshot struct {
	entries     int
	bytes       int64
	accessCount uint64
}

func (s *store) snapshot() storeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := storeSnapshot{
		entries:        len(s.entries),
		totalBytes:     s.totalBytes,
		priorityCounts: make(map[int]int),
		categories:     make(map[string]categorySnapshot),
	}

	now := s.clock.Now()
	for _, e := range s.entries {
		snap.priorityCounts[e.priority]++
		if e.compressed {
			snap.compressedRaw += int64(e.rawSize)
			snap.compressedStored += int64(e.storedSize)
		}
		if !e.expired(now) {
			snap.unexpiredBytes += int64(e.storedSize)
		}

		cs := snap.categories[e.category.String()]
		cs.entries++
		cs.bytes += int64(e.storedSize)
		cs.accessCount += e.accessCount
		snap.categories[e.category.String()] = cs
	}
	return snap
}
