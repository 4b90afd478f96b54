package cache

import (
	"time"

	"github.com/jonwraymond/contentcache/content"
)

// entry is one cached response. The blob is the stored representation:
// raw payload bytes, or a compressed frame when compressed is set.
type entry struct {
	key          string
	blob         []byte
	rawSize      int
	storedSize   int
	createdAt    time.Time
	lastAccessed time.Time
	accessCount  uint64
	category     content.Category
	priority     int
	compressed   bool
	checksum     uint64 // set only when compressed
	tags         []string
}

// expired reports whether the entry has outlived its category TTL.
func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.createdAt) > e.category.TTL()
}

// hasAnyTag reports whether the entry carries any of the given tags.
func (e *entry) hasAnyTag(tags []string) bool {
	for _, want := range tags {
		for _, tag := range e.tags {
			if tag == want {
				return true
			}
		}
	}
	return false
}
