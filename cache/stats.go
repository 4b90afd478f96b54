package cache

import (
	"sync/atomic"

	"github.com/jonwraymond/contentcache/content"
)

// CacheStats is a point-in-time aggregate of cache activity.
type CacheStats struct {
	// Hits and Misses are lifetime lookup counters; Clear does not
	// reset them.
	Hits   uint64
	Misses uint64

	// HitRate is Hits/(Hits+Misses), 0 when there has been no traffic.
	HitRate float64

	// Entries and TotalBytes describe current occupancy.
	Entries    int
	TotalBytes int64
	MaxBytes   int64

	// CompressionRatio is storedBytes/rawBytes over currently stored
	// compressed entries; 1 when nothing is compressed.
	CompressionRatio float64

	// MemoryEfficiency is the fraction of stored bytes belonging to
	// not-yet-expired entries.
	MemoryEfficiency float64

	// PriorityCounts is the entry count per eviction priority.
	PriorityCounts map[int]int

	// Categories breaks activity down per content category.
	Categories map[string]CategoryStats
}

// CategoryStats describes one content category.
type CategoryStats struct {
	Entries      int
	Hits         uint64
	Misses       uint64
	AvgSizeBytes int64
	AccessCount  uint64
}

// numCategories matches the closed Category enum in package content.
const numCategories = 7

// counters tracks hit/miss totals, overall and per category. Category
// values index the per-category array directly.
type counters struct {
	hits   atomic.Uint64
	misses atomic.Uint64

	perCategory [numCategories]categoryCounter
}

type categoryCounter struct {
	hits   atomic.Uint64
	misses atomic.Uint64
}

func (c *counters) record(cat content.Category, hit bool) {
	idx := int(cat)
	if idx < 0 || idx >= len(c.perCategory) {
		idx = int(content.CategoryGeneral)
	}
	if hit {
		c.hits.Add(1)
		c.perCategory[idx].hits.Add(1)
	} else {
		c.misses.Add(1)
		c.perCategory[idx].misses.Add(1)
	}
}

// Stats assembles a CacheStats snapshot from the lookup counters and the
// current store contents.
func (c *Cache) Stats() CacheStats {
	snap := c.store.snapshot()

	stats := CacheStats{
		Hits:             c.counters.hits.Load(),
		Misses:           c.counters.misses.Load(),
		Entries:          snap.entries,
		TotalBytes:       snap.totalBytes,
		MaxBytes:         c.config.MaxBytes,
		CompressionRatio: 1,
		MemoryEfficiency: 1,
		PriorityCounts:   snap.priorityCounts,
		Categories:       make(map[string]CategoryStats),
	}

	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	if snap.compressedRaw > 0 {
		stats.CompressionRatio = float64(snap.compressedStored) / float64(snap.compressedRaw)
	}
	if snap.totalBytes > 0 {
		stats.MemoryEfficiency = float64(snap.unexpiredBytes) / float64(snap.totalBytes)
	}

	for _, cat := range content.Categories() {
		name := cat.String()
		cc := &c.counters.perCategory[int(cat)]
		cs := CategoryStats{
			Hits:   cc.hits.Load(),
			Misses: cc.misses.Load(),
		}
		if snapCat, ok := snap.categories[name]; ok {
			cs.Entries = snapCat.entries
			cs.AccessCount = snapCat.accessCount
			if snapCat.entries > 0 {
				cs.AvgSizeBytes = snapCat.bytes / int64(snapCat.entries)
			}
		}
		if cs.Entries == 0 && cs.Hits == 0 && cs.Misses == 0 {
			continue
		}
		stats.Categories[name] = cs
	}

	return stats
}
