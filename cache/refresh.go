package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/jonwraymond/contentcache/content"
	"github.com/jonwraymond/contentcache/observe"
)

// refreshAgeFraction is the TTL fraction past which a hit is served
// stale-while-revalidate: the cached value goes back to the caller and a
// background refetch is scheduled.
const refreshAgeFraction = 0.8

func stale(lk *lookup) bool {
	return lk.age > time.Duration(refreshAgeFraction*float64(lk.ttl))
}

// scheduleRefresh starts at most one background refresh per key. The
// refresh-in-flight set is independent of the foreground dedup table, so
// a foreground miss for one key never blocks another key's refresh.
// Failures are logged and recorded, never surfaced: the caller already
// has a usable answer.
func (c *Cache) scheduleRefresh(endpoint string, params map[string]string, key string, cat content.Category, tags []string, opt fetchOptions) {
	c.refreshMu.Lock()
	if _, inFlight := c.refreshing[key]; inFlight {
		c.refreshMu.Unlock()
		return
	}
	c.refreshing[key] = struct{}{}
	c.refreshMu.Unlock()

	go func() {
		defer func() {
			c.refreshMu.Lock()
			delete(c.refreshing, key)
			c.refreshMu.Unlock()
		}()

		ctx := context.Background()
		_, err := c.fetchAndStore(ctx, key, endpoint, params, cat, tags, opt, true)
		c.metrics.RecordRefresh(ctx, cat.String(), err)
		if err != nil {
			c.logger.Warn(ctx, "background refresh failed",
				observe.F("key", key),
				observe.F("category", cat.String()),
				observe.F("error", err.Error()))
		}
	}()
}

// prefetchTarget is one opportunistic follow-up request.
type prefetchTarget struct {
	endpoint string
	params   map[string]string
}

// prefetchTargets derives likely-related requests worth warming after
// serving one. Only posts, services, and departments participate.
func prefetchTargets(cat content.Category, endpoint string, params map[string]string) []prefetchTarget {
	switch cat {
	case content.CategoryPosts:
		// Readers page forward: warm the next page of the same listing.
		page, err := strconv.Atoi(params["page"])
		if err != nil || page < 1 {
			return nil
		}
		next := make(map[string]string, len(params))
		for k, v := range params {
			next[k] = v
		}
		next["page"] = strconv.Itoa(page + 1)
		return []prefetchTarget{{endpoint: endpoint, params: next}}

	case content.CategoryServices:
		// Warm the sibling services under the same parent.
		parent := params["parent"]
		if parent == "" {
			return nil
		}
		return []prefetchTarget{{
			endpoint: endpoint,
			params:   map[string]string{"parent": parent, "per_page": "100"},
		}}

	case content.CategoryDepartments:
		// Department views lead to their services.
		return []prefetchTarget{{
			endpoint: "/wp-json/wp/v2/services",
			params:   map[string]string{"per_page": "100"},
		}}

	default:
		return nil
	}
}

// schedulePrefetch fires the derived prefetches on a background
// goroutine. Prefetch failures are always silent; prefetched requests do
// not cascade into further prefetches.
func (c *Cache) schedulePrefetch(cat content.Category, endpoint string, params map[string]string) {
	targets := prefetchTargets(cat, endpoint, params)
	if len(targets) == 0 {
		return
	}

	go func() {
		ctx := context.Background()
		for _, t := range targets {
			c.metrics.RecordPrefetch(ctx, cat.String())
			if _, err := c.FetchData(ctx, t.endpoint, t.params, asBackground()); err != nil {
				c.logger.Debug(ctx, "prefetch failed",
					observe.F("endpoint", t.endpoint),
					observe.F("error", err.Error()))
			}
		}
	}()
}
