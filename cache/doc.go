// Package cache implements the content response cache: an in-process
// store between business-logic fetchers and a remote content source.
//
// It provides content-aware TTLs, priority-based eviction, conditional
// payload compression with integrity checking, circuit-breaker gating of
// cache operations, de-duplication of concurrent fetches, and a
// stale-while-revalidate background refresh protocol.
package cache
