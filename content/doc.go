// Package content classifies request descriptors into content categories
// and derives deterministic cache keys.
//
// Classification is pure string matching over the endpoint path and query
// parameters; it performs no I/O. Each category carries a fixed TTL,
// eviction priority, and fetch timeout.
package content
