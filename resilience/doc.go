// Package resilience provides fault-tolerance primitives for the content
// cache: a circuit breaker that gates cache operations after repeated
// failures, and a retry handler with linear backoff for the fetch path.
//
// Both take an injected clockwork.Clock so tests drive recovery windows
// and backoff waits with virtual time.
package resilience
