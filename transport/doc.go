// Package transport defines the remote content source consumed by the
// cache and the error taxonomy the fetch path classifies retries with.
//
// The cache core does not implement HTTP semantics beyond issuing GET
// requests; timeouts and aborts arrive through the request context.
package transport
