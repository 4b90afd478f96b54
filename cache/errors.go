package cache

import "errors"

// Sentinel errors for cache construction and operation.
var (
	// ErrNilTransport is returned by New when no Transport is configured.
	ErrNilTransport = errors.New("cache: transport is nil")

	// ErrClosed is returned by FetchData after Close.
	ErrClosed = errors.New("cache: cache is closed")

	// errCorruptedEntry marks a stored entry whose checksum or encoding
	// no longer matches its payload. It never leaves the package: the
	// store purges the entry and the fetch path degrades to a miss.
	errCorruptedEntry = errors.New("cache: corrupted entry")
)
