package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonwraymond/contentcache/content"
	"github.com/jonwraymond/contentcache/observe"
	"github.com/jonwraymond/contentcache/resilience"
	"github.com/jonwraymond/contentcache/transport"
)

// fetchOptions are per-call knobs for FetchData.
type fetchOptions struct {
	useCache   bool
	retries    int
	retryDelay time.Duration

	// background marks internal fetches (prefetch) that must not spawn
	// further background work.
	background bool
}

// Option customizes a single FetchData call.
type Option func(*fetchOptions)

// WithoutCache bypasses the store entirely: no lookup, no write.
func WithoutCache() Option {
	return func(o *fetchOptions) { o.useCache = false }
}

// WithRetries overrides the number of retries after the initial attempt.
func WithRetries(n int) Option {
	return func(o *fetchOptions) { o.retries = n }
}

// WithRetryDelay overrides the base delay for linear retry backoff.
func WithRetryDelay(d time.Duration) Option {
	return func(o *fetchOptions) { o.retryDelay = d }
}

func asBackground() Option {
	return func(o *fetchOptions) { o.background = true }
}

func (c *Cache) defaultOptions() fetchOptions {
	return fetchOptions{
		useCache:   true,
		retries:    c.config.Retries,
		retryDelay: c.config.RetryDelay,
	}
}

// FetchData is the primary entry point: it serves the request from the
// store when possible and coordinates de-duplicated, retried network
// fetches otherwise. The returned bytes are the raw JSON payload.
//
// Cancelling ctx aborts this caller only; a fetch shared with other
// callers keeps running until every caller has aborted.
func (c *Cache) FetchData(ctx context.Context, endpoint string, params map[string]string, opts ...Option) ([]byte, error) {
	select {
	case <-c.stopCh:
		return nil, ErrClosed
	default:
	}

	opt := c.defaultOptions()
	for _, o := range opts {
		o(&opt)
	}

	cat, tags := content.Classify(endpoint, params)
	key := content.Key(endpoint, params)

	// An open breaker degrades to always-fetch-fresh: the store is
	// neither read nor written, and no error surfaces for it.
	cacheable := opt.useCache && c.breaker.CanExecute()

	if cacheable {
		lk, err := c.store.get(ctx, key)
		if err != nil {
			// Corrupted entry: purged by the store, counts against the
			// breaker, and the fetch proceeds as a miss.
			c.breaker.RecordFailure(err)
			c.logger.Warn(ctx, "corrupted cache entry purged", observe.F("key", key))
		} else {
			c.breaker.RecordSuccess()
			if lk != nil {
				c.counters.record(cat, true)
				c.metrics.RecordLookup(ctx, cat.String(), true)
				if stale(lk) {
					c.scheduleRefresh(endpoint, params, key, cat, tags, opt)
				}
				if !opt.background {
					c.schedulePrefetch(cat, endpoint, params)
				}
				return lk.data, nil
			}
		}
	}

	if opt.useCache {
		c.counters.record(cat, false)
		c.metrics.RecordLookup(ctx, cat.String(), false)
	}

	data, err := c.dedupedFetch(ctx, key, endpoint, params, cat, tags, opt, cacheable)
	if err != nil {
		return nil, err
	}
	if !opt.background {
		c.schedulePrefetch(cat, endpoint, params)
	}
	return data, nil
}

// FetchAs fetches and decodes the payload into T.
func FetchAs[T any](ctx context.Context, c *Cache, endpoint string, params map[string]string, opts ...Option) (T, error) {
	var out T
	data, err := c.FetchData(ctx, endpoint, params, opts...)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("cache: decode %s: %w", endpoint, err)
	}
	return out, nil
}

// dedupedFetch collapses concurrent fetches for the same key onto one
// network call. The underlying fetch runs on a context detached from any
// single caller; it is cancelled only when every waiter has gone away.
func (c *Cache) dedupedFetch(ctx context.Context, key, endpoint string, params map[string]string, cat content.Category, tags []string, opt fetchOptions, storeResult bool) ([]byte, error) {
	c.flightMu.Lock()
	c.waiters[key]++
	c.flightMu.Unlock()

	ch := c.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))

		c.flightMu.Lock()
		c.cancels[key] = cancel
		abandoned := c.waiters[key] == 0
		c.flightMu.Unlock()
		if abandoned {
			cancel()
		}
		defer func() {
			c.flightMu.Lock()
			delete(c.cancels, key)
			c.flightMu.Unlock()
			cancel()
		}()

		return c.fetchAndStore(fctx, key, endpoint, params, cat, tags, opt, storeResult)
	})

	select {
	case res := <-ch:
		c.flightDone(key, false)
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		c.flightDone(key, true)
		return nil, ctx.Err()
	}
}

// flightDone balances the waiter count for key. When the last waiter
// aborted, the shared fetch itself is cancelled.
func (c *Cache) flightDone(key string, aborted bool) {
	c.flightMu.Lock()
	defer c.flightMu.Unlock()

	c.waiters[key]--
	if c.waiters[key] > 0 {
		return
	}
	delete(c.waiters, key)
	if aborted {
		if cancel, ok := c.cancels[key]; ok {
			cancel()
		}
	}
}

// fetchAndStore performs the retried network fetch for one key and
// writes the validated result into the store.
func (c *Cache) fetchAndStore(ctx context.Context, key, endpoint string, params map[string]string, cat content.Category, tags []string, opt fetchOptions, storeResult bool) (any, error) {
	url := content.RequestPath(endpoint, params)
	start := c.clock.Now()

	retry := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts: opt.retries + 1,
		Delay:       opt.retryDelay,
		Clock:       c.clock,
		RetryIf:     transport.Retryable,
	})

	var body []byte
	err := retry.Execute(ctx, func(ctx context.Context) error {
		tctx, cancel := context.WithTimeout(ctx, cat.Timeout())
		defer cancel()

		b, err := c.config.Transport.Get(tctx, url)
		if err != nil {
			return err
		}
		if !json.Valid(b) {
			return fmt.Errorf("%w: invalid payload from %s", transport.ErrEmptyResponse, endpoint)
		}
		body = b
		return nil
	})
	c.metrics.RecordFetch(ctx, cat.String(), c.clock.Since(start), err)
	if err != nil {
		return nil, err
	}

	if storeResult && c.breaker.CanExecute() {
		c.store.set(ctx, key, body, cat, tags)
		c.breaker.RecordSuccess()
	}
	return body, nil
}
