package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/contentcache/codec"
	"github.com/jonwraymond/contentcache/content"
	"github.com/jonwraymond/contentcache/observe"
	"github.com/jonwraymond/contentcache/resilience"
	"github.com/jonwraymond/contentcache/transport"
)

// Config configures a Cache. Transport is required; everything else has
// defaults.
type Config struct {
	// Transport fetches payloads from the remote content source.
	Transport transport.Transport

	// MaxBytes is the byte ceiling for stored payloads.
	// Default: 10 MiB
	MaxBytes int64

	// MaxEntries is the entry-count ceiling.
	// Default: 500
	MaxEntries int

	// SweepInterval is how often expired entries are swept.
	// Default: 5 minutes
	SweepInterval time.Duration

	// RetryDelay is the base delay for linear retry backoff on the fetch
	// path. Default: 1s
	RetryDelay time.Duration

	// Retries is the default number of retries after the initial fetch
	// attempt. Default: 3
	Retries int

	// BreakerMaxFailures and BreakerResetTimeout tune the circuit
	// breaker guarding cache operations. Defaults: 5 failures, 30s.
	BreakerMaxFailures  int
	BreakerResetTimeout time.Duration

	// Clock is the time source. Default: the real clock.
	Clock clockwork.Clock

	// Logger receives background-refresh and prefetch failures.
	// Default: discard.
	Logger observe.Logger

	// Metrics receives cache activity. Default: noop.
	Metrics observe.Metrics
}

func (c *Config) applyDefaults() {
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 << 20
	}
	if c.MaxEntries <= 0 {
		c.MaxEntries = 500
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 5 * time.Minute
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	if c.Retries <= 0 {
		c.Retries = 3
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Logger == nil {
		c.Logger = observe.NewNop()
	}
	if c.Metrics == nil {
		c.Metrics = observe.NewNoopMetrics()
	}
}

// Cache is the content response cache. Construct one at the composition
// root and inject it into fetchers; there is no package-level singleton.
type Cache struct {
	config  Config
	clock   clockwork.Clock
	logger  observe.Logger
	metrics observe.Metrics

	store    *store
	breaker  *resilience.CircuitBreaker
	counters counters

	// group de-duplicates concurrent foreground fetches per cache key.
	group singleflight.Group

	// flightMu guards waiter/cancel bookkeeping for in-flight fetches so
	// a fetch is cancelled only when every deduplicated caller aborted.
	flightMu sync.Mutex
	waiters  map[string]int
	cancels  map[string]context.CancelFunc

	// refreshMu guards the stale-while-revalidate in-flight set,
	// tracked separately from foreground dedup.
	refreshMu  sync.Mutex
	refreshing map[string]struct{}

	stopOnce sync.Once
	stopCh   chan struct{}
	sweepWG  sync.WaitGroup
}

// New creates a Cache and starts its periodic expired-entry sweep.
func New(config Config) (*Cache, error) {
	if config.Transport == nil {
		return nil, ErrNilTransport
	}
	config.applyDefaults()

	cdc, err := codec.New()
	if err != nil {
		return nil, err
	}

	c := &Cache{
		config:  config,
		clock:   config.Clock,
		logger:  config.Logger,
		metrics: config.Metrics,
		store:   newStore(cdc, config.Clock, config.Metrics, config.MaxBytes, config.MaxEntries),
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			MaxFailures:  config.BreakerMaxFailures,
			ResetTimeout: config.BreakerResetTimeout,
			Clock:        config.Clock,
		}),
		waiters:    make(map[string]int),
		cancels:    make(map[string]context.CancelFunc),
		refreshing: make(map[string]struct{}),
		stopCh:     make(chan struct{}),
	}

	// The ticker is created here rather than in the goroutine so a fake
	// clock sees it registered as soon as New returns.
	ticker := c.clock.NewTicker(config.SweepInterval)
	c.sweepWG.Add(1)
	go c.sweepLoop(ticker)

	return c, nil
}

// Close stops the sweep loop. In-flight background refreshes and
// prefetches are not waited for; they finish or fail on their own.
func (c *Cache) Close() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
	c.sweepWG.Wait()
}

func (c *Cache) sweepLoop(ticker clockwork.Ticker) {
	defer c.sweepWG.Done()
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.Chan():
			if removed := c.store.sweep(); removed > 0 {
				c.logger.Debug(context.Background(), "swept expired entries",
					observe.F("removed", removed))
			}
		}
	}
}

// Invalidate removes the entry for one request descriptor, reporting
// whether it existed.
func (c *Cache) Invalidate(endpoint string, params map[string]string) bool {
	return c.store.delete(content.Key(endpoint, params))
}

// InvalidateByTags removes every entry carrying any of the given tags
// and returns how many were removed.
func (c *Cache) InvalidateByTags(tags []string) int {
	return c.store.deleteByTags(tags)
}

// Clear removes all entries. Lookup counters are lifetime counters and
// are not reset.
func (c *Cache) Clear() {
	c.store.clear()
}

// warmupRequests is the fixed set of high-priority keys preloaded by
// Warmup.
var warmupRequests = []struct {
	endpoint string
	params   map[string]string
}{
	{"/wp-json/wp/v2/departments", map[string]string{"per_page": "100"}},
	{"/wp-json/wp/v2/doctors", map[string]string{"per_page": "100"}},
	{"/wp-json/wp/v2/pages", map[string]string{"search": "emergency"}},
}

// Warmup preloads a small fixed set of high-priority keys. Best-effort:
// every failure is swallowed after logging.
func (c *Cache) Warmup(ctx context.Context) {
	for _, req := range warmupRequests {
		if _, err := c.FetchData(ctx, req.endpoint, req.params); err != nil {
			c.logger.Debug(ctx, "warmup fetch failed",
				observe.F("endpoint", req.endpoint),
				observe.F("error", err.Error()))
		}
	}
}
