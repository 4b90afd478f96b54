package cache

import "github.com/jonwraymond/contentcache/resilience"

// HealthStatus is the cache health verdict.
type HealthStatus int

const (
	// StatusHealthy means the cache is operating normally.
	StatusHealthy HealthStatus = iota
	// StatusDegraded means the cache works but is near capacity or
	// serving mostly misses.
	StatusDegraded
	// StatusUnhealthy means the circuit breaker is open and cache
	// operations are suspended.
	StatusUnhealthy
)

// String returns the string representation of the status.
func (s HealthStatus) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// degradedByteFraction is the byte-usage fraction above which the cache
// reports Degraded.
const degradedByteFraction = 0.9

// degradedHitRate is the hit rate below which the cache reports
// Degraded, once it has served any traffic.
const degradedHitRate = 0.5

// Health derives the health verdict: Unhealthy while the circuit
// breaker is open, Degraded when byte usage exceeds 90% of the ceiling
// or the hit rate falls under 50%, Healthy otherwise.
func (c *Cache) Health() HealthStatus {
	if c.breaker.State() == resilience.StateOpen {
		return StatusUnhealthy
	}

	stats := c.Stats()
	if float64(stats.TotalBytes) > degradedByteFraction*float64(stats.MaxBytes) {
		return StatusDegraded
	}
	if total := stats.Hits + stats.Misses; total > 0 && stats.HitRate < degradedHitRate {
		return StatusDegraded
	}
	return StatusHealthy
}
