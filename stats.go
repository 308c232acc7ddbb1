package dict

import (
	"sync/atomic"

	"github.com/sony/gobreaker/v2"
)

// ClientStats contains statistics about client operations.
type ClientStats struct {
	Defines      uint64 // Total Define transactions
	Matches      uint64 // Total Match transactions
	Shows        uint64 // Total SHOW DATABASES / SHOW STRATEGIES transactions
	CacheHits    uint64 // Requests answered from the result cache
	ServerErrors uint64 // Transactions answered with a negative status
	Errors       uint64 // Transactions failed for any other reason

	Lease               LeaseStats
	CircuitBreakerState gobreaker.State // StateClosed when no breaker is configured
}

// clientStatsCollector provides internal methods for updating client stats.
type clientStatsCollector struct {
	defines      atomic.Uint64
	matches      atomic.Uint64
	shows        atomic.Uint64
	cacheHits    atomic.Uint64
	serverErrors atomic.Uint64
	errors       atomic.Uint64
}

func newClientStatsCollector() *clientStatsCollector {
	return &clientStatsCollector{}
}

func (c *clientStatsCollector) recordDefine()   { c.defines.Add(1) }
func (c *clientStatsCollector) recordMatch()    { c.matches.Add(1) }
func (c *clientStatsCollector) recordShow()     { c.shows.Add(1) }
func (c *clientStatsCollector) recordCacheHit() { c.cacheHits.Add(1) }

func (c *clientStatsCollector) recordError(serverError bool) {
	if serverError {
		c.serverErrors.Add(1)
		return
	}
	c.errors.Add(1)
}

func (c *clientStatsCollector) snapshot() ClientStats {
	return ClientStats{
		Defines:      c.defines.Load(),
		Matches:      c.matches.Load(),
		Shows:        c.shows.Load(),
		CacheHits:    c.cacheHits.Load(),
		ServerErrors: c.serverErrors.Load(),
		Errors:       c.errors.Load(),
	}
}
