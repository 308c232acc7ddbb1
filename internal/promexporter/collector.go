// Package promexporter exposes client statistics as Prometheus metrics.
package promexporter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"

	"github.com/pior/dict"
)

// StatsSource is implemented by *dict.Client.
type StatsSource interface {
	Stats() dict.ClientStats
	Addr() string
}

// ClientCollector reads the client statistics at scrape time.
type ClientCollector struct {
	source StatsSource

	transactions *prometheus.Desc
	cacheHits    *prometheus.Desc
	errors       *prometheus.Desc
	connections  *prometheus.Desc
	connected    *prometheus.Desc
	acquireWaits *prometheus.Desc
	circuitState *prometheus.Desc
}

var _ prometheus.Collector = (*ClientCollector)(nil)

func NewClientCollector(source StatsSource) *ClientCollector {
	server := prometheus.Labels{"server": source.Addr()}
	return &ClientCollector{
		source: source,
		transactions: prometheus.NewDesc(
			"dict_transactions_total",
			"Total number of DICT transactions by command",
			[]string{"command"}, server,
		),
		cacheHits: prometheus.NewDesc(
			"dict_cache_hits_total",
			"Requests answered from the result cache",
			nil, server,
		),
		errors: prometheus.NewDesc(
			"dict_errors_total",
			"Failed transactions (server = negative reply, transport = anything else)",
			[]string{"type"}, server,
		),
		connections: prometheus.NewDesc(
			"dict_connections_total",
			"Connections by lifecycle event",
			[]string{"event"}, server, // created, destroyed
		),
		connected: prometheus.NewDesc(
			"dict_connected",
			"Whether a connection to the server is open",
			nil, server,
		),
		acquireWaits: prometheus.NewDesc(
			"dict_connection_waits_total",
			"Transactions that waited for another one to release the connection",
			nil, server,
		),
		circuitState: prometheus.NewDesc(
			"dict_circuit_breaker_state",
			"Circuit breaker state (0=closed, 1=half-open, 2=open)",
			nil, server,
		),
	}
}

func (c *ClientCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.transactions
	ch <- c.cacheHits
	ch <- c.errors
	ch <- c.connections
	ch <- c.connected
	ch <- c.acquireWaits
	ch <- c.circuitState
}

func (c *ClientCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()

	ch <- prometheus.MustNewConstMetric(c.transactions, prometheus.CounterValue, float64(s.Defines), "define")
	ch <- prometheus.MustNewConstMetric(c.transactions, prometheus.CounterValue, float64(s.Matches), "match")
	ch <- prometheus.MustNewConstMetric(c.transactions, prometheus.CounterValue, float64(s.Shows), "show")
	ch <- prometheus.MustNewConstMetric(c.cacheHits, prometheus.CounterValue, float64(s.CacheHits))
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(s.ServerErrors), "server")
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(s.Errors), "transport")
	ch <- prometheus.MustNewConstMetric(c.connections, prometheus.CounterValue, float64(s.Lease.CreatedConns), "created")
	ch <- prometheus.MustNewConstMetric(c.connections, prometheus.CounterValue, float64(s.Lease.DestroyedConns), "destroyed")
	ch <- prometheus.MustNewConstMetric(c.connected, prometheus.GaugeValue, boolToFloat(s.Lease.Connected))
	ch <- prometheus.MustNewConstMetric(c.acquireWaits, prometheus.CounterValue, float64(s.Lease.AcquireWaitCount))
	ch <- prometheus.MustNewConstMetric(c.circuitState, prometheus.GaugeValue, circuitStateValue(s.CircuitBreakerState))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func circuitStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
