package dict

import (
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/pior/dict/protocol"
)

// IsCircuitBreakerSuccess classifies a transaction error for a circuit
// breaker: a server answering "552 no match", a malformed line or an
// out-of-sequence packet still means a healthy server. Only errors that
// break the connection count as failures.
//
// Use it as gobreaker.Settings.IsSuccessful for breakers passed to Config.
func IsCircuitBreakerSuccess(err error) bool {
	return !protocol.ShouldCloseConnection(err)
}

// NewCircuitBreakerConfig returns a function that creates a circuit breaker for a server.
// The breaker trips when at least 60% of 3 or more transactions failed
// within interval.
func NewCircuitBreakerConfig(maxRequests uint32, interval, timeout time.Duration) func(string) *gobreaker.CircuitBreaker[bool] {
	return func(serverAddr string) *gobreaker.CircuitBreaker[bool] {
		settings := gobreaker.Settings{
			Name:         serverAddr,
			MaxRequests:  maxRequests,
			Interval:     interval,
			Timeout:      timeout,
			IsSuccessful: IsCircuitBreakerSuccess,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
		}
		return gobreaker.NewCircuitBreaker[bool](settings)
	}
}
