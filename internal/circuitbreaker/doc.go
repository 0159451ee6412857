// Package circuitbreaker implements the circuit breaker pattern for provider failover.
//
// A circuit breaker prevents cascading failures by temporarily blocking requests
// to failing providers. It has three states:
//
//   - CLOSED: Normal operation, requests pass through
//   - OPEN: Provider failing, requests blocked
//   - HALF_OPEN: Testing recovery with a single probe
//
// While HALF_OPEN, at most one probe is in flight: the caller whose Allow()
// claimed the probe is the only one permitted to talk to the provider until
// it reports a result. Concurrent callers are rejected in the meantime.
//
// Usage:
//
//	registry := circuitbreaker.NewRegistry(circuitbreaker.Settings{})
//	cb := registry.GetBreaker("cursor")
//	if cb.Allow() {
//	    // Make request...
//	    if err != nil {
//	        cb.RecordFailure()
//	    } else {
//	        cb.RecordSuccess()
//	    }
//	}
package circuitbreaker
