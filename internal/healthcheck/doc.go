// Package healthcheck implements periodic health probing for providers.
// Each provider gets its own background loop; results are funneled
// through a channel into a single consumer that updates breaker state
// and metrics, keeping update ordering explicit. Probe successes and
// failures only feed the breaker while its circuit is CLOSED; an OPEN
// circuit recovers exclusively through the breaker's half-open probe.
package healthcheck
