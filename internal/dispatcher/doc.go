// Package dispatcher executes routed requests with breaker-gated
// failover. For each request it asks the policy engine for an ordered
// candidate list, then walks it: breaker rejections are skipped without
// penalty, failed attempts are recorded against the provider's breaker
// and metrics, and the first success wins. A request that exhausts all
// candidates is terminal; the router never retries on its own.
package dispatcher
