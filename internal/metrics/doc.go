// Package metrics provides real-time metrics collection for the AI router.
//
// It uses a channel-based event pipeline feeding a dedicated Prometheus
// registry:
//   - Request counts per provider, task type and outcome status
//   - Provider call latency histograms
//   - Health probe results per provider
//   - Circuit state gauge per provider
//
// The collector runs in a dedicated goroutine and processes events without
// blocking the request path. Events are sent via buffered channels with
// non-blocking semantics to prevent performance degradation under load.
// The /metrics endpoint exposes the registry in Prometheus text format.
package metrics
