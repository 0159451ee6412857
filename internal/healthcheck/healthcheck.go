package healthcheck

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/intelligent-n8n/ai-router/internal/circuitbreaker"
	"github.com/intelligent-n8n/ai-router/internal/metrics"
	"github.com/intelligent-n8n/ai-router/internal/provider"
)

const (
	DefaultInterval = 15 * time.Second
	DefaultTimeout  = 5 * time.Second
)

type probeResult struct {
	providerID string
	healthy    bool
}

// Checker runs one background probe loop per provider. Probe results
// flow over a single channel into one consumer goroutine, so breaker
// and metrics updates are applied in a well-defined order.
type Checker struct {
	logger    *slog.Logger
	registry  *provider.Registry
	breakers  *circuitbreaker.Registry
	collector *metrics.Collector
	interval  time.Duration
	timeout   time.Duration
	client    *http.Client
	results   chan probeResult
}

func New(logger *slog.Logger, registry *provider.Registry, breakers *circuitbreaker.Registry, collector *metrics.Collector, interval, timeout time.Duration) *Checker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Checker{
		logger:    logger,
		registry:  registry,
		breakers:  breakers,
		collector: collector,
		interval:  interval,
		timeout:   timeout,
		client:    &http.Client{Timeout: timeout},
		results:   make(chan probeResult, registry.Len()),
	}
}

// Run starts every probe loop plus the consumer and blocks until the
// context is cancelled and all of them have exited.
func (c *Checker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c.consume(ctx)
		return nil
	})

	for _, p := range c.registry.All() {
		p := p
		g.Go(func() error {
			c.loop(ctx, p)
			return nil
		})
	}

	return g.Wait()
}

// loop probes a single provider on a fixed interval. One provider's
// failures or panics never touch another provider's loop.
func (c *Checker) loop(ctx context.Context, p *provider.Provider) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	lastHealthy := true

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Health check stopped",
				slog.String("provider", p.ID()))
			return

		case <-ticker.C:
			healthy := c.probe(ctx, p)

			if healthy != lastHealthy {
				if healthy {
					c.logger.Info("Provider is back up",
						slog.String("provider", p.ID()))
				} else {
					c.logger.Warn("Provider is down",
						slog.String("provider", p.ID()))
				}
				lastHealthy = healthy
			}

			select {
			case c.results <- probeResult{providerID: p.ID(), healthy: healthy}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// probe issues one GET against the provider's health endpoint. A panic
// inside the probe counts as a failed check.
func (c *Checker) probe(ctx context.Context, p *provider.Provider) (healthy bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Health probe panicked",
				slog.String("provider", p.ID()),
				slog.Any("panic", r))
			healthy = false
		}
	}()

	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	healthURL := p.BaseURL().ResolveReference(&url.URL{Path: "/health"})
	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, healthURL.String(), nil)
	if err != nil {
		return false
	}

	res, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer res.Body.Close()

	return res.StatusCode == http.StatusOK
}

// consume applies probe results one at a time until cancellation, then
// drains whatever is left.
func (c *Checker) consume(ctx context.Context) {
	for {
		select {
		case result := <-c.results:
			c.apply(result)
		case <-ctx.Done():
			for {
				select {
				case result := <-c.results:
					c.apply(result)
				default:
					return
				}
			}
		}
	}
}

// apply feeds one result into metrics and, while the circuit is CLOSED,
// into the breaker. Results against OPEN or HALF_OPEN circuits are
// diagnostic only: passive probes never stand in for the half-open
// trial request, so the single-probe invariant holds.
func (c *Checker) apply(result probeResult) {
	cb := c.breakers.GetBreaker(result.providerID)

	if cb.State() == circuitbreaker.StateClosed {
		if result.healthy {
			cb.RecordSuccess()
		} else {
			cb.RecordFailure()
		}
	}

	if c.collector != nil {
		c.collector.Emit(metrics.MetricEvent{
			Type:      metrics.EventHealthChecked,
			Timestamp: time.Now(),
			Provider:  result.providerID,
			Healthy:   result.healthy,
		})
		c.collector.Emit(metrics.MetricEvent{
			Type:     metrics.EventCircuitState,
			Provider: result.providerID,
			State:    int(cb.State()),
		})
	}
}
