package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/intelligent-n8n/ai-router/internal/circuitbreaker"
	"github.com/intelligent-n8n/ai-router/internal/metrics"
	"github.com/intelligent-n8n/ai-router/internal/policy"
	"github.com/intelligent-n8n/ai-router/internal/provider"
)

// DefaultTimeout caps a request that arrives without its own timeout.
const DefaultTimeout = 60 * time.Second

const maxResponseBytes = 10 << 20

// Request is one routed task: what to do, the opaque payload to hand
// the provider, and how long the caller is willing to wait per attempt.
type Request struct {
	TaskType provider.TaskType
	Payload  json.RawMessage
	Timeout  time.Duration
	TraceID  string
}

// Result is a successful dispatch: which provider answered and what it
// returned.
type Result struct {
	Provider string
	Body     json.RawMessage
	TraceID  string
	Latency  time.Duration
}

// Dispatcher executes requests against the policy engine's candidates
// in order, consulting each provider's breaker and failing over until
// one succeeds or all are exhausted.
type Dispatcher struct {
	logger      *slog.Logger
	registry    *provider.Registry
	breakers    *circuitbreaker.Registry
	engine      *policy.Engine
	collector   *metrics.Collector
	client      *http.Client
	credentials func(ref string) string
}

func New(logger *slog.Logger, registry *provider.Registry, breakers *circuitbreaker.Registry, engine *policy.Engine, collector *metrics.Collector) *Dispatcher {
	return &Dispatcher{
		logger:    logger,
		registry:  registry,
		breakers:  breakers,
		engine:    engine,
		collector: collector,
		// Timeouts are enforced per call via context, not on the client.
		client:      &http.Client{},
		credentials: os.Getenv,
	}
}

// Dispatch routes one request. It returns the first successful result,
// ErrCapabilityUnsupported when no provider declares the task type, or
// an *ExhaustedError listing every failed candidate.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Result, error) {
	if req.TraceID == "" {
		req.TraceID = uuid.NewString()
	}
	if req.Timeout <= 0 {
		req.Timeout = DefaultTimeout
	}

	log := d.logger.With(
		slog.String("trace_id", req.TraceID),
		slog.String("task_type", string(req.TaskType)))

	decision := d.engine.Decide(req.TaskType)
	if decision.Reason == policy.ReasonCapabilityUnsupported {
		log.Warn("No provider supports task type")
		return nil, ErrCapabilityUnsupported
	}

	var attempts []Attempt

	for _, id := range decision.Candidates {
		p, ok := d.registry.Get(id)
		if !ok {
			continue
		}

		cb := d.breakers.GetBreaker(id)
		if !cb.Allow() {
			// Breaker rejection is not a provider failure; the
			// candidate is skipped without touching its counts.
			attempts = append(attempts, Attempt{Provider: id, ErrorKind: ErrorKindBreakerOpen})
			log.Debug("Candidate rejected by circuit breaker", slog.String("provider", id))
			continue
		}

		start := time.Now()
		body, kind, err := d.call(ctx, p, req)
		latency := time.Since(start)

		if err != nil {
			cb.RecordFailure()
			d.recordOutcome(p, req.TaskType, string(kind), latency)
			attempts = append(attempts, Attempt{Provider: id, ErrorKind: kind})
			log.Warn("Provider attempt failed",
				slog.String("provider", id),
				slog.String("error_kind", string(kind)),
				slog.Duration("latency", latency),
				slog.Any("err", err))
			continue
		}

		cb.RecordSuccess()
		d.recordOutcome(p, req.TaskType, metrics.StatusSuccess, latency)
		log.Info("Request routed",
			slog.String("provider", id),
			slog.Duration("latency", latency))

		return &Result{
			Provider: id,
			Body:     body,
			TraceID:  req.TraceID,
			Latency:  latency,
		}, nil
	}

	log.Warn("All providers exhausted", slog.Int("attempts", len(attempts)))
	return nil, &ExhaustedError{Attempted: attempts}
}

// invokeEnvelope is the body POSTed to a provider's /invoke endpoint.
type invokeEnvelope struct {
	TaskType string          `json:"task_type"`
	Payload  json.RawMessage `json:"payload"`
	TraceID  string          `json:"trace_id"`
}

// call performs one provider attempt within the effective timeout. The
// context deadline actively cancels the outbound call so a slow
// provider cannot pin resources past its budget.
func (d *Dispatcher) call(ctx context.Context, p *provider.Provider, req Request) (json.RawMessage, ErrorKind, error) {
	timeout := req.Timeout
	if p.MaxTimeout() > 0 && p.MaxTimeout() < timeout {
		timeout = p.MaxTimeout()
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	envelope, err := json.Marshal(invokeEnvelope{
		TaskType: string(req.TaskType),
		Payload:  req.Payload,
		TraceID:  req.TraceID,
	})
	if err != nil {
		return nil, ErrorKindTransport, err
	}

	endpoint := p.BaseURL().ResolveReference(&url.URL{Path: "/invoke"})
	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, endpoint.String(), bytes.NewReader(envelope))
	if err != nil {
		return nil, ErrorKindTransport, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Trace-Id", req.TraceID)
	if ref := p.CredentialRef(); ref != "" {
		if token := d.credentials(ref); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	res, err := d.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrorKindTimeout, err
		}
		return nil, ErrorKindTransport, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(res.Body, maxResponseBytes))
		return nil, ErrorKindBadStatus, errors.New(res.Status)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrorKindTimeout, err
		}
		return nil, ErrorKindTransport, err
	}

	return body, "", nil
}

func (d *Dispatcher) recordOutcome(p *provider.Provider, task provider.TaskType, status string, latency time.Duration) {
	if d.collector == nil {
		return
	}
	d.collector.Emit(metrics.MetricEvent{
		Type:      metrics.EventRequestCompleted,
		Timestamp: time.Now(),
		Provider:  p.ID(),
		TaskType:  string(task),
		Status:    status,
		Duration:  latency,
	})
	d.collector.Emit(metrics.MetricEvent{
		Type:     metrics.EventCircuitState,
		Provider: p.ID(),
		State:    int(d.breakers.GetBreaker(p.ID()).State()),
	})
}
