package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventRequestCompleted EventType = "request_completed"
	EventHealthChecked    EventType = "health_checked"
	EventCircuitState     EventType = "circuit_state"
)

// MetricEvent is one observation flowing from the dispatcher or the
// health checker into the collector.
type MetricEvent struct {
	Type      EventType
	Timestamp time.Time
	Provider  string
	TaskType  string
	Status    string
	Duration  time.Duration
	Healthy   bool
	State     int
}

// Collector translates events into Prometheus series. Events arrive on
// a buffered channel so the request path never blocks on metrics; the
// channel is drained before shutdown completes.
type Collector struct {
	eventCh     chan MetricEvent
	instruments *instruments
	logger      *slog.Logger
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh:     make(chan MetricEvent, bufferSize),
		instruments: newInstruments(),
		logger:      logger,
	}
}

// EventChannel returns the send side of the event pipeline.
func (c *Collector) EventChannel() chan<- MetricEvent {
	return c.eventCh
}

// Emit sends an event without blocking; under backpressure the event is
// dropped rather than stalling the caller.
func (c *Collector) Emit(event MetricEvent) {
	select {
	case c.eventCh <- event:
	default:
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			// Drain remaining events before shutdown
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventRequestCompleted:
		c.instruments.requestsTotal.
			WithLabelValues(event.Provider, event.TaskType, event.Status).Inc()
		c.instruments.requestDuration.
			WithLabelValues(event.Provider, event.TaskType).Observe(event.Duration.Seconds())

	case EventHealthChecked:
		status := HealthStatusDown
		if event.Healthy {
			status = HealthStatusUp
		}
		c.instruments.healthChecks.WithLabelValues(event.Provider, status).Inc()

	case EventCircuitState:
		c.instruments.circuitState.WithLabelValues(event.Provider).Set(float64(event.State))
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}
