package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/intelligent-n8n/ai-router/internal/circuitbreaker"
	"github.com/intelligent-n8n/ai-router/internal/dispatcher"
	"github.com/intelligent-n8n/ai-router/internal/provider"
)

// RouterHandler is the HTTP boundary: it frames /route requests for the
// dispatcher and serves the /health and /providers views.
type RouterHandler struct {
	logger     *slog.Logger
	dispatcher *dispatcher.Dispatcher
	registry   *provider.Registry
	breakers   *circuitbreaker.Registry
}

func NewRouterHandler(logger *slog.Logger, d *dispatcher.Dispatcher, registry *provider.Registry, breakers *circuitbreaker.Registry) *RouterHandler {
	return &RouterHandler{
		logger:     logger,
		dispatcher: d,
		registry:   registry,
		breakers:   breakers,
	}
}

type routeRequest struct {
	TaskType  string          `json:"task_type"`
	Payload   json.RawMessage `json:"payload"`
	TimeoutMS int64           `json:"timeout_ms"`
}

type routeResponse struct {
	Provider string          `json:"provider"`
	Result   json.RawMessage `json:"result"`
	TraceID  string          `json:"trace_id"`
}

type errorResponse struct {
	Error     string               `json:"error"`
	Attempted []dispatcher.Attempt `json:"attempted,omitempty"`
}

// Route handles POST /route.
func (h *RouterHandler) Route(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var body routeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	task, ok := provider.ParseTaskType(body.TaskType)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown task_type"})
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), dispatcher.Request{
		TaskType: task,
		Payload:  body.Payload,
		Timeout:  time.Duration(body.TimeoutMS) * time.Millisecond,
		TraceID:  r.Header.Get("X-Trace-Id"),
	})

	if err != nil {
		var exhausted *dispatcher.ExhaustedError
		switch {
		case errors.Is(err, dispatcher.ErrCapabilityUnsupported):
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "capability_unsupported"})
		case errors.As(err, &exhausted):
			writeJSON(w, http.StatusBadGateway, errorResponse{
				Error:     "AllProvidersExhausted",
				Attempted: exhausted.Attempted,
			})
		default:
			h.logger.Error("Dispatch failed", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, routeResponse{
		Provider: result.Provider,
		Result:   result.Body,
		TraceID:  result.TraceID,
	})
}

type providerHealth struct {
	State               string     `json:"state"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastSuccessTime     *time.Time `json:"last_success_time"`
	LastFailureTime     *time.Time `json:"last_failure_time"`
}

type healthResponse struct {
	Status    string                    `json:"status"`
	Providers map[string]providerHealth `json:"providers"`
}

// Health handles GET /health. Status is "healthy" only while every
// provider's circuit is CLOSED.
func (h *RouterHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "healthy",
		Providers: make(map[string]providerHealth, h.registry.Len()),
	}

	for _, id := range h.registry.IDs() {
		snap := h.breakers.GetBreaker(id).Snapshot()
		if snap.State != circuitbreaker.StateClosed {
			resp.Status = "degraded"
		}
		resp.Providers[id] = providerHealth{
			State:               snap.State.String(),
			ConsecutiveFailures: snap.ConsecutiveFailures,
			LastSuccessTime:     timeOrNil(snap.LastSuccess),
			LastFailureTime:     timeOrNil(snap.LastFailure),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

type providerInfo struct {
	ID           string   `json:"id"`
	Kind         string   `json:"kind"`
	Capabilities []string `json:"capabilities"`
	CostTier     string   `json:"cost_tier"`
	Priority     int      `json:"priority"`
}

// Providers handles GET /providers: the static configuration view the
// IDE integration lists providers from. No health data.
func (h *RouterHandler) Providers(w http.ResponseWriter, r *http.Request) {
	infos := make([]providerInfo, 0, h.registry.Len())
	for _, p := range h.registry.All() {
		caps := make([]string, 0, len(p.Capabilities()))
		for _, c := range p.Capabilities() {
			caps = append(caps, string(c))
		}
		infos = append(infos, providerInfo{
			ID:           p.ID(),
			Kind:         string(p.Kind()),
			Capabilities: caps,
			CostTier:     string(p.CostTier()),
			Priority:     p.Priority(),
		})
	}

	writeJSON(w, http.StatusOK, map[string][]providerInfo{"providers": infos})
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
