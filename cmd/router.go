package main

import (
	"net/http"

	"github.com/intelligent-n8n/ai-router/internal/handler"
	"github.com/intelligent-n8n/ai-router/internal/metrics"
)

// setupRouter wires the HTTP surface: routing, operational health,
// provider listing, and Prometheus exposition.
func setupRouter(h *handler.RouterHandler, collector *metrics.Collector) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/route", h.Route)
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/providers", h.Providers)
	mux.Handle("/metrics", collector.Handler())

	return mux
}
