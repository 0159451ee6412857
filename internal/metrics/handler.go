package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the collector's registry in Prometheus exposition
// format. Scraping and alerting happen elsewhere; only the format is
// part of this service's contract.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.instruments.registry, promhttp.HandlerOpts{})
}
