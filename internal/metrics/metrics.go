// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	registry       *prometheus.Registry
	httpRequests   *prometheus.CounterVec
	httpLatency    prometheus.Histogram
	linksConfirmed prometheus.Counter
	linksRejected  prometheus.Counter
	aiRequests     prometheus.Counter
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "boros_http_requests_total",
			Help: "HTTP responses by status code",
		}, []string{"status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "boros_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		linksConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "boros_telegram_links_confirmed_total",
			Help: "Telegram link confirmations",
		}),
		linksRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "boros_telegram_links_rejected_total",
			Help: "Telegram link tokens rejected as invalid or expired",
		}),
		aiRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "boros_ai_requests_total",
			Help: "Insight requests proxied to the AI provider",
		}),
	}

	c.registry.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.linksConfirmed,
		c.linksRejected,
		c.aiRequests,
	)

	return c
}

func (c *Collector) RecordLinkConfirmed() { c.linksConfirmed.Inc() }
func (c *Collector) RecordLinkRejected()  { c.linksRejected.Inc() }
func (c *Collector) RecordAIRequest()     { c.aiRequests.Inc() }

// Handler serves the /metrics endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Middleware records a counter and latency sample per request.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		c.httpRequests.WithLabelValues(strconv.Itoa(ww.Status())).Inc()
		c.httpLatency.Observe(time.Since(start).Seconds())
	})
}
