// Package metrics registers the service's Prometheus collectors and exposes them
// in the text exposition format.
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Metric names
const (
	RequestsTotal   = "outbreak_http_requests_total"
	RequestDuration = "outbreak_http_request_duration_seconds"
	EstimatesTotal  = "outbreak_estimates_total"
	CacheLookups    = "outbreak_cache_lookups_total"
)

// Registry holds every metric the service records. The zero value is not usable; call New.
type Registry struct {
	reg          *prometheus.Registry
	requests     *prometheus.CounterVec
	durations    *prometheus.SummaryVec
	estimates    *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	handler      http.Handler
}

func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: RequestsTotal,
			Help: "HTTP requests served by method, path and status.",
		}, []string{"method", "path", "status"}),
		durations: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name: RequestDuration,
			Help: "HTTP request latency by path.",
		}, []string{"path"}),
		estimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: EstimatesTotal,
			Help: "Estimations rendered by response format.",
		}, []string{"format"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: CacheLookups,
			Help: "Result cache lookups by outcome.",
		}, []string{"result"}),
	}
	r.reg.MustRegister(r.requests, r.durations, r.estimates, r.cacheLookups)
	r.handler = promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
	return r
}

// ObserveRequest records one served HTTP request
func (r *Registry) ObserveRequest(method, path string, status int, d time.Duration) {
	r.requests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.durations.WithLabelValues(path).Observe(d.Seconds())
}

// IncEstimate counts one estimation rendered in the given format (json, xml)
func (r *Registry) IncEstimate(format string) {
	r.estimates.WithLabelValues(format).Inc()
}

// IncCacheLookup counts one result cache lookup
func (r *Registry) IncCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// Gather snapshots every family that has at least one series, sorted by name
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	return r.reg.Gather()
}

// WriteText writes every metric family in the Prometheus text format
func (r *Registry) WriteText(w io.Writer) error {
	families, err := r.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// ServeHTTP serves the exposition, negotiating the format with the scraper
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}
