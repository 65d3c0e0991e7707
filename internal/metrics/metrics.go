// Package metrics exposes Prometheus metrics for the HTTP surface, food record
// creation and calorie lookups.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "calories"

// Recorder owns the metric collectors and the registry they are exposed from.
type Recorder struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	foodCreated  *prometheus.CounterVec
	lookups      *prometheus.CounterVec
	loginResults *prometheus.CounterVec
}

// NewRecorder creates a Recorder with its own registry, including the Go
// runtime and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		foodCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "food_records_created_total",
			Help:      "Food records created, by whether they exceeded the daily limit and whether calories were looked up.",
		}, []string{"exceeded", "looked_up"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calorie_lookups_total",
			Help:      "Calorie lookups by answering provider and outcome.",
		}, []string{"provider", "outcome"}),
		loginResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.requests,
		r.duration,
		r.foodCreated,
		r.lookups,
		r.loginResults,
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// FoodRecordCreated counts a persisted food record.
func (r *Recorder) FoodRecordCreated(exceeded, lookedUp bool) {
	r.foodCreated.WithLabelValues(strconv.FormatBool(exceeded), strconv.FormatBool(lookedUp)).Inc()
}

// CalorieLookup counts a lookup. provider is empty when no provider answered.
func (r *Recorder) CalorieLookup(provider string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "no_result"
		provider = "none"
	}
	r.lookups.WithLabelValues(provider, outcome).Inc()
}

// Login counts a login attempt by outcome, e.g. ok, invalid, suspended.
func (r *Recorder) Login(outcome string) {
	r.loginResults.WithLabelValues(outcome).Inc()
}

// Middleware records request counts and latency. The route label is the
// ServeMux pattern so path parameters do not explode cardinality.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, req)

		route := req.Pattern
		if route == "" {
			route = "unmatched"
		}
		r.requests.WithLabelValues(req.Method, route, strconv.Itoa(sw.status)).Inc()
		r.duration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
