// Package metrics exposes nodebridge's Prometheus counters and histograms
// on a /metrics endpoint (SPEC_FULL.md §4.6 "Metrics exposition"),
// grounded on kraklabs/cie's go.mod use of
// github.com/prometheus/client_golang — the pack carries no exemplar file
// actually wiring it, so the collector set and handler wiring below follow
// the library's own standard idiom (promauto NewCounterVec/NewHistogram/
// NewCounter on a private registry + promhttp.HandlerFor).
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles every metric nodebridge emits. A nil *Registry is safe
// to call methods on (all methods are no-ops), so callers that haven't
// wired telemetry don't need nil checks at every call site.
type Registry struct {
	reg *prometheus.Registry

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	streamFrames *prometheus.CounterVec

	verifyIterations prometheus.Histogram
	verifyPassed     prometheus.Counter
	verifyFailed     prometheus.Counter
}

// New constructs a Registry with all collectors registered.
func New() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		reg: reg,
		cacheHits: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "nodebridge",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Node Cache lookups that were satisfied from L1 or L2.",
		}, []string{"tier"}),
		cacheMisses: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "nodebridge",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Node Cache lookups that required an upstream fetch.",
		}, []string{"reason"}),
		streamFrames: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "nodebridge",
			Subsystem: "stream",
			Name:      "frames_emitted_total",
			Help:      "Frames emitted by the Streaming Node Service, by operation.",
		}, []string{"operation"}),
		verifyIterations: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: "nodebridge",
			Subsystem: "verify",
			Name:      "iterations",
			Help:      "Iterations consumed per Visual Verification Loop run.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		verifyPassed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "nodebridge",
			Subsystem: "verify",
			Name:      "runs_passed_total",
			Help:      "Verification runs that reached target_score.",
		}),
		verifyFailed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "nodebridge",
			Subsystem: "verify",
			Name:      "runs_failed_total",
			Help:      "Verification runs that exhausted max_iterations or errored.",
		}),
	}
	return r
}

func (r *Registry) CacheHit(tier string) {
	if r == nil {
		return
	}
	r.cacheHits.WithLabelValues(tier).Inc()
}

func (r *Registry) CacheMiss(reason string) {
	if r == nil {
		return
	}
	r.cacheMisses.WithLabelValues(reason).Inc()
}

func (r *Registry) StreamFrame(operation string) {
	if r == nil {
		return
	}
	r.streamFrames.WithLabelValues(operation).Inc()
}

func (r *Registry) VerifyRun(iterations int, passed bool) {
	if r == nil {
		return
	}
	r.verifyIterations.Observe(float64(iterations))
	if passed {
		r.verifyPassed.Inc()
	} else {
		r.verifyFailed.Inc()
	}
}

// Handler returns the http.Handler to mount at /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Serve starts an HTTP server exposing /metrics on addr and blocks until
// ctx is cancelled, then shuts down gracefully.
func (r *Registry) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
