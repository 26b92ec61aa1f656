package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNilRegistryMethodsAreNoOps(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.CacheHit("l1")
		r.CacheMiss("expired")
		r.StreamFrame("GetNode")
		r.VerifyRun(3, true)
	})
}

func TestHandlerExposesRecordedMetrics(t *testing.T) {
	r := New()
	r.CacheHit("l1")
	r.CacheHit("l1")
	r.CacheMiss("expired")
	r.StreamFrame("GetNode")
	r.VerifyRun(4, true)
	r.VerifyRun(5, false)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, `nodebridge_cache_hits_total{tier="l1"} 2`)
	assert.Contains(t, body, `nodebridge_cache_misses_total{reason="expired"} 1`)
	assert.Contains(t, body, `nodebridge_stream_frames_emitted_total{operation="GetNode"} 1`)
	assert.Contains(t, body, "nodebridge_verify_runs_passed_total 1")
	assert.Contains(t, body, "nodebridge_verify_runs_failed_total 1")
	assert.True(t, strings.Contains(body, "nodebridge_verify_iterations"))
}
