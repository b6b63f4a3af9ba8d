package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByPattern(t *testing.T) {
	m := New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/trips/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := m.Middleware(mux)

	for _, path := range []string{"/api/trips/a", "/api/trips/b", "/nowhere"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "GET /api/trips/{id}", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))
}

func TestLedgerCounters(t *testing.T) {
	m := New()
	m.Write("trips", "create")
	m.Write("trips", "create")
	m.Drift(3)
	m.Drift(0)
	m.Event("trip.created", "ok")
	m.Extraction("ok", 4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.writes.WithLabelValues("trips", "create")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.drift))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("trip.created", "ok")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.drafts))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Write("trips", "create")
	m.Drift(1)
	m.Event("x", "ok")
	m.Extraction("ok", 1)
	m.RegisterCache("accounts", func() (int64, int64) { return 0, 0 })

	called := false
	h := m.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}

func TestHandlerExposesCacheCounters(t *testing.T) {
	m := New()
	m.RegisterCache("accounts", func() (int64, int64) { return 7, 2 })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `haulbook_cache_hits_total{cache="accounts"} 7`))
}
