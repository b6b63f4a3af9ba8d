package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"haulbook/internal/core"
	"haulbook/internal/extract"
	"haulbook/internal/metrics"
	"haulbook/internal/seed"
	"haulbook/internal/services"
	"haulbook/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	drafts []core.Trip
	err    error
	got    []byte
}

func (s *stubExtractor) Trips(_ context.Context, image []byte) ([]core.Trip, error) {
	s.got = image
	return s.drafts, s.err
}

func newTestServer(t *testing.T, mutate func(*Options)) (*Server, *storage.Repository) {
	t.Helper()
	repo := storage.NewRepository(storage.NewMemoryStore())
	f, err := seed.Default()
	require.NoError(t, err)
	_, err = seed.Apply(context.Background(), repo, f)
	require.NoError(t, err)

	opts := Options{
		Addr:            ":0",
		Services:        services.New(repo, services.Options{}),
		RateLimitPerMin: 1000,
		Checks: map[string]Check{
			"store": repo.Store.Ping,
		},
	}
	if mutate != nil {
		mutate(&opts)
	}
	srv := NewServer(opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, repo
}

func do(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func tripBody() map[string]any {
	return map[string]any{
		"serialNumber":        42,
		"driverNumber":        "D-100",
		"date":                "2024-04-30",
		"vehicleNumber":       "TR-12345",
		"vehicleSize":         "40ft",
		"vehicleAccount":      "AC-1",
		"station":             "North Hub",
		"brokerName":          "Al-Fatah Goods Carrier",
		"partyName":           "Local Goods Co.",
		"freight":             50000,
		"vehicleFare":         45000,
		"partyBalance":        20000,
		"brokerageCommission": 1000,
		"vehicleBalance":      5000,
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK","message":"Server is running"}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	ready := decode[map[string]any](t, rec)
	assert.Equal(t, "ready", ready["status"])
}

func TestReadyzReportsFailingCheck(t *testing.T) {
	srv, _ := newTestServer(t, func(o *Options) {
		o.Checks["amqp"] = func(context.Context) error { return errors.New("connection refused") }
	})

	rec := do(t, srv, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[map[string]any](t, rec)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "ok", checks["store"])
	assert.Equal(t, "failed: connection refused", checks["amqp"])
}

func TestTripLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := do(t, srv, http.MethodPost, "/api/trips", tripBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[core.Trip](t, rec)
	assert.Equal(t, 1003, created.SerialNumber, "client serial numbers are ignored")
	require.NotEmpty(t, created.ID)

	rec = do(t, srv, http.MethodGet, "/api/trips/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "TR-12345", decode[core.Trip](t, rec).VehicleNumber)

	update := tripBody()
	update["station"] = "South Terminal"
	rec = do(t, srv, http.MethodPut, "/api/trips/"+created.ID, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[core.Trip](t, rec)
	assert.Equal(t, "South Terminal", updated.Station)
	assert.Equal(t, 1003, updated.SerialNumber)

	rec = do(t, srv, http.MethodPost, "/api/trips/"+created.ID+"/clone", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	clone := decode[core.Trip](t, rec)
	assert.Equal(t, 1004, clone.SerialNumber)
	assert.Contains(t, clone.AdditionalDetails, "(Cloned from S.No: 1003)")

	rec = do(t, srv, http.MethodGet, "/api/trips", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]core.Trip](t, rec), 4)

	rec = do(t, srv, http.MethodDelete, "/api/trips/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Trip deleted successfully"}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/trips/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Trip not found","code":"NOT_FOUND"}`, rec.Body.String())
}

func TestTripUpdatesOwnerLedger(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := do(t, srv, http.MethodPost, "/api/trips", tripBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/owners", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	owners := decode[[]core.Owner](t, rec)
	require.Len(t, owners, 1)
	// Seed trip 1001 and the new trip both run on TR-12345.
	assert.Equal(t, 2, owners[0].TotalTrips)
	assert.Equal(t, "10000", owners[0].Debit.String())
}

func TestErrorMapping(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"validation", http.MethodPost, "/api/trips", map[string]any{"driverNumber": "D-1"}, http.StatusBadRequest, CodeInvalidInput},
		{"malformed json", http.MethodPost, "/api/parties", `{"name":`, http.StatusBadRequest, CodeInvalidInput},
		{"wrong type", http.MethodPost, "/api/brokers", `{"name": 5}`, http.StatusBadRequest, CodeInvalidInput},
		{"empty body", http.MethodPost, "/api/labours", "", http.StatusBadRequest, CodeInvalidInput},
		{"broker commission", http.MethodPost, "/api/brokers", map[string]any{"name": "B", "commission": 100.5, "contact": "c", "station": "s"}, http.StatusBadRequest, CodeInvalidInput},
		{"unknown party", http.MethodGet, "/api/parties/nope", nil, http.StatusNotFound, CodeNotFound},
		{"update unknown", http.MethodPut, "/api/payments/nope", map[string]any{"date": "2024-01-01", "type": "paid", "entityType": "broker", "entityName": "B", "amount": 5}, http.StatusNotFound, CodeNotFound},
		{"duplicate owner", http.MethodPost, "/api/owners", map[string]any{"name": "Rehmat Transport"}, http.StatusConflict, CodeConflict},
		{"unknown route", http.MethodGet, "/api/nope", nil, http.StatusNotFound, CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			body := decode[ErrorBody](t, rec)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestDeleteMessages(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := do(t, srv, http.MethodPost, "/api/productReceives", map[string]any{
		"productName": "Cement", "quantity": 100, "unit": "bags", "receivedFrom": "Factory",
		"date": "2024-04-01", "productType": "Building", "truckDimensions": "20x8x8",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[core.ProductReceive](t, rec).ID

	rec = do(t, srv, http.MethodDelete, "/api/productReceives/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Product receive deleted successfully"}`, rec.Body.String())
}

func TestAccountsEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/api/accounts/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sum := decode[map[string]any](t, rec)
	assert.Equal(t, float64(190000), sum["totalReceivables"])
	assert.Equal(t, float64(6375), sum["totalPayables"])
	assert.Equal(t, "positive", sum["cashFlow"])

	rec = do(t, srv, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decode[map[string]any](t, rec)
	assert.Equal(t, float64(200000), dash["totalRevenue"])
}

func TestStatements(t *testing.T) {
	srv, repo := newTestServer(t, nil)
	ctx := context.Background()

	parties, err := repo.Parties.Find(ctx, "name", "Global Exports Inc.")
	require.NoError(t, err)
	require.Len(t, parties, 1)
	partyID := parties[0].ID

	rec := do(t, srv, http.MethodGet, "/api/parties/"+partyID+"/trips", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[map[string]any](t, rec)
	assert.Len(t, st["trips"], 1)
	assert.Equal(t, float64(110000), st["totals"].(map[string]any)["outstanding"])

	rec = do(t, srv, http.MethodGet, "/api/parties/"+partyID+"/statement", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	page := rec.Body.String()
	assert.Contains(t, page, "Statement of Account")
	assert.Contains(t, page, "Global Exports Inc.")
	assert.Contains(t, page, "Rs 110,000.00")

	brokers, err := repo.Brokers.List(ctx)
	require.NoError(t, err)
	rec = do(t, srv, http.MethodGet, "/api/brokers/"+brokers[0].ID+"/trips", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	owners, err := repo.Owners.List(ctx)
	require.NoError(t, err)
	rec = do(t, srv, http.MethodGet, "/api/owners/"+owners[0].ID+"/trips", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string]any](t, rec)["trips"], 1)

	rec = do(t, srv, http.MethodGet, "/api/parties/nope/statement", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReconcileEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := do(t, srv, http.MethodPost, "/api/reconcile?repair=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/reconcile?repair=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Len(t, body["drift"], 1)

	rec = do(t, srv, http.MethodPost, "/api/reconcile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[map[string]any](t, rec)["drift"])
}

func multipartImage(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "ledger.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/ocr/trips", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestExtractTrips(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		srv, _ := newTestServer(t, nil)
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, multipartImage(t, "image", []byte("x")))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, CodeUnavailable, decode[ErrorBody](t, rec).Code)
	})

	t.Run("drafts", func(t *testing.T) {
		stub := &stubExtractor{drafts: []core.Trip{{VehicleNumber: "TR-1", Date: "2025-07-13"}}}
		srv, _ := newTestServer(t, func(o *Options) { o.Extractor = stub })

		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, multipartImage(t, "image", []byte("png bytes")))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		drafts := decode[[]core.Trip](t, rec)
		require.Len(t, drafts, 1)
		assert.Equal(t, "TR-1", drafts[0].VehicleNumber)
		assert.Equal(t, []byte("png bytes"), stub.got)
	})

	t.Run("missing field", func(t *testing.T) {
		srv, _ := newTestServer(t, func(o *Options) { o.Extractor = &stubExtractor{} })
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, multipartImage(t, "file", []byte("x")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not an image", func(t *testing.T) {
		srv, _ := newTestServer(t, func(o *Options) { o.Extractor = &stubExtractor{err: extract.ErrNotImage} })
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, multipartImage(t, "image", []byte("x")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("model failure", func(t *testing.T) {
		srv, _ := newTestServer(t, func(o *Options) { o.Extractor = &stubExtractor{err: errors.New("quota")} })
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, multipartImage(t, "image", []byte("x")))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, CodeUpstream, decode[ErrorBody](t, rec).Code)
	})

	t.Run("too large", func(t *testing.T) {
		srv, _ := newTestServer(t, func(o *Options) { o.Extractor = &stubExtractor{} })
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, multipartImage(t, "image", make([]byte, extract.MaxImageBytes+10)))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestMiddlewareChain(t *testing.T) {
	srv, _ := newTestServer(t, func(o *Options) { o.CORSOrigins = []string{"https://books.example"} })

	req := httptest.NewRequest(http.MethodOptions, "/api/trips", nil)
	req.Header.Set("Origin", "https://books.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://books.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, srv, http.MethodGet, "/api/trips", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRateLimitOnWrites(t *testing.T) {
	srv, _ := newTestServer(t, func(o *Options) { o.RateLimitPerMin = 1 })

	rec := do(t, srv, http.MethodPost, "/api/parties", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/parties", `{}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, CodeRateLimit, decode[ErrorBody](t, rec).Code)

	rec = do(t, srv, http.MethodGet, "/api/parties", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	srv, _ := newTestServer(t, func(o *Options) { o.Metrics = m })

	do(t, srv, http.MethodGet, "/api/trips", nil)
	rec := do(t, srv, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `haulbook_http_requests_total{method="GET",route="GET /api/trips",status="200"} 1`)
}
