package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMiddleware_GeneratesRequestID(t *testing.T) {
	var seen string
	h := NewMiddleware(nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r)
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trips", nil))

	assert.True(t, strings.HasPrefix(seen, "req_"))
	assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestMiddleware_KeepsCallerID(t *testing.T) {
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"valid", "abc-123.X_y", true},
		{"spaces", "abc 123", false},
		{"too long", strings.Repeat("a", 65), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := NewMiddleware(func(*http.Request) string { return "10.0.0.1" }).Middleware(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { seen = RequestID(r) }))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(HeaderRequestID, tt.header)
			h.ServeHTTP(httptest.NewRecorder(), req)

			if tt.keep {
				assert.Equal(t, tt.header, seen)
			} else {
				assert.NotEqual(t, tt.header, seen)
				assert.True(t, strings.HasPrefix(seen, "req_"))
			}
		})
	}
}

func TestGetRequestID_Empty(t *testing.T) {
	assert.Empty(t, GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, "INFO", levelFor(http.StatusCreated).String())
	assert.Equal(t, "WARN", levelFor(http.StatusNotFound).String())
	assert.Equal(t, "ERROR", levelFor(http.StatusBadGateway).String())
}
