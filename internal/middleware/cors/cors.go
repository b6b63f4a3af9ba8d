// Package cors answers browser preflight requests and tags responses with
// the allowed origin.
package cors

import (
	"net/http"
	"strconv"
	"strings"
)

// Config holds CORS configuration. AllowedOrigins of "*" allows any origin.
type Config struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		MaxAge:         600,
	}
}

// ParseOrigins splits a comma separated origin list.
func ParseOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			out = append(out, o)
		}
	}
	return out
}

type Middleware struct {
	any     bool
	origins map[string]bool
	methods string
	headers string
	maxAge  string
}

func New(config Config) *Middleware {
	def := DefaultConfig()
	if len(config.AllowedOrigins) == 0 {
		config.AllowedOrigins = def.AllowedOrigins
	}
	if len(config.AllowedMethods) == 0 {
		config.AllowedMethods = def.AllowedMethods
	}
	if len(config.AllowedHeaders) == 0 {
		config.AllowedHeaders = def.AllowedHeaders
	}
	m := &Middleware{
		origins: make(map[string]bool),
		methods: strings.Join(config.AllowedMethods, ", "),
		headers: strings.Join(config.AllowedHeaders, ", "),
	}
	if config.MaxAge > 0 {
		m.maxAge = strconv.Itoa(config.MaxAge)
	}
	for _, o := range config.AllowedOrigins {
		if o == "*" {
			m.any = true
		}
		m.origins[o] = true
	}
	return m
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or
// "" when it is not allowed.
func (m *Middleware) allowOrigin(origin string) string {
	if m.any {
		return "*"
	}
	if m.origins[origin] {
		return origin
	}
	return ""
}

// Handler returns the CORS middleware. Preflight requests are answered with
// 204 and never reach next.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Add("Vary", "Origin")
		allowed := m.allowOrigin(origin)
		if allowed != "" {
			h.Set("Access-Control-Allow-Origin", allowed)
			h.Set("Access-Control-Expose-Headers", "X-Request-ID")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			if allowed != "" {
				h.Set("Access-Control-Allow-Methods", m.methods)
				h.Set("Access-Control-Allow-Headers", m.headers)
				if m.maxAge != "" {
					h.Set("Access-Control-Max-Age", m.maxAge)
				}
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
