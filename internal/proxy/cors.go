package proxy

import (
	"net/http"
	"strconv"
	"strings"

	"wesline/internal/config"
)

// exposedHeaders are readable by browser code on cross-origin responses.
var exposedHeaders = []string{UpstreamHeader, RequestIDHeader, "Retry-After"}

// CORS adds cross-origin headers to every response and answers OPTIONS
// preflights with 204 without calling the wrapped handler.
type CORS struct {
	wildcard bool
	origins  map[string]struct{}
	methods  string
	headers  string
	maxAge   string
}

// NewCORS builds the middleware from the [cors] config section.
func NewCORS(cfg config.CORS) *CORS {
	c := &CORS{
		origins: make(map[string]struct{}, len(cfg.AllowedOrigins)),
		methods: strings.Join(cfg.AllowedMethods, ", "),
		headers: strings.Join(cfg.AllowedHeaders, ", "),
	}
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			c.wildcard = true
			continue
		}
		c.origins[strings.TrimRight(origin, "/")] = struct{}{}
	}
	if cfg.MaxAgeSeconds > 0 {
		c.maxAge = strconv.Itoa(cfg.MaxAgeSeconds)
	}
	return c
}

// Allowed reports whether a browser origin may read responses.
func (c *CORS) Allowed(origin string) bool {
	if origin == "" {
		return false
	}
	if c.wildcard {
		return true
	}
	_, ok := c.origins[strings.TrimRight(origin, "/")]
	return ok
}

// Wrap applies the CORS policy to next.
func (c *CORS) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		origin := r.Header.Get("Origin")
		header.Add("Vary", "Origin")

		switch {
		case c.wildcard:
			header.Set("Access-Control-Allow-Origin", "*")
		case c.Allowed(origin):
			header.Set("Access-Control-Allow-Origin", origin)
		}
		if header.Get("Access-Control-Allow-Origin") != "" {
			header.Set("Access-Control-Expose-Headers", strings.Join(exposedHeaders, ", "))
		}

		if r.Method == http.MethodOptions {
			if header.Get("Access-Control-Allow-Origin") != "" {
				if c.methods != "" {
					header.Set("Access-Control-Allow-Methods", c.methods)
				}
				if c.headers != "" {
					header.Set("Access-Control-Allow-Headers", c.headers)
				}
				if c.maxAge != "" {
					header.Set("Access-Control-Max-Age", c.maxAge)
				}
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
