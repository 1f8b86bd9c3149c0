package auth

import (
	"net/http"
	"strings"
)

// Skipper allows callers to bypass authentication for specific requests.
type Skipper func(r *http.Request) bool

// Middleware enforces bearer-token authentication on incoming requests.
type Middleware struct {
	config  Config
	skipper Skipper
}

// NewMiddleware constructs Middleware with validation config. Health checks
// are skipped by default.
func NewMiddleware(cfg Config) Middleware {
	return Middleware{
		config: cfg,
		skipper: func(r *http.Request) bool {
			return r.URL.Path == "/healthz"
		},
	}
}

// Wrap attaches authentication handling to an http.Handler.
func (m Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipper != nil && m.skipper(r) {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.parseRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func (m Middleware) parseRequest(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, ErrMissingToken
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return nil, ErrInvalidToken
	}
	return Parse(token, m.config)
}
