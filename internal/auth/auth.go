// Package auth enforces bearer-token access to the API.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/sky-map-team/stardroid-sub001/internal/httputil"
)

// Config holds authentication configuration.
type Config struct {
	Enabled bool
	Tokens  []string // any one of these is accepted
}

// exemptPaths are always public regardless of auth configuration.
var exemptPaths = map[string]bool{
	"/":              true,
	"/healthz":       true,
	"/readyz":        true,
	"/metrics":       true,
	"/api/v1/bodies": true,
}

// exemptPrefixes are path prefixes that are always public.
var exemptPrefixes = []string{
	"/api/v1/position/",
}

func isExempt(path string) bool {
	if exemptPaths[path] {
		return true
	}
	for _, prefix := range exemptPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// valid checks token against every configured token in constant time.
func (c Config) valid(token string) bool {
	ok := 0
	for _, t := range c.Tokens {
		ok |= subtle.ConstantTimeCompare([]byte(token), []byte(t))
	}
	return ok == 1
}

// Middleware returns an HTTP middleware that enforces Bearer token auth
// on non-exempt paths when auth is enabled. The SSE endpoint also accepts
// ?access_token=.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || isExempt(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok || !cfg.valid(token) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="skyephem"`)
				httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, found := strings.CutPrefix(header, "Bearer ")
		return token, found && token != ""
	}
	if r.URL.Path == "/api/v1/stream/sky" {
		if token := r.URL.Query().Get("access_token"); token != "" {
			return token, true
		}
	}
	return "", false
}
