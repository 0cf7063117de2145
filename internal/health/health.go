// Package health serves liveness and readiness probes.
package health

import (
	"net/http"
	"sync"
)

// Healthz returns 200 "ok\n" unconditionally.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// Checker aggregates named readiness checks. The zero value has no checks
// and is always ready.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]func() bool
}

// Add registers a readiness check under name, replacing any previous one.
func (c *Checker) Add(name string, check func() bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.checks == nil {
		c.checks = make(map[string]func() bool)
	}
	c.checks[name] = check
}

// NotReady returns the names of failing checks.
func (c *Checker) NotReady() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var failing []string
	for name, check := range c.checks {
		if !check() {
			failing = append(failing, name)
		}
	}
	return failing
}

// Readyz returns 200 "ready\n" when every check passes, and 503 listing the
// failing checks otherwise.
func (c *Checker) Readyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	if failing := c.NotReady(); len(failing) > 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		for _, name := range failing {
			w.Write([]byte("not ready: " + name + "\n"))
		}
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready\n"))
}
