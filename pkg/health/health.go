// Package health serves the liveness, readiness and plain status probes.
//
// Probes run in background goroutines. A probe turns unhealthy only after
// failureThreshold consecutive failures and healthy again after one success,
// so a single slow ping does not flap readiness.
package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

const failureThreshold = 3

// CheckFunc reports nil when the checked dependency is healthy.
type CheckFunc func(ctx context.Context) error

type probe struct {
	name    string
	timeout time.Duration
	check   CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	// Only touched by the probe's own goroutine.
	fails int
}

func newProbe(name string, timeout time.Duration, check CheckFunc) *probe {
	p := &probe{name: name, timeout: timeout, check: check}
	p.healthy.Store(true)
	return p
}

func (p *probe) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.check(ctx)
	p.lastErr.Store(&err)
	if err == nil {
		p.fails = 0
		p.healthy.Store(true)
		return
	}
	p.fails++
	if p.fails >= failureThreshold {
		p.healthy.Store(false)
	}
}

func (p *probe) failure() string {
	if e := p.lastErr.Load(); e != nil && *e != nil {
		return (*e).Error()
	}
	return "check is unhealthy"
}

// Health aggregates liveness and readiness probes for the API process.
type Health struct {
	ready atomic.Bool

	mu     sync.RWMutex
	live   []*probe
	readyP []*probe
	cancel context.CancelFunc
}

// New creates a Health that reports not-ready until SetReady(true).
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a probe that reports whether the process works.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.live = append(h.live, newProbe(name, timeout, check))
}

// AddReadinessCheck registers a probe that gates incoming traffic, such as
// database connectivity.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readyP = append(h.readyP, newProbe(name, timeout, check))
}

// Start runs every probe immediately and then every interval until Stop or
// ctx cancellation.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := append(append([]*probe(nil), h.live...), h.readyP...)
	h.mu.Unlock()

	for _, p := range probes {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				p.run(ctx)
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}
		}()
	}
}

// Stop halts all probes. It is safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the manual readiness gate, e.g. off during shutdown.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the gate is open and all readiness probes pass.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, p := range h.readyP {
		if !p.healthy.Load() {
			return false
		}
	}
	return true
}

// StatusHandler serves GET /health with {"ok":true}. It does not consult
// probes.
func (h *Health) StatusHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		var e jx.Encoder
		e.ObjStart()
		e.FieldStart("ok")
		e.Bool(true)
		e.ObjEnd()
		write(w, http.StatusOK, e.Bytes())
	})
}

// LiveHandler serves /livez.
func (h *Health) LiveHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		h.mu.RLock()
		failures := unhealthy(h.live)
		h.mu.RUnlock()
		writeProbe(w, failures)
	})
}

// ReadyHandler serves /readyz.
func (h *Health) ReadyHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if !h.ready.Load() {
			writeProbe(w, [][2]string{{"ready", "service is not ready"}})
			return
		}
		h.mu.RLock()
		failures := unhealthy(h.readyP)
		h.mu.RUnlock()
		writeProbe(w, failures)
	})
}

func unhealthy(probes []*probe) [][2]string {
	var out [][2]string
	for _, p := range probes {
		if !p.healthy.Load() {
			out = append(out, [2]string{p.name, p.failure()})
		}
	}
	return out
}

func writeProbe(w http.ResponseWriter, failures [][2]string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("status")
	if len(failures) == 0 {
		e.Str("ok")
		e.ObjEnd()
		write(w, http.StatusOK, e.Bytes())
		return
	}
	e.Str("unhealthy")
	e.FieldStart("checks")
	e.ObjStart()
	for _, f := range failures {
		e.FieldStart(f[0])
		e.Str(f[1])
	}
	e.ObjEnd()
	e.ObjEnd()
	write(w, http.StatusServiceUnavailable, e.Bytes())
}

func write(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
