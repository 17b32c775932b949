package user

import (
	"context"
	"sync"
	"time"
)

// LoginLimiter tracks consecutive failed logins per key in process memory.
// Once a key reaches the failure limit it is locked out for the lockout
// window. State is lost on restart.
type LoginLimiter struct {
	mu          sync.Mutex
	entries     map[string]*attempts
	maxFailures int
	lockout     time.Duration
}

type attempts struct {
	failures    int
	lastFailure time.Time
	lockedUntil time.Time
}

// NewLoginLimiter creates a limiter that locks a key for lockout after
// maxFailures consecutive failures.
func NewLoginLimiter(maxFailures int, lockout time.Duration) *LoginLimiter {
	return &LoginLimiter{
		entries:     make(map[string]*attempts),
		maxFailures: maxFailures,
		lockout:     lockout,
	}
}

// Allow reports whether key may attempt a login at now.
func (l *LoginLimiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.entries[key]
	if !ok || a.lockedUntil.IsZero() {
		return true
	}
	if now.Before(a.lockedUntil) {
		return false
	}
	delete(l.entries, key)
	return true
}

// Fail records a failed attempt for key.
func (l *LoginLimiter) Fail(key string, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.entries[key]
	if !ok {
		a = &attempts{}
		l.entries[key] = a
	}
	a.failures++
	a.lastFailure = now
	if a.failures >= l.maxFailures {
		a.lockedUntil = now.Add(l.lockout)
	}
}

// Reset clears the failure count for key.
func (l *LoginLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.entries, key)
}

// Prune drops expired lockouts and failure counts idle for longer than the
// lockout window.
func (l *LoginLimiter) Prune(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, a := range l.entries {
		if a.lockedUntil.IsZero() {
			if now.Sub(a.lastFailure) > l.lockout {
				delete(l.entries, key)
			}
			continue
		}
		if !now.Before(a.lockedUntil) {
			delete(l.entries, key)
		}
	}
}

// StartCleanup prunes the limiter every interval until ctx is done.
func (l *LoginLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				l.Prune(now)
			}
		}
	}()
}

func (l *LoginLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
