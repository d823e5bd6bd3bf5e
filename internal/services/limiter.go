package services

import (
	"sync"
	"time"
)

const (
	loginMaxAttempts = 5
	loginWindow      = 5 * time.Minute
)

// LoginLimiter tracks failed login attempts per client IP inside a sliding
// window. Successful logins are never recorded.
type LoginLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	max      int
	window   time.Duration
	now      func() time.Time
}

func NewLoginLimiter() *LoginLimiter {
	return &LoginLimiter{
		attempts: make(map[string][]time.Time),
		max:      loginMaxAttempts,
		window:   loginWindow,
		now:      time.Now,
	}
}

func (l *LoginLimiter) Allow(ip string) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.prune(ip)) < l.max
}

func (l *LoginLimiter) RecordFailure(ip string) {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.attempts[ip] = append(l.prune(ip), l.now())
}

// prune drops attempts outside the window. Caller must hold the lock.
func (l *LoginLimiter) prune(ip string) []time.Time {
	cutoff := l.now().Add(-l.window)
	kept := l.attempts[ip][:0]
	for _, t := range l.attempts[ip] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.attempts, ip)
		return nil
	}
	l.attempts[ip] = kept
	return kept
}
