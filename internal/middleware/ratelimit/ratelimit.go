// Package ratelimit throttles requests per caller with a fixed-window
// counter. Callers are keyed by owner identity, falling back to the remote
// address when no identity is present.
package ratelimit

import (
	"net/http"
	"sync"
	"time"
)

type callerInfo struct {
	windowStart time.Time
	requests    int
}

// Limiter tracks request counts per caller.
type Limiter struct {
	mu      sync.Mutex
	callers map[string]*callerInfo

	requestsPerMinute int
	cleanupInterval   time.Duration
	stopCleanup       chan struct{}
	stopOnce          sync.Once
}

// Config holds limiter settings.
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 120,
		CleanupInterval:   5 * time.Minute,
	}
}

func NewLimiter(cfg Config) *Limiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultConfig().CleanupInterval
	}
	l := &Limiter{
		callers:           make(map[string]*callerInfo),
		requestsPerMinute: cfg.RequestsPerMinute,
		cleanupInterval:   cfg.CleanupInterval,
		stopCleanup:       make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow reports whether the caller is within its per-minute budget.
func (l *Limiter) Allow(caller string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	info, ok := l.callers[caller]
	if !ok || now.Sub(info.windowStart) > time.Minute {
		l.callers[caller] = &callerInfo{windowStart: now, requests: 1}
		return true
	}
	info.requests++
	return info.requests <= l.requestsPerMinute
}

// ActiveCallers returns the number of currently tracked callers.
func (l *Limiter) ActiveCallers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.callers)
}

// Stop terminates the cleanup goroutine.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.dropStale()
		case <-l.stopCleanup:
			return
		}
	}
}

func (l *Limiter) dropStale() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := time.Now().Add(-10 * time.Minute)
	for caller, info := range l.callers {
		if info.windowStart.Before(cutoff) {
			delete(l.callers, caller)
		}
	}
}

// Wrap returns next guarded by the limiter. Over-budget callers receive 429
// with a Retry-After header.
func (l *Limiter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := r.Header.Get("X-Owner-ID")
		if caller == "" {
			caller = r.RemoteAddr
		}
		if !l.Allow(caller) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
