// Package ratelimit implements fixed-window request counting keyed by user
// or client IP. The store is pluggable; the in-memory implementation is
// process-local and therefore only correct for single-instance deployments.
// Multi-instance deployments need a shared store behind the same interface.
package ratelimit

import (
	"sync"
	"time"
)

// Config names one endpoint class's limit.
type Config struct {
	Prefix      string // key namespace, e.g. "face-swap"
	MaxRequests int
	Window      time.Duration
}

// Named limit configurations per endpoint class.
var (
	FaceSwap    = Config{Prefix: "face-swap", MaxRequests: 10, Window: time.Hour}
	ImageUpload = Config{Prefix: "image-upload", MaxRequests: 20, Window: 10 * time.Minute}
	API         = Config{Prefix: "api", MaxRequests: 100, Window: time.Minute}
	Login       = Config{Prefix: "login", MaxRequests: 5, Window: 15 * time.Minute}

	// GuestTrial gives one swap per identifier, effectively forever.
	GuestTrial = Config{Prefix: "guest-trial", MaxRequests: 1, Window: 100 * 365 * 24 * time.Hour}
)

// Result is the outcome of one limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration // populated only when blocked
	ResetAt    time.Time
}

// window is one fixed counting window.
type window struct {
	Count   int
	ResetAt time.Time
}

// Store holds rate-limit windows. Increment starts a fresh window when none
// exists or the current one has expired, increments it, and returns the
// updated window.
type Store interface {
	Increment(key string, windowDur time.Duration, now time.Time) window
	// Sweep evicts expired windows.
	Sweep(now time.Time)
}

// Limiter checks requests against named configurations using one shared
// store.
type Limiter struct {
	store Store
	now   func() time.Time
}

// New creates a limiter backed by store. A nil store gets an in-memory one.
func New(store Store) *Limiter {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Limiter{store: store, now: time.Now}
}

// Check counts one request for identifier under cfg and reports whether it
// is allowed.
func (l *Limiter) Check(cfg Config, identifier string) Result {
	now := l.now()
	w := l.store.Increment(cfg.Prefix+":"+identifier, cfg.Window, now)

	res := Result{
		Allowed: w.Count <= cfg.MaxRequests,
		Limit:   cfg.MaxRequests,
		ResetAt: w.ResetAt,
	}
	if remaining := cfg.MaxRequests - w.Count; remaining > 0 {
		res.Remaining = remaining
	}
	if !res.Allowed {
		res.RetryAfter = w.ResetAt.Sub(now)
	}
	return res
}

// Sweep evicts expired windows from the store. Meant to be called
// periodically from a background goroutine.
func (l *Limiter) Sweep() {
	l.store.Sweep(l.now())
}

// MemoryStore is the process-local Store.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]window
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]window)}
}

func (s *MemoryStore) Increment(key string, windowDur time.Duration, now time.Time) window {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || now.After(w.ResetAt) {
		w = window{Count: 0, ResetAt: now.Add(windowDur)}
	}
	w.Count++
	s.windows[key] = w
	return w
}

func (s *MemoryStore) Sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, w := range s.windows {
		if now.After(w.ResetAt) {
			delete(s.windows, key)
		}
	}
}
