package ratelimit

import (
	"sync"
	"time"

	"github.com/wheelchair-racer/wr_api/clock"
)

type entry struct {
	count        int
	resetAt      time.Time
	blockedUntil time.Time // zero when not blocked
}

func (e *entry) blocked(now time.Time) bool {
	return !e.blockedUntil.IsZero() && e.blockedUntil.After(now)
}

func (e *entry) expired(now time.Time) bool {
	return e.resetAt.Before(now)
}

// MemoryLimiter keeps entries in a process-local map. One mutex guards the
// map and is held for the duration of a single operation.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry

	clock           clock.Clock
	cleanupInterval time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
	started  bool
}

func NewMemoryLimiter(opts ...Option) *MemoryLimiter {
	o := buildOptions(opts)
	return &MemoryLimiter{
		entries:         make(map[string]*entry),
		clock:           o.clock,
		cleanupInterval: o.cleanupInterval,
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}
}

// ==================== CORE RATE LIMITING LOGIC ====================

func (l *MemoryLimiter) Check(key string, cfg Config) bool {
	cfg = cfg.normalized()

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	e, ok := l.entries[key]

	if ok && e.blocked(now) {
		return false
	}

	if !ok || e.expired(now) {
		l.entries[key] = &entry{count: 1, resetAt: now.Add(cfg.Window)}
		return true
	}

	e.count++
	if e.count > cfg.MaxAttempts {
		if cfg.BlockDuration > 0 {
			e.blockedUntil = now.Add(cfg.BlockDuration)
		}
		return false
	}
	return true
}

func (l *MemoryLimiter) Remaining(key string, cfg Config) int {
	cfg = cfg.normalized()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || e.expired(l.clock.Now()) {
		return cfg.MaxAttempts
	}
	return max(0, cfg.MaxAttempts-e.count)
}

func (l *MemoryLimiter) ResetIn(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		return 0
	}

	now := l.clock.Now()
	if e.blocked(now) {
		return e.blockedUntil.Sub(now)
	}
	return max(0, e.resetAt.Sub(now))
}

func (l *MemoryLimiter) Clear(key string) {
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
}

func (l *MemoryLimiter) ClearAll() {
	l.mu.Lock()
	l.entries = make(map[string]*entry)
	l.mu.Unlock()
}

func (l *MemoryLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	removed := 0
	for key, e := range l.entries {
		if !e.expired(now) {
			continue
		}
		if !e.blockedUntil.IsZero() && !e.blockedUntil.Before(now) {
			continue
		}
		delete(l.entries, key)
		removed++
	}
	return removed
}

func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// ==================== BACKGROUND JOBS ====================

// Start launches the periodic cleanup sweep. It must be paired with Stop.
func (l *MemoryLimiter) Start() {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return
	}
	l.started = true
	l.mu.Unlock()

	go l.runCleanup()
}

func (l *MemoryLimiter) runCleanup() {
	defer close(l.done)

	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Cleanup()
		case <-l.stop:
			return
		}
	}
}

// Stop cancels the cleanup sweep and waits for it to exit. Safe to call more
// than once, and before Start.
func (l *MemoryLimiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)

		l.mu.Lock()
		started := l.started
		l.mu.Unlock()

		if started {
			<-l.done
		}
	})
}
