package ratelimit

import (
	"time"

	"github.com/wheelchair-racer/wr_api/clock"
)

const (
	DefaultRedisPrefix  = "ratelimit:"
	DefaultRedisTimeout = 250 * time.Millisecond
)

type options struct {
	clock           clock.Clock
	cleanupInterval time.Duration
	prefix          string
	timeout         time.Duration
}

type Option func(*options)

func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithCleanupInterval sets how often Start sweeps expired entries.
func WithCleanupInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.cleanupInterval = d
		}
	}
}

// WithPrefix sets the Redis key namespace. Ignored by MemoryLimiter.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithTimeout bounds every Redis round trip. Ignored by MemoryLimiter.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		clock:           clock.NewSystemClock(),
		cleanupInterval: DefaultCleanupInterval,
		prefix:          DefaultRedisPrefix,
		timeout:         DefaultRedisTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
