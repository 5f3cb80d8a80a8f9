// Package ratelimit throttles user-initiated actions per key using a fixed
// counting window with an optional block once the window's budget is spent.
//
// A key moves through four states: open (no entry), counting, blocked and
// reset. Denials are reported as a boolean; callers turn them into user
// facing messages with FormatTimeRemaining(limiter.ResetIn(key)).
package ratelimit

import (
	"fmt"
	"math"
	"time"
)

const DefaultCleanupInterval = 5 * time.Minute

// Limiter is implemented by MemoryLimiter and RedisLimiter. None of the
// operations return errors; backends that can fail degrade to allowing.
type Limiter interface {
	// Check records an attempt for key and reports whether it is allowed.
	Check(key string, cfg Config) bool
	// Remaining reports attempts left before denial without recording one.
	Remaining(key string, cfg Config) int
	// ResetIn reports how long until key is allowed again.
	ResetIn(key string) time.Duration
	Clear(key string)
	ClearAll()
	// Cleanup removes entries whose window and block have both expired and
	// returns how many were removed.
	Cleanup() int
	Len() int
}

// FormatTimeRemaining renders d rounded up to whole seconds, minutes or hours,
// e.g. "1 second", "2 minutes", "2 hours".
func FormatTimeRemaining(d time.Duration) string {
	seconds := int64(math.Ceil(float64(d) / float64(time.Second)))
	if seconds < 0 {
		seconds = 0
	}
	if seconds < 60 {
		return plural(seconds, "second")
	}

	minutes := int64(math.Ceil(float64(seconds) / 60))
	if minutes < 60 {
		return plural(minutes, "minute")
	}

	hours := int64(math.Ceil(float64(minutes) / 60))
	return plural(hours, "hour")
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
