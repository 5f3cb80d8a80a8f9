package ratelimit_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelchair-racer/wr_api/clock"
	"github.com/wheelchair-racer/wr_api/ratelimit"
)

var epoch = time.UnixMilli(1_700_000_000_000)

type limiterFactory func(t *testing.T, clk clock.Clock) ratelimit.Limiter

// runLimiterContract exercises the behaviour every Limiter must share.
func runLimiterContract(t *testing.T, newLimiter limiterFactory) {
	setup := func(t *testing.T) (ratelimit.Limiter, *clock.ManualClock) {
		clk := clock.NewManualClock(epoch)
		return newLimiter(t, clk), clk
	}

	t.Run("first attempt is allowed", func(t *testing.T) {
		l, _ := setup(t)
		cfg := ratelimit.Config{MaxAttempts: 3, Window: time.Second}

		assert.True(t, l.Check("test-key", cfg))
		assert.Equal(t, 2, l.Remaining("test-key", cfg))
	})

	t.Run("allows up to the limit then denies", func(t *testing.T) {
		l, _ := setup(t)
		cfg := ratelimit.Config{MaxAttempts: 3, Window: time.Second}

		for i := 0; i < 3; i++ {
			require.True(t, l.Check("test-key", cfg), "attempt %d", i+1)
		}
		assert.False(t, l.Check("test-key", cfg))
	})

	t.Run("window expiry resets the count", func(t *testing.T) {
		l, clk := setup(t)
		cfg := ratelimit.Config{MaxAttempts: 2, Window: time.Second}

		l.Check("test-key", cfg)
		l.Check("test-key", cfg)
		require.False(t, l.Check("test-key", cfg))

		clk.Advance(1001 * time.Millisecond)
		assert.True(t, l.Check("test-key", cfg))
		assert.Equal(t, 1, l.Remaining("test-key", cfg))
	})

	t.Run("window end itself is still inside the window", func(t *testing.T) {
		l, clk := setup(t)
		cfg := ratelimit.Config{MaxAttempts: 1, Window: time.Second}

		require.True(t, l.Check("test-key", cfg))
		clk.Advance(time.Second)
		assert.False(t, l.Check("test-key", cfg))
	})

	t.Run("keys are independent", func(t *testing.T) {
		l, _ := setup(t)
		cfg := ratelimit.Config{MaxAttempts: 2, Window: time.Second, BlockDuration: time.Minute}

		l.Check("key1", cfg)
		l.Check("key1", cfg)
		require.False(t, l.Check("key1", cfg))

		assert.True(t, l.Check("key2", cfg))
		assert.Equal(t, 1, l.Remaining("key2", cfg))
	})

	t.Run("block outlives the window", func(t *testing.T) {
		l, clk := setup(t)
		cfg := ratelimit.Config{MaxAttempts: 2, Window: time.Second, BlockDuration: 5 * time.Second}

		l.Check("test-key", cfg)
		l.Check("test-key", cfg)
		require.False(t, l.Check("test-key", cfg))

		clk.Advance(1001 * time.Millisecond)
		assert.False(t, l.Check("test-key", cfg))

		clk.Advance(4000 * time.Millisecond)
		assert.True(t, l.Check("test-key", cfg))
		assert.Equal(t, 1, l.Remaining("test-key", cfg))
	})

	t.Run("block ends exactly at blockedUntil", func(t *testing.T) {
		l, clk := setup(t)
		cfg := ratelimit.Config{MaxAttempts: 1, Window: time.Second, BlockDuration: 5 * time.Second}

		l.Check("test-key", cfg)
		require.False(t, l.Check("test-key", cfg))

		clk.Advance(5 * time.Second)
		assert.True(t, l.Check("test-key", cfg))
	})

	t.Run("remaining counts down and floors at zero", func(t *testing.T) {
		l, _ := setup(t)
		cfg := ratelimit.Config{MaxAttempts: 5, Window: time.Second}

		assert.Equal(t, 5, l.Remaining("test-key", cfg))
		l.Check("test-key", cfg)
		assert.Equal(t, 4, l.Remaining("test-key", cfg))
		l.Check("test-key", cfg)
		assert.Equal(t, 3, l.Remaining("test-key", cfg))

		small := ratelimit.Config{MaxAttempts: 2, Window: time.Second}
		for i := 0; i < 3; i++ {
			l.Check("other", small)
		}
		assert.Equal(t, 0, l.Remaining("other", small))
	})

	t.Run("remaining treats an expired entry as fresh", func(t *testing.T) {
		l, clk := setup(t)
		cfg := ratelimit.Config{MaxAttempts: 3, Window: time.Second}

		l.Check("test-key", cfg)
		l.Check("test-key", cfg)
		clk.Advance(2 * time.Second)
		assert.Equal(t, 3, l.Remaining("test-key", cfg))
	})

	t.Run("reset in", func(t *testing.T) {
		l, clk := setup(t)
		cfg := ratelimit.Config{MaxAttempts: 2, Window: time.Second}

		assert.Equal(t, time.Duration(0), l.ResetIn("test-key"))

		l.Check("test-key", cfg)
		reset := l.ResetIn("test-key")
		assert.Greater(t, reset, time.Duration(0))
		assert.LessOrEqual(t, reset, time.Second)

		clk.Advance(400 * time.Millisecond)
		assert.Equal(t, 600*time.Millisecond, l.ResetIn("test-key"))

		clk.Advance(5 * time.Second)
		assert.Equal(t, time.Duration(0), l.ResetIn("test-key"))
	})

	t.Run("reset in reports the block", func(t *testing.T) {
		l, clk := setup(t)
		cfg := ratelimit.Config{MaxAttempts: 1, Window: time.Second, BlockDuration: 5 * time.Second}

		l.Check("test-key", cfg)
		l.Check("test-key", cfg)

		reset := l.ResetIn("test-key")
		assert.Greater(t, reset, time.Duration(0))
		assert.LessOrEqual(t, reset, 5*time.Second)

		clk.Advance(2 * time.Second)
		assert.Equal(t, 3*time.Second, l.ResetIn("test-key"))
	})

	t.Run("clear resets one key", func(t *testing.T) {
		l, _ := setup(t)
		cfg := ratelimit.Config{MaxAttempts: 2, Window: time.Second, BlockDuration: time.Hour}

		l.Check("test-key", cfg)
		l.Check("test-key", cfg)
		require.False(t, l.Check("test-key", cfg))

		l.Clear("test-key")
		assert.Equal(t, 2, l.Remaining("test-key", cfg))
		assert.Equal(t, time.Duration(0), l.ResetIn("test-key"))
		assert.True(t, l.Check("test-key", cfg))
	})

	t.Run("clear leaves other keys alone", func(t *testing.T) {
		l, _ := setup(t)
		cfg := ratelimit.Config{MaxAttempts: 2, Window: time.Second}

		l.Check("key1", cfg)
		l.Check("key2", cfg)
		l.Clear("key1")

		assert.Equal(t, 2, l.Remaining("key1", cfg))
		assert.Equal(t, 1, l.Remaining("key2", cfg))
	})

	t.Run("clear all", func(t *testing.T) {
		l, _ := setup(t)
		cfg := ratelimit.Config{MaxAttempts: 2, Window: time.Second}

		for _, k := range []string{"key1", "key2", "key3"} {
			l.Check(k, cfg)
		}
		require.Equal(t, 3, l.Len())

		l.ClearAll()

		assert.Equal(t, 0, l.Len())
		for _, k := range []string{"key1", "key2", "key3"} {
			assert.Equal(t, 2, l.Remaining(k, cfg))
		}
	})

	t.Run("cleanup only removes fully expired entries", func(t *testing.T) {
		l, clk := setup(t)
		short := ratelimit.Config{MaxAttempts: 5, Window: time.Second}
		blocking := ratelimit.Config{MaxAttempts: 1, Window: time.Second, BlockDuration: time.Minute}
		long := ratelimit.Config{MaxAttempts: 5, Window: time.Hour}

		l.Check("expired", short)
		l.Check("blocked", blocking)
		l.Check("blocked", blocking)
		l.Check("active", long)

		clk.Advance(2 * time.Second)
		assert.Equal(t, 1, l.Cleanup())
		assert.Equal(t, 2, l.Len())
		assert.False(t, l.Check("blocked", blocking))

		clk.Advance(2 * time.Minute)
		assert.Equal(t, 1, l.Cleanup())
		assert.Equal(t, 1, l.Len())
		assert.Equal(t, 4, l.Remaining("active", long))
	})

	t.Run("every policy denies the attempt after its maximum", func(t *testing.T) {
		l, _ := setup(t)
		for _, p := range ratelimit.Policies() {
			cfg := p.Config()
			key := p.Key("subject")
			for i := 0; i < cfg.MaxAttempts; i++ {
				require.True(t, l.Check(key, cfg), "%s attempt %d", p, i+1)
			}
			assert.False(t, l.Check(key, cfg), "%s attempt %d", p, cfg.MaxAttempts+1)
		}
	})

	t.Run("login scenario", func(t *testing.T) {
		l, clk := setup(t)
		key := ratelimit.Login.Key("a@b.com")
		cfg := ratelimit.Login.Config()

		for i := 0; i < 5; i++ {
			require.True(t, l.Check(key, cfg))
		}
		require.False(t, l.Check(key, cfg))

		reset := l.ResetIn(key)
		assert.Greater(t, reset, time.Duration(0))
		assert.LessOrEqual(t, reset, 15*time.Minute)

		clk.Advance(900001 * time.Millisecond)
		assert.True(t, l.Check(key, cfg))
	})

	t.Run("non-positive config is clamped", func(t *testing.T) {
		l, _ := setup(t)
		cfg := ratelimit.Config{}

		assert.True(t, l.Check("zero", cfg))
		assert.False(t, l.Check("zero", cfg))
		assert.Equal(t, 0, l.Remaining("zero", cfg))
	})

	t.Run("many keys", func(t *testing.T) {
		l, _ := setup(t)
		cfg := ratelimit.Config{MaxAttempts: 1, Window: time.Minute}
		for i := 0; i < 250; i++ {
			l.Check(fmt.Sprintf("k%d", i), cfg)
		}
		assert.Equal(t, 250, l.Len())
	})
}
