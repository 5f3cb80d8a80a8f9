package services

import (
	"fmt"
	"math"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/wheelchair-racer/wr_api/clock"
	"github.com/wheelchair-racer/wr_api/dto"
	"github.com/wheelchair-racer/wr_api/middleware"
	"github.com/wheelchair-racer/wr_api/ratelimit"
	"github.com/wheelchair-racer/wr_api/shared"
)

const (
	RATE_LIMIT_SVC = "rate_limit_svc"

	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

type RateLimitService struct {
	context.DefaultService

	limiter         ratelimit.Limiter
	memory          *ratelimit.MemoryLimiter
	store           string
	cleanupInterval time.Duration
	clock           clock.Clock

	denials sync.Map // policy name -> *denialCounter
	stop    chan struct{}
	done    chan struct{}
}

type denialCounter struct {
	mu    sync.Mutex
	count float64
}

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *context.Context) error {
	svc.store = strings.ToLower(os.Getenv("RATE_LIMIT_STORE"))
	if svc.store == "" {
		svc.store = RateLimitStoreMemory
	}
	if svc.store != RateLimitStoreMemory && svc.store != RateLimitStoreRedis {
		return fmt.Errorf("unknown RATE_LIMIT_STORE %q", svc.store)
	}

	svc.cleanupInterval = ratelimit.DefaultCleanupInterval
	if raw := os.Getenv("RATE_LIMIT_CLEANUP_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil || interval <= 0 {
			return fmt.Errorf("invalid RATE_LIMIT_CLEANUP_INTERVAL %q", raw)
		}
		svc.cleanupInterval = interval
	}

	svc.clock = clock.NewSystemClock()

	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	switch svc.store {
	case RateLimitStoreRedis:
		redisSvc := svc.Service(REDIS_SVC).(*RedisService)
		svc.limiter = ratelimit.NewRedisLimiter(redisSvc.GetClient(), ratelimit.WithClock(svc.clock))

		// Redis expires keys itself; the sweep only trims stale hashes early.
		svc.stop = make(chan struct{})
		svc.done = make(chan struct{})
		go svc.startCleanupJob()
	default:
		svc.memory = ratelimit.NewMemoryLimiter(
			ratelimit.WithClock(svc.clock),
			ratelimit.WithCleanupInterval(svc.cleanupInterval),
		)
		svc.memory.Start()
		svc.limiter = svc.memory
	}

	log.WithFields(log.Fields{
		"store":            svc.store,
		"cleanup_interval": svc.cleanupInterval,
	}).Info("Rate limiter started")
	return nil
}

func (svc *RateLimitService) Shutdown() {
	if svc.memory != nil {
		svc.memory.Stop()
	}
	if svc.stop != nil {
		close(svc.stop)
		<-svc.done
		svc.stop = nil
	}
}

// NewRateLimitService builds a started service around limiter. Used by
// tests and tools that run outside the service container.
func NewRateLimitService(limiter ratelimit.Limiter, clk clock.Clock) *RateLimitService {
	return &RateLimitService{
		limiter: limiter,
		store:   RateLimitStoreMemory,
		clock:   clk,
	}
}

// ==================== CORE RATE LIMITING LOGIC ====================

// Allow counts one attempt of subject against policy. It returns a 429
// AppError once the budget is spent.
func (svc *RateLimitService) Allow(policy ratelimit.Policy, subject string) error {
	key := policy.Key(subject)
	if svc.limiter.Check(key, policy.Config()) {
		return nil
	}
	return svc.handleRateLimitExceeded(policy, subject)
}

// Clear forgets every attempt subject made against policy.
func (svc *RateLimitService) Clear(policy ratelimit.Policy, subject string) {
	svc.limiter.Clear(policy.Key(subject))
}

// Info reports the current budget of subject without counting an attempt.
func (svc *RateLimitService) Info(policy ratelimit.Policy, subject string) dto.RateLimitInfo {
	key := policy.Key(subject)
	cfg := policy.Config()
	remaining := svc.limiter.Remaining(key, cfg)
	resetIn := svc.limiter.ResetIn(key)

	return dto.RateLimitInfo{
		Policy:    policy.String(),
		Allowed:   remaining > 0,
		Limit:     cfg.MaxAttempts,
		Remaining: remaining,
		ResetIn:   resetIn,
		ResetAt:   svc.clock.Now().Add(resetIn),
	}
}

func (svc *RateLimitService) handleRateLimitExceeded(policy ratelimit.Policy, subject string) error {
	info := svc.Info(policy, subject)
	info.Allowed = false
	info.RetryAfter = int64(math.Ceil(info.ResetIn.Seconds()))

	svc.recordDenial(policy)

	log.WithFields(log.Fields{
		"policy":      policy.String(),
		"subject":     subject,
		"retry_after": info.RetryAfter,
	}).Info("Rate limit exceeded")

	message := fmt.Sprintf("Too many attempts. Please try again in %s.", ratelimit.FormatTimeRemaining(info.ResetIn))
	appErr := shared.NewTooManyRequestsError(message, fiber.Map{
		"retry_after": info.RetryAfter,
		"policy":      policy.String(),
	})
	appErr.Headers = middleware.RateLimitHeaders(info)
	return appErr
}

func (svc *RateLimitService) recordDenial(policy ratelimit.Policy) {
	rateLimitDenialsTotal.WithLabelValues(policy.String()).Inc()

	value, _ := svc.denials.LoadOrStore(policy.String(), &denialCounter{})
	counter := value.(*denialCounter)
	counter.mu.Lock()
	counter.count++
	counter.mu.Unlock()
}

func (svc *RateLimitService) denialCounts() map[string]float64 {
	counts := map[string]float64{}
	svc.denials.Range(func(key, value interface{}) bool {
		counter := value.(*denialCounter)
		counter.mu.Lock()
		counts[key.(string)] = counter.count
		counter.mu.Unlock()
		return true
	})
	return counts
}

// APICall throttles every API request per client address.
func (svc *RateLimitService) APICall() fiber.Handler {
	return middleware.RateLimit(svc, ratelimit.APICall, middleware.ByClientIP)
}

// ==================== ADMIN FUNCTIONS ====================

func (svc *RateLimitService) sampleTrackedKeys() int {
	tracked := svc.limiter.Len()
	rateLimitTrackedKeys.Set(float64(tracked))
	return tracked
}

func (svc *RateLimitService) Stats() dto.RateLimitStatsResponse {
	policies := make([]dto.RateLimitPolicyInfo, 0, len(ratelimit.Policies()))
	for _, policy := range ratelimit.Policies() {
		cfg := policy.Config()
		policies = append(policies, dto.RateLimitPolicyInfo{
			Name:          policy.String(),
			MaxAttempts:   cfg.MaxAttempts,
			WindowMs:      cfg.Window.Milliseconds(),
			BlockDuration: cfg.BlockDuration.Milliseconds(),
		})
	}

	return dto.RateLimitStatsResponse{
		Store:    svc.store,
		Tracked:  svc.sampleTrackedKeys(),
		Denials:  svc.denialCounts(),
		Policies: policies,
	}
}

// @Summary Rate limit statistics
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} shared.Response{data=dto.RateLimitStatsResponse}
// @Router /api/v1/admin/rate-limits [get]
func (svc *RateLimitService) GetRateLimitStats() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return shared.ResponseJSON(c, http.StatusOK, "Rate limit statistics", svc.Stats())
	}
}

// @Summary Sweep expired rate limit entries
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} shared.Response
// @Router /api/v1/admin/rate-limits/cleanup [post]
func (svc *RateLimitService) CleanupRateLimits() fiber.Handler {
	return func(c *fiber.Ctx) error {
		removed := svc.limiter.Cleanup()
		return shared.ResponseJSON(c, http.StatusOK, "Rate limits cleaned up successfully", fiber.Map{"removed": removed})
	}
}

// @Summary Clear one rate limit key
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param policy path string true "Policy name, e.g. LOGIN"
// @Param subject path string true "Subject the key was built from"
// @Success 200 {object} shared.Response
// @Failure 400 {object} shared.Response
// @Router /api/v1/admin/rate-limits/{policy}/{subject} [delete]
func (svc *RateLimitService) RemoveRateLimit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		policy, err := ratelimit.ParsePolicy(c.Params("policy"))
		if err != nil {
			return shared.NewBadRequestError(err, "Unknown rate limit policy")
		}

		subject := c.Params("subject")
		if subject == "" {
			return shared.NewBadRequestError(nil, "Missing subject")
		}

		svc.Clear(policy, subject)
		message := fmt.Sprintf("Rate limit removed for %s", policy.Key(subject))
		return shared.ResponseJSON(c, http.StatusOK, message, nil)
	}
}

// @Summary Clear every rate limit key
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} shared.Response
// @Router /api/v1/admin/rate-limits [delete]
func (svc *RateLimitService) ClearRateLimits() fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc.limiter.ClearAll()
		return shared.ResponseJSON(c, http.StatusOK, "All rate limits cleared", nil)
	}
}

// ==================== BACKGROUND JOBS ====================

func (svc *RateLimitService) startCleanupJob() {
	ticker := time.NewTicker(svc.cleanupInterval)
	defer ticker.Stop()
	defer close(svc.done)

	for {
		select {
		case <-ticker.C:
			removed := svc.limiter.Cleanup()
			svc.sampleTrackedKeys()
			log.WithField("removed", removed).Debug("Rate limit cleanup completed")
		case <-svc.stop:
			return
		}
	}
}
