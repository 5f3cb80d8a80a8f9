package dto

import "time"

type RateLimitInfo struct {
	Policy     string        `json:"policy"`
	Allowed    bool          `json:"allowed"`
	Limit      int           `json:"limit"`
	Remaining  int           `json:"remaining"`
	ResetIn    time.Duration `json:"-"`
	ResetAt    time.Time     `json:"-"`
	RetryAfter int64         `json:"retry_after,omitempty"`
}

type RateLimitPolicyInfo struct {
	Name          string `json:"name"`
	MaxAttempts   int    `json:"max_attempts"`
	WindowMs      int64  `json:"window_ms"`
	BlockDuration int64  `json:"block_duration_ms,omitempty"`
}

type RateLimitStatsResponse struct {
	Store    string                `json:"store"`
	Tracked  int                   `json:"tracked"`
	Denials  map[string]float64    `json:"denials,omitempty"`
	Policies []RateLimitPolicyInfo `json:"policies"`
}
