// Package ratelimit keeps a per-endpoint upstream error budget in Redis.
//
// Every failed upstream call is counted in a fixed window. While the count
// is below the warning threshold requests pass freely; above it they are
// slowed down, and once the critical threshold is reached requests to that
// endpoint are refused until the window resets. The budget is shared by all
// explorer instances that use the same Redis.
package ratelimit

import (
	"fmt"
	"time"
)

// RedisKeyPrefix prefixes the per-endpoint failure counters.
const RedisKeyPrefix = "explorer:budget"

// Default thresholds for budget decisions.
const (
	// FailureThresholdWarning applies throttling at this many failures in a window.
	FailureThresholdWarning = 5

	// FailureThresholdCritical blocks requests at this many failures in a window.
	FailureThresholdCritical = 20

	// DefaultWindow is the length of a failure counting window.
	DefaultWindow = 60 * time.Second

	// DefaultThrottleDelay is how long a throttled request waits.
	DefaultThrottleDelay = 500 * time.Millisecond
)

// failuresKey returns the Redis key of an endpoint's failure counter.
func failuresKey(endpoint string) string {
	return fmt.Sprintf("%s:%s:failures", RedisKeyPrefix, endpoint)
}

// BudgetState is the error budget of one endpoint.
type BudgetState struct {
	// Endpoint is the configured endpoint name.
	Endpoint string `json:"endpoint"`

	// Failures counted in the current window.
	Failures int `json:"failures"`

	// ResetAt is when the current window ends.
	ResetAt time.Time `json:"reset_at"`

	// Warning and Critical are the thresholds the state was evaluated with.
	Warning  int `json:"warning"`
	Critical int `json:"critical"`
}

// NeedsCriticalBlock returns true if requests should be refused.
func (s *BudgetState) NeedsCriticalBlock() bool {
	return s.Failures >= s.Critical
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *BudgetState) NeedsThrottling() bool {
	return s.Failures >= s.Warning && !s.NeedsCriticalBlock()
}

// IsHealthy reports a budget below the warning threshold.
func (s *BudgetState) IsHealthy() bool {
	return s.Failures < s.Warning
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s *BudgetState) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}
