package ratelimit

import (
	"testing"
	"time"
)

func TestBudgetState_Thresholds(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		healthy  bool
		throttle bool
		block    bool
	}{
		{name: "no failures", failures: 0, healthy: true},
		{name: "below warning", failures: 4, healthy: true},
		{name: "at warning", failures: 5, throttle: true},
		{name: "between thresholds", failures: 19, throttle: true},
		{name: "at critical", failures: 20, block: true},
		{name: "above critical", failures: 100, block: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &BudgetState{
				Failures: tt.failures,
				Warning:  FailureThresholdWarning,
				Critical: FailureThresholdCritical,
			}
			if got := state.IsHealthy(); got != tt.healthy {
				t.Errorf("IsHealthy() = %v, want %v", got, tt.healthy)
			}
			if got := state.NeedsThrottling(); got != tt.throttle {
				t.Errorf("NeedsThrottling() = %v, want %v", got, tt.throttle)
			}
			if got := state.NeedsCriticalBlock(); got != tt.block {
				t.Errorf("NeedsCriticalBlock() = %v, want %v", got, tt.block)
			}
		})
	}
}

func TestBudgetState_TimeUntilReset(t *testing.T) {
	tests := []struct {
		name    string
		resetAt time.Time
		wantMin time.Duration
		wantMax time.Duration
	}{
		{
			name:    "future reset",
			resetAt: time.Now().Add(30 * time.Second),
			wantMin: 29 * time.Second,
			wantMax: 31 * time.Second,
		},
		{
			name:    "past reset",
			resetAt: time.Now().Add(-10 * time.Second),
			wantMin: 0,
			wantMax: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &BudgetState{ResetAt: tt.resetAt}
			got := state.TimeUntilReset()
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("TimeUntilReset() = %v, want between %v and %v", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestFailuresKey(t *testing.T) {
	if got := failuresKey("main"); got != "explorer:budget:main:failures" {
		t.Errorf("failuresKey() = %q", got)
	}
}
