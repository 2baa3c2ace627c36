package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for budget tracking.
var (
	upstreamFailures = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "explorer_upstream_failures",
		Help: "Upstream failures counted in the current budget window by endpoint",
	}, []string{"endpoint"})

	budgetBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_budget_blocks_total",
		Help: "Total number of upstream requests refused due to an exhausted error budget",
	}, []string{"endpoint"})

	budgetThrottlesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_budget_throttles_total",
		Help: "Total number of upstream requests throttled due to a low error budget",
	}, []string{"endpoint"})
)

// Config holds tracker thresholds.
type Config struct {
	Window        time.Duration
	Warning       int
	Critical      int
	ThrottleDelay time.Duration
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		Window:        DefaultWindow,
		Warning:       FailureThresholdWarning,
		Critical:      FailureThresholdCritical,
		ThrottleDelay: DefaultThrottleDelay,
	}
}

// Tracker monitors upstream failures per endpoint and gates requests.
type Tracker struct {
	redis  *redis.Client
	config Config
	logger zerolog.Logger
}

// NewTracker creates a new budget tracker.
func NewTracker(redisClient *redis.Client, config Config, logger zerolog.Logger) *Tracker {
	def := DefaultConfig()
	if config.Window <= 0 {
		config.Window = def.Window
	}
	if config.Warning <= 0 {
		config.Warning = def.Warning
	}
	if config.Critical <= 0 {
		config.Critical = def.Critical
	}
	if config.ThrottleDelay < 0 {
		config.ThrottleDelay = 0
	}

	return &Tracker{
		redis:  redisClient,
		config: config,
		logger: logger,
	}
}

// GetState retrieves the endpoint's budget from Redis.
// A missing counter is a healthy, empty budget.
func (t *Tracker) GetState(ctx context.Context, endpoint string) (*BudgetState, error) {
	key := failuresKey(endpoint)

	state := &BudgetState{
		Endpoint: endpoint,
		Warning:  t.config.Warning,
		Critical: t.config.Critical,
		ResetAt:  time.Now().Add(t.config.Window),
	}

	failures, err := t.redis.Get(ctx, key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return state, nil
		}
		return nil, fmt.Errorf("get failures: %w", err)
	}
	state.Failures = failures

	ttl, err := t.redis.PTTL(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("get window ttl: %w", err)
	}
	if ttl > 0 {
		state.ResetAt = time.Now().Add(ttl)
	}

	return state, nil
}

// RecordFailure counts one failed upstream call for the endpoint.
func (t *Tracker) RecordFailure(ctx context.Context, endpoint string) (*BudgetState, error) {
	key := failuresKey(endpoint)

	pipe := t.redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	// The window starts with the first failure.
	pipe.ExpireNX(ctx, key, t.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("record failure in redis: %w", err)
	}

	state := &BudgetState{
		Endpoint: endpoint,
		Failures: int(incr.Val()),
		ResetAt:  time.Now().Add(t.config.Window),
		Warning:  t.config.Warning,
		Critical: t.config.Critical,
	}
	upstreamFailures.WithLabelValues(endpoint).Set(float64(state.Failures))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().
			Str("endpoint", endpoint).
			Int("failures", state.Failures).
			Msg("Upstream error budget exhausted - requests will be refused")
	case state.NeedsThrottling():
		t.logger.Warn().
			Str("endpoint", endpoint).
			Int("failures", state.Failures).
			Msg("Upstream error budget low - requests will be throttled")
	default:
		t.logger.Debug().
			Str("endpoint", endpoint).
			Int("failures", state.Failures).
			Msg("Upstream failure recorded")
	}

	return state, nil
}

// ShouldAllowRequest checks the endpoint's budget.
// Returns false if the request must be refused; a throttled request waits
// for the throttle delay (or until ctx is done) and is then allowed.
func (t *Tracker) ShouldAllowRequest(ctx context.Context, endpoint string) (bool, error) {
	state, err := t.GetState(ctx, endpoint)
	if err != nil {
		return false, fmt.Errorf("get budget state: %w", err)
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Str("endpoint", endpoint).
			Int("failures", state.Failures).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("Upstream error budget exhausted - blocking request")

		budgetBlocksTotal.WithLabelValues(endpoint).Inc()
		return false, nil
	}

	if state.NeedsThrottling() {
		t.logger.Warn().
			Str("endpoint", endpoint).
			Int("failures", state.Failures).
			Msg("Upstream error budget low - throttling request")

		budgetThrottlesTotal.WithLabelValues(endpoint).Inc()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(t.config.ThrottleDelay):
		}
	}

	return true, nil
}
