// Package graphql provides the upstream GraphQL transport used by every
// explorer page, with retries, response caching, an error budget per
// endpoint and Prometheus instrumentation.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/graphql-explorer/pkg/cache"
	"github.com/Sternrassler/graphql-explorer/pkg/endpoint"
	"github.com/Sternrassler/graphql-explorer/pkg/logging"
	"github.com/Sternrassler/graphql-explorer/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for upstream requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_graphql_requests_total",
		Help: "Total upstream GraphQL requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "explorer_graphql_request_duration_seconds",
		Help:    "Upstream GraphQL request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_graphql_errors_total",
		Help: "Total upstream GraphQL errors by class",
	}, []string{"class"})
)

// maxResponseBytes bounds how much of an upstream response is read.
const maxResponseBytes = 16 << 20

// Client talks to the configured GraphQL endpoints.
type Client struct {
	httpClient *http.Client
	cache      *cache.Manager
	budget     *ratelimit.Tracker
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// UserAgent header sent upstream.
	UserAgent string

	// Timeout per HTTP attempt.
	Timeout time.Duration

	// Retry
	MaxRetries     int
	InitialBackoff time.Duration

	// Cache is optional; nil disables response caching.
	Cache *cache.Manager

	// Budget is optional; nil disables the per-endpoint error budget.
	Budget *ratelimit.Tracker
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		UserAgent:      userAgent,
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		InitialBackoff: 250 * time.Millisecond,
	}
}

// Request is one GraphQL operation.
type Request struct {
	OperationName string
	Query         string
	Variables     map[string]any

	// CacheTTL enables caching of the response for this long; 0 disables it.
	CacheTTL time.Duration
}

// payload is the wire body of a request.
type payload struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// envelope is the wire body of a response.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
		Path    []any  `json:"path,omitempty"`
	} `json:"errors"`
}

// New creates a new GraphQL client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive (got %v)", cfg.Timeout)
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cfg.Cache,
		budget:     cfg.Budget,
		config:     cfg,
		logger:     log.With().Str("component", "graphql-client").Logger(),
	}, nil
}

// Do runs req against ep and decodes the response's data field into out.
func (c *Client) Do(ctx context.Context, ep endpoint.Endpoint, req Request, out any) error {
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(ep.Name).Observe(time.Since(startTime).Seconds())
	}()

	if c.cache == nil || req.CacheTTL <= 0 {
		data, err := c.execute(ctx, ep, req)
		if err != nil {
			return err
		}
		return decodeData(ep, req, data, out)
	}

	key := cache.Key{
		Endpoint:  ep.Name,
		Operation: req.OperationName,
		Query:     req.Query,
		Variables: req.Variables,
	}
	data, cached, err := c.cache.Fetch(ctx, key, req.CacheTTL, func(ctx context.Context) ([]byte, error) {
		return c.execute(ctx, ep, req)
	})
	if err != nil {
		return err
	}
	if cached {
		c.logger.Debug().
			Str("endpoint", ep.Name).
			Str("operation", req.OperationName).
			Msg("Cache hit")
	}
	return decodeData(ep, req, data, out)
}

// execute checks the error budget and runs req upstream with retries,
// returning the raw data field. Failures that survive every retry are
// charged to the endpoint's budget.
func (c *Client) execute(ctx context.Context, ep endpoint.Endpoint, req Request) (json.RawMessage, error) {
	if c.budget != nil {
		allowed, err := c.budget.ShouldAllowRequest(ctx, ep.Name)
		if err != nil {
			c.logger.Warn().Err(err).Str("endpoint", ep.Name).Msg("Error budget check failed")
		} else if !allowed {
			errorsTotal.WithLabelValues(string(ClassBudget)).Inc()
			requestsTotal.WithLabelValues(ep.Name, "budget_blocked").Inc()
			return nil, &Error{
				Endpoint:  ep.Name,
				Operation: req.OperationName,
				Class:     ClassBudget,
				Err:       ErrBudgetExhausted,
			}
		}
	}

	body, err := json.Marshal(payload{
		Query:         req.Query,
		OperationName: req.OperationName,
		Variables:     req.Variables,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal graphql request: %w", err)
	}

	c.logger.Debug().
		Str("endpoint", ep.Name).
		Str("operation", req.OperationName).
		Msg("Executing GraphQL request")

	var data json.RawMessage
	var failClass ErrorClass
	reqLogger := logging.FromContext(ctx, c.logger).With().Str("endpoint", ep.Name).Str("operation", req.OperationName).Logger()
	retryErr := retryWithBackoff(ctx, c.retryConfig(), reqLogger, func() (ErrorClass, error) {
		var attemptErr error
		data, attemptErr = c.attempt(ctx, ep, req, body)
		failClass = ClassOf(attemptErr)
		return failClass, attemptErr
	})

	if retryErr != nil {
		if c.budget != nil && countsAgainstBudget(failClass) {
			if _, err := c.budget.RecordFailure(ctx, ep.Name); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to record upstream failure")
			}
		}
		return nil, retryErr
	}
	return data, nil
}

// attempt performs a single HTTP round trip and returns the data field.
func (c *Client) attempt(ctx context.Context, ep endpoint.Endpoint, req Request, body []byte) (json.RawMessage, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URI, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Endpoint: ep.Name, Operation: req.OperationName, Class: ClassClient, Message: "create request", Err: err}
	}
	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", ep.Name).Msg("HTTP request failed")
		errorsTotal.WithLabelValues(string(ClassNetwork)).Inc()
		requestsTotal.WithLabelValues(ep.Name, "network_error").Inc()
		return nil, &Error{Endpoint: ep.Name, Operation: req.OperationName, Class: ClassNetwork, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		errorsTotal.WithLabelValues(string(ClassNetwork)).Inc()
		requestsTotal.WithLabelValues(ep.Name, "network_error").Inc()
		return nil, &Error{Endpoint: ep.Name, Operation: req.OperationName, Class: ClassNetwork, Message: "read response", Err: err}
	}

	requestsTotal.WithLabelValues(ep.Name, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		class := classifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Warn().
			Str("endpoint", ep.Name).
			Int("status_code", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("GraphQL request error")
		return nil, &Error{
			Endpoint:   ep.Name,
			Operation:  req.OperationName,
			StatusCode: resp.StatusCode,
			Class:      class,
			Message:    resp.Status,
		}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		errorsTotal.WithLabelValues(string(ClassDecode)).Inc()
		return nil, &Error{Endpoint: ep.Name, Operation: req.OperationName, StatusCode: resp.StatusCode, Class: ClassDecode, Err: err}
	}

	if len(env.Errors) > 0 {
		messages := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			messages = append(messages, e.Message)
		}
		errorsTotal.WithLabelValues(string(ClassGraphQL)).Inc()
		return nil, &Error{
			Endpoint:   ep.Name,
			Operation:  req.OperationName,
			StatusCode: resp.StatusCode,
			Class:      ClassGraphQL,
			Message:    strings.Join(messages, "; "),
		}
	}

	return env.Data, nil
}

// retryConfig derives the retry policy from the client configuration.
func (c *Client) retryConfig() RetryConfig {
	rc := DefaultRetryConfig()
	rc.MaxAttempts = c.config.MaxRetries + 1
	if c.config.InitialBackoff > 0 {
		rc.InitialBackoff = c.config.InitialBackoff
	}
	return rc
}

// classifyStatus maps an HTTP error status to an error class.
func classifyStatus(status int) ErrorClass {
	if status >= 500 {
		return ClassServer
	}
	return ClassClient
}

// decodeData unmarshals a data payload into out.
func decodeData(ep endpoint.Endpoint, req Request, data json.RawMessage, out any) error {
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		errorsTotal.WithLabelValues(string(ClassDecode)).Inc()
		return &Error{Endpoint: ep.Name, Operation: req.OperationName, Class: ClassDecode, Err: err}
	}
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
