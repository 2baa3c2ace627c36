package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Sternrassler/graphql-explorer/internal/config"
	"github.com/Sternrassler/graphql-explorer/pkg/cache"
	"github.com/Sternrassler/graphql-explorer/pkg/chain"
	"github.com/Sternrassler/graphql-explorer/pkg/endpoint"
	"github.com/Sternrassler/graphql-explorer/pkg/graphql"
	"github.com/Sternrassler/graphql-explorer/pkg/logging"
	"github.com/Sternrassler/graphql-explorer/pkg/metrics"
	"github.com/Sternrassler/graphql-explorer/pkg/ratelimit"
	"github.com/Sternrassler/graphql-explorer/pkg/web"
	"github.com/redis/go-redis/v9"
)

// app is the wired explorer.
type app struct {
	redis *redis.Client
	pages *web.Server
}

// newApp connects Redis when configured and wires the page server.
func newApp(ctx context.Context, cfg *config.AppConfig) (*app, error) {
	logger := logging.NewLogger("server")
	a := &app{}

	clientCfg := graphql.DefaultConfig(cfg.Upstream.UserAgent)
	clientCfg.Timeout = cfg.Upstream.Timeout
	clientCfg.MaxRetries = cfg.Upstream.MaxRetries

	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		a.redis = redis.NewClient(opts)
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.redis.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		logger.Info().Str("addr", opts.Addr).Msg("Connected to Redis")

		clientCfg.Cache = cache.NewManager(a.redis)
		clientCfg.Budget = ratelimit.NewTracker(a.redis, ratelimit.DefaultConfig(), logging.NewLogger("ratelimit"))
	} else {
		logger.Info().Msg("No Redis configured; response cache and error budget disabled")
	}

	client, err := graphql.New(clientCfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create GraphQL client: %w", err)
	}

	mode, err := endpoint.ParseRepeatedValueMode(cfg.Explorer.RepeatedEndpointMode)
	if err != nil {
		a.Close()
		return nil, err
	}

	svc := chain.NewService(client, chain.Options{
		ListTTL:   cfg.Explorer.PollInterval,
		DetailTTL: chain.DefaultOptions().DetailTTL,
	})

	a.pages, err = web.NewServer(endpoint.NewResolver(cfg.Endpoints, mode), svc, web.Config{
		PageLimit:    cfg.Explorer.PageLimit,
		FetchTimeout: cfg.Explorer.FetchTimeout,
		PollInterval: cfg.Explorer.PollInterval,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create page server: %w", err)
	}

	return a, nil
}

// Handler routes operational endpoints and pages.
func (a *app) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler(a.redis))
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", a.pages)
	return logging.Middleware(logging.NewLogger("http"), mux)
}

// Close releases the Redis connection.
func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// readyHandler reports whether Redis, when configured, answers.
func readyHandler(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Ping(r.Context()).Err(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				fmt.Fprintf(w, "Redis not ready: %v", err)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "Ready")
	}
}
