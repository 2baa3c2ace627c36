// Package web serves the explorer pages: the summary of an endpoint, account
// pages with independently paged transaction and mined-block lists, block
// and transaction details, and a websocket feed that keeps a page fresh.
package web

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/Sternrassler/graphql-explorer/pkg/endpoint"
	"github.com/Sternrassler/graphql-explorer/pkg/logging"
	"github.com/Sternrassler/graphql-explorer/pkg/pagination"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for page rendering.
var (
	pageRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_page_requests_total",
		Help: "Total page requests by page kind",
	}, []string{"page"})

	pageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "explorer_page_duration_seconds",
		Help:    "Time to fetch and render a page by page kind",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15},
	}, []string{"page"})

	fetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_page_fetch_errors_total",
		Help: "Lists rendered with an inline fetch error by page and list",
	}, []string{"page", "list"})
)

// Config holds page server configuration.
type Config struct {
	// PageLimit is the number of items per list page.
	PageLimit int

	// FetchTimeout bounds each upstream list fetch.
	FetchTimeout time.Duration

	// PollInterval is the live feed refresh period.
	PollInterval time.Duration
}

// DefaultConfig returns the default page server configuration.
func DefaultConfig() Config {
	return Config{
		PageLimit:    pagination.DefaultPageLimit,
		FetchTimeout: 15 * time.Second,
		PollInterval: 2 * time.Second,
	}
}

// Server renders explorer pages.
type Server struct {
	resolver *endpoint.Resolver
	explorer Explorer
	nav      *pagination.Navigator
	fetcher  *pagination.BatchFetcher
	pages    *pageTemplates
	upgrader websocket.Upgrader
	config   Config
	logger   zerolog.Logger
}

// NewServer creates a page server.
func NewServer(resolver *endpoint.Resolver, explorer Explorer, cfg Config) (*Server, error) {
	def := DefaultConfig()
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = def.PageLimit
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}

	pages, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	return &Server{
		resolver: resolver,
		explorer: explorer,
		nav:      pagination.NewNavigator(cfg.PageLimit),
		fetcher: pagination.NewBatchFetcher(pagination.Config{
			Limit:   cfg.PageLimit,
			Timeout: cfg.FetchTimeout,
		}),
		pages: pages,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		config: cfg,
		logger: log.With().Str("component", "web").Logger(),
	}, nil
}

// ServeHTTP dispatches a request to its page.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route, ok := ParseRoute(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if route.Live {
		if route.Kind != KindSummary {
			http.NotFound(w, r)
			return
		}
		s.serveLive(w, r, newRequest(route, r.URL))
		return
	}

	start := time.Now()
	page := string(route.Kind)
	pageRequestsTotal.WithLabelValues(page).Inc()
	defer func() {
		pageDuration.WithLabelValues(page).Observe(time.Since(start).Seconds())
	}()

	req := newRequest(route, r.URL)
	var view any
	switch route.Kind {
	case KindSummary:
		view = s.buildSummary(r.Context(), req)
	case KindAccount:
		view = s.buildAccount(r.Context(), req)
	case KindBlock:
		view = s.buildBlock(r.Context(), req)
	case KindTransaction:
		view = s.buildTransaction(r.Context(), req)
	}

	s.render(r.Context(), w, route.Kind, view)
}

// render executes the page template into a buffer so a template failure
// never leaves a half-written page.
func (s *Server) render(ctx context.Context, w http.ResponseWriter, kind Kind, view any) {
	var buf bytes.Buffer
	if err := s.pages.execute(&buf, kind, view); err != nil {
		if ctx.Err() != nil {
			return
		}
		logger := logging.FromContext(ctx, s.logger)
		logger.Error().Err(err).Str("page", string(kind)).Msg("Failed to render page")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to write response")
	}
}
