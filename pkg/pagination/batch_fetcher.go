package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/graphql-explorer/pkg/logging"
	"github.com/rs/zerolog/log"
)

// Config holds batch fetcher configuration.
type Config struct {
	// Limit is the page limit passed to every fetch.
	Limit int

	// Timeout per scope fetch.
	Timeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Limit:   DefaultPageLimit,
		Timeout: 15 * time.Second,
	}
}

// Request is what a scope fetch receives: the page window to load.
type Request struct {
	Offset int
	Limit  int
}

// ScopeFetch loads one page for a scope and returns how many items it got.
// Implementations keep the typed items themselves.
type ScopeFetch func(ctx context.Context, req Request) (fetched int, err error)

// ScopeResult is the outcome of one scope's fetch.
type ScopeResult struct {
	Scope    Scope
	Cursor   Cursor
	Fetched  int
	Err      error
	Duration time.Duration
}

// State converts a completed result into the navigator's input.
func (r ScopeResult) State() ScopeState {
	return ScopeState{Cursor: r.Cursor, Fetched: r.Fetched}
}

// BatchFetcher runs the fetches of independent scopes concurrently.
type BatchFetcher struct {
	config Config
}

// NewBatchFetcher creates a new batch fetcher.
func NewBatchFetcher(config Config) *BatchFetcher {
	if config.Limit <= 0 {
		config.Limit = DefaultPageLimit
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &BatchFetcher{config: config}
}

// Limit returns the page limit passed to fetches.
func (bf *BatchFetcher) Limit() int {
	return bf.config.Limit
}

// Job is one list fetch. Jobs sharing a scope share its cursor.
type Job struct {
	Name  string
	Scope Scope
	Fetch ScopeFetch
}

// FetchScopes fetches every scope in parallel, one worker per scope, each
// at its own cursor. Errors stay with their scope.
func (bf *BatchFetcher) FetchScopes(ctx context.Context, cursors Cursors, fetches map[Scope]ScopeFetch) map[Scope]ScopeResult {
	jobs := make([]Job, 0, len(fetches))
	for scope, fetch := range fetches {
		jobs = append(jobs, Job{Name: string(scope), Scope: scope, Fetch: fetch})
	}

	byName := bf.FetchJobs(ctx, cursors, jobs)

	results := make(map[Scope]ScopeResult, len(byName))
	for _, result := range byName {
		results[result.Scope] = result
	}
	return results
}

// FetchJobs runs every job in parallel, one worker per job, and returns the
// results keyed by job name. Errors stay with their job.
func (bf *BatchFetcher) FetchJobs(ctx context.Context, cursors Cursors, jobs []Job) map[string]ScopeResult {
	start := time.Now()

	results := make(map[string]ScopeResult, len(jobs))
	resultsMutex := sync.Mutex{}

	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			result := bf.fetchScope(ctx, job.Scope, cursors[job.Scope], job.Fetch)

			resultsMutex.Lock()
			results[job.Name] = result
			resultsMutex.Unlock()
		}(job)
	}
	wg.Wait()

	log.Debug().
		Int("jobs", len(jobs)).
		Dur("duration", time.Since(start)).
		Msg("Scope fetch complete")

	return results
}

// fetchScope runs one fetch with the per-scope timeout.
func (bf *BatchFetcher) fetchScope(ctx context.Context, scope Scope, cur Cursor, fetch ScopeFetch) ScopeResult {
	if cur < 0 {
		cur = 0
	}
	result := ScopeResult{Scope: scope, Cursor: cur}

	select {
	case <-ctx.Done():
		result.Err = fmt.Errorf("scope %q: %w", scope, ctx.Err())
		return result
	default:
	}

	scopeCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	defer cancel()

	start := time.Now()
	fetched, err := fetch(scopeCtx, Request{Offset: int(cur), Limit: bf.config.Limit})
	result.Duration = time.Since(start)

	if err != nil {
		logger := logging.FromContext(ctx, log.Logger)
		logger.Warn().
			Err(err).
			Str("scope", string(scope)).
			Int("offset", int(cur)).
			Msg("Scope fetch failed")
		result.Err = err
		return result
	}

	result.Fetched = fetched
	return result
}
