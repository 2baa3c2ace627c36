package endpoint

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var fallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "explorer_endpoint_fallbacks_total",
	Help: "Requests whose endpoint name had no match and used the default endpoint",
})

// RepeatedValueMode selects how repeated endpoint query values are read.
type RepeatedValueMode string

const (
	// RepeatedFirst treats the first repeated value as authoritative.
	RepeatedFirst RepeatedValueMode = "first"

	// RepeatedLegacy reproduces the historical behavior: a repeated value was
	// looked up at index -1, which never exists, so the lookup always missed
	// and the default endpoint was used.
	RepeatedLegacy RepeatedValueMode = "legacy"
)

// ParseRepeatedValueMode accepts "first", "legacy" or "" (first).
func ParseRepeatedValueMode(s string) (RepeatedValueMode, error) {
	switch RepeatedValueMode(s) {
	case "", RepeatedFirst:
		return RepeatedFirst, nil
	case RepeatedLegacy:
		return RepeatedLegacy, nil
	default:
		return "", fmt.Errorf("unknown repeated endpoint mode %q", s)
	}
}

// Resolution is the outcome of resolving a page's endpoint.
type Resolution struct {
	Endpoint Endpoint

	// Requested is the name that was looked up, empty when none was given.
	Requested string

	// Fallback is set when a name was requested but not found and the
	// default endpoint was substituted.
	Fallback bool
}

// Resolver picks the endpoint for a page from its navigation context.
type Resolver struct {
	registry *Registry
	mode     RepeatedValueMode
	logger   zerolog.Logger
}

// NewResolver creates a resolver over a loaded registry.
func NewResolver(registry *Registry, mode RepeatedValueMode) *Resolver {
	if mode == "" {
		mode = RepeatedFirst
	}
	return &Resolver{
		registry: registry,
		mode:     mode,
		logger:   log.With().Str("component", "endpoint-resolver").Logger(),
	}
}

// Registry returns the registry the resolver reads from.
func (r *Resolver) Registry() *Registry {
	return r.registry
}

// Resolve applies the precedence path segment > query value(s) > default.
// An unknown name resolves to the default endpoint.
func (r *Resolver) Resolve(pathSegment string, queryValues []string) Resolution {
	name, given := r.requestedName(pathSegment, queryValues)
	if !given {
		return Resolution{Endpoint: r.registry.Default()}
	}

	if ep, ok := r.registry.FindByName(name); ok {
		return Resolution{Endpoint: ep, Requested: name}
	}

	def := r.registry.Default()
	fallbacksTotal.Inc()
	r.logger.Debug().
		Str("requested", name).
		Str("endpoint", def.Name).
		Msg("Unknown endpoint, using default")

	return Resolution{Endpoint: def, Requested: name, Fallback: true}
}

// requestedName reports the name to look up and whether any was supplied.
func (r *Resolver) requestedName(pathSegment string, queryValues []string) (string, bool) {
	if pathSegment != "" {
		return pathSegment, true
	}

	switch len(queryValues) {
	case 0:
		return "", false
	case 1:
		return queryValues[0], queryValues[0] != ""
	}

	if r.mode == RepeatedLegacy {
		// The lookup key was undefined; it is still a request that missed.
		return "", true
	}
	return queryValues[0], true
}
