// Package endpoint holds the statically configured upstream GraphQL
// endpoints and resolves which one a page request targets.
package endpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrConfig is wrapped by every ConfigError.
var ErrConfig = errors.New("endpoint configuration")

// ConfigError reports a missing or malformed endpoint configuration.
// It is fatal: the process must not start without a valid registry.
type ConfigError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", ErrConfig, e.Reason, e.Err)
	}
	return fmt.Sprintf("%v: %s", ErrConfig, e.Reason)
}

// Unwrap allows errors.Is(err, ErrConfig).
func (e *ConfigError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConfig, e.Err}
	}
	return []error{ErrConfig}
}

// Endpoint is a named upstream GraphQL API target.
type Endpoint struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// Registry is the ordered, read-only set of configured endpoints.
// It is safe for concurrent reads.
type Registry struct {
	entries []Endpoint
}

// Load parses a JSON array of {name, uri} objects.
func Load(raw string) (*Registry, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &ConfigError{Reason: "endpoint list is not set"}
	}

	var entries []Endpoint
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, &ConfigError{Reason: "endpoint list is not a JSON array of {name, uri} objects", Err: err}
	}

	return New(entries)
}

// New builds a registry from already decoded entries.
func New(entries []Endpoint) (*Registry, error) {
	if len(entries) == 0 {
		return nil, &ConfigError{Reason: "endpoint list is empty"}
	}

	seen := make(map[string]struct{}, len(entries))
	for i, ep := range entries {
		if ep.Name == "" {
			return nil, &ConfigError{Reason: fmt.Sprintf("entry %d has an empty name", i)}
		}
		if _, dup := seen[ep.Name]; dup {
			return nil, &ConfigError{Reason: fmt.Sprintf("duplicate endpoint name %q", ep.Name)}
		}
		seen[ep.Name] = struct{}{}
	}

	return &Registry{entries: append([]Endpoint(nil), entries...)}, nil
}

// FindByName performs an exact, case-sensitive, first-match lookup.
// An empty name never matches.
func (r *Registry) FindByName(name string) (Endpoint, bool) {
	if name == "" {
		return Endpoint{}, false
	}
	for _, ep := range r.entries {
		if ep.Name == name {
			return ep, true
		}
	}
	return Endpoint{}, false
}

// Default returns the first endpoint in configuration order.
func (r *Registry) Default() Endpoint {
	return r.entries[0]
}

// All returns a copy of the endpoints in configuration order.
func (r *Registry) All() []Endpoint {
	return append([]Endpoint(nil), r.entries...)
}

// Len returns the number of configured endpoints.
func (r *Registry) Len() int {
	return len(r.entries)
}
