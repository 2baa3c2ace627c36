// Package querystate reads pagination cursors and the page identifier out of
// a URL search string.
//
// The search strings handled here are not strictly form-encoded: besides
// key=value pairs they carry a bare token (an address or hash) that
// identifies the entity a detail page shows, e.g. "?0xABC&tx=25". Malformed
// input never fails; it degrades to "no offset" and "no identifier".
package querystate

import (
	"net/url"
	"strconv"
	"strings"
)

// Scope distinguishes independent pagination cursors on one page.
// The empty scope is the default, unscoped cursor.
type Scope string

// DefaultOffsetParam is the query key of the default scope's cursor.
const DefaultOffsetParam = "offset"

// ParamName returns the query key carrying the scope's cursor.
func ParamName(scope Scope) string {
	if scope == "" {
		return DefaultOffsetParam
	}
	return string(scope)
}

// token is one '&'-separated element of a search string.
type token struct {
	raw   string
	key   string
	value string
	bare  bool
}

func split(search string) []token {
	search = strings.TrimPrefix(search, "?")
	if search == "" {
		return nil
	}

	parts := strings.Split(search, "&")
	tokens := make([]token, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		key, value, found := strings.Cut(part, "=")
		tokens = append(tokens, token{
			raw:   part,
			key:   unescape(key),
			value: unescape(value),
			bare:  !found,
		})
	}
	return tokens
}

// unescape decodes percent-encoding, keeping the raw text when it is invalid.
func unescape(s string) string {
	if v, err := url.QueryUnescape(s); err == nil {
		return v
	}
	return s
}

// Value returns the first value given for key.
func Value(search, key string) (string, bool) {
	for _, t := range split(search) {
		if !t.bare && t.key == key {
			return t.value, true
		}
	}
	return "", false
}

// Values returns every value given for key, in order.
func Values(search, key string) []string {
	var values []string
	for _, t := range split(search) {
		if !t.bare && t.key == key {
			values = append(values, t.value)
		}
	}
	return values
}

// ReadScopedOffset returns the scope's cursor, or 0 when the parameter is
// absent, not a number or negative.
func ReadScopedOffset(search string, scope Scope) int {
	raw, ok := Value(search, ParamName(scope))
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ReadIdentifier returns the first bare token, or "" when there is none.
// Later bare tokens are ignored.
func ReadIdentifier(search string) string {
	for _, t := range split(search) {
		if t.bare && t.key != "" {
			return t.key
		}
	}
	return ""
}

// ReadBool reports whether key is present with a true value ("1", "true",
// "on") or with no value at all ("key=").
func ReadBool(search, key string) bool {
	raw, ok := Value(search, key)
	if !ok {
		return false
	}
	switch strings.ToLower(raw) {
	case "", "1", "true", "on", "yes":
		return true
	}
	return false
}

// Replace returns search with key set to value. The first occurrence is
// rewritten in place and later duplicates are dropped; when key is absent
// the pair is appended. Every other token is kept verbatim and in order.
// The result has no leading '?'.
func Replace(search, key, value string) string {
	pair := url.QueryEscape(key) + "=" + url.QueryEscape(value)

	var out []string
	replaced := false
	for _, t := range split(search) {
		if !t.bare && t.key == key {
			if !replaced {
				out = append(out, pair)
				replaced = true
			}
			continue
		}
		out = append(out, t.raw)
	}
	if !replaced {
		out = append(out, pair)
	}
	return strings.Join(out, "&")
}
