package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// KeyPrefix is prepended to every cache key.
const KeyPrefix = "explorer:gql"

// Key identifies a cached GraphQL response.
type Key struct {
	// Endpoint is the configured endpoint name (not its URI).
	Endpoint string

	// Operation is the GraphQL operation name, e.g. "BlockList".
	Operation string

	// Query is the full query document; only its hash ends up in the key.
	Query string

	// Variables are the query variables.
	Variables map[string]any
}

// String generates a deterministic cache key string.
// Format: explorer:gql:endpoint:operation:queryhash:var1=val1:var2=val2
//
// Example:
//
//	explorer:gql:main:BlockList:3f2a9c1d0b7e:limit=25:offset=50
func (k Key) String() string {
	parts := []string{KeyPrefix, endpointSegment(k.Endpoint)}

	if k.Operation != "" {
		parts = append(parts, k.Operation)
	}

	if k.Query != "" {
		sum := sha256.Sum256([]byte(k.Query))
		parts = append(parts, hex.EncodeToString(sum[:6]))
	}

	if len(k.Variables) > 0 {
		names := make([]string, 0, len(k.Variables))
		for name := range k.Variables {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%v", name, k.Variables[name]))
		}
	}

	return strings.Join(parts, ":")
}

var segmentEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

// endpointSegment escapes the key separator so one endpoint's keys never
// share a prefix with another's.
func endpointSegment(name string) string {
	return segmentEscaper.Replace(name)
}

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

// endpointPattern is the SCAN pattern matching every key of one endpoint.
func endpointPattern(name string) string {
	return KeyPrefix + ":" + globEscaper.Replace(endpointSegment(name)) + ":*"
}
