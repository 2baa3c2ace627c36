package web

import "strings"

// Kind is the page a path addresses.
type Kind string

const (
	KindSummary     Kind = "summary"
	KindAccount     Kind = "account"
	KindBlock       Kind = "block"
	KindTransaction Kind = "transaction"
)

// livePrefix marks the websocket feed of a page.
const livePrefix = "live"

// Route is a parsed request path.
type Route struct {
	// EndpointSegment is the endpoint named in the path, "" when omitted.
	EndpointSegment string
	Kind            Kind
	Live            bool
}

// ParseRoute maps a path to a page. Accepted shapes:
//
//	/                      summary, default endpoint
//	/<endpoint>/           summary
//	/<kind>/               detail page, default endpoint
//	/<endpoint>/<kind>/    detail page
//
// Any of them may be prefixed with /live. A single segment naming a page
// kind is read as that kind, never as an endpoint.
func ParseRoute(path string) (Route, bool) {
	segments := splitPath(path)

	var route Route
	if len(segments) > 0 && segments[0] == livePrefix {
		route.Live = true
		segments = segments[1:]
	}

	switch len(segments) {
	case 0:
		route.Kind = KindSummary
	case 1:
		if kind, ok := detailKind(segments[0]); ok {
			route.Kind = kind
		} else {
			route.EndpointSegment = segments[0]
			route.Kind = KindSummary
		}
	case 2:
		kind, ok := detailKind(segments[1])
		if !ok {
			return Route{}, false
		}
		route.EndpointSegment = segments[0]
		route.Kind = kind
	default:
		return Route{}, false
	}

	return route, true
}

func detailKind(segment string) (Kind, bool) {
	switch Kind(segment) {
	case KindAccount, KindBlock, KindTransaction:
		return Kind(segment), true
	}
	return "", false
}

func splitPath(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
