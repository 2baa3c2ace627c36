package pagination

import (
	"math"
	"strconv"
	"strings"

	"github.com/Sternrassler/graphql-explorer/pkg/querystate"
)

// ScopeState is what the controls of one scope depend on.
type ScopeState struct {
	Cursor Cursor

	// Loading is set while a fetch for the scope is in flight.
	Loading bool

	// Fetched is the number of items the most recent fetch returned.
	Fetched int
}

// Controls reports which navigation controls are disabled.
type Controls struct {
	OlderDisabled bool
	NewerDisabled bool
}

// Links bundles the navigation targets of a scope with their state.
type Links struct {
	Older string
	Newer string
	Controls
}

// Navigator computes older/newer targets for a fixed page limit.
type Navigator struct {
	limit int
}

// NewNavigator creates a navigator; a non-positive limit uses DefaultPageLimit.
func NewNavigator(limit int) *Navigator {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	return &Navigator{limit: limit}
}

// Limit returns the page limit.
func (n *Navigator) Limit() int {
	return n.limit
}

// OlderCursor returns the cursor one page further into the collection.
// A cursor within one page of math.MaxInt is returned unchanged.
func (n *Navigator) OlderCursor(cur Cursor) Cursor {
	if cur < 0 {
		cur = 0
	}
	if n.atCeiling(cur) {
		return cur
	}
	return cur + Cursor(n.limit)
}

// NewerCursor returns the cursor one page back, never below zero.
func (n *Navigator) NewerCursor(cur Cursor) Cursor {
	if cur <= Cursor(n.limit) {
		return 0
	}
	return cur - Cursor(n.limit)
}

func (n *Navigator) atCeiling(cur Cursor) bool {
	return cur > Cursor(math.MaxInt-n.limit)
}

// Older returns rawURL with the scope's cursor advanced by one page.
func (n *Navigator) Older(rawURL string, scope Scope, cur Cursor) string {
	return WithCursor(rawURL, scope, n.OlderCursor(cur))
}

// Newer returns rawURL with the scope's cursor moved back by one page.
func (n *Navigator) Newer(rawURL string, scope Scope, cur Cursor) string {
	return WithCursor(rawURL, scope, n.NewerCursor(cur))
}

// Controls derives the disabled state of a single-collection scope.
func (n *Navigator) Controls(s ScopeState) Controls {
	return Controls{
		OlderDisabled: s.Loading || !MayHaveMore(s.Fetched, n.limit) || n.atCeiling(s.Cursor),
		NewerDisabled: s.Loading || s.Cursor <= 0,
	}
}

// MergedControls derives the disabled state of a scope whose page shows two
// collections folded by Merge. An unavailable merge counts as loading.
func (n *Navigator) MergedControls(cur Cursor, m MergedCount) Controls {
	loading := !m.Available
	return Controls{
		OlderDisabled: loading || m.Count < n.limit || n.atCeiling(cur),
		NewerDisabled: loading || cur <= 0,
	}
}

// Links computes both targets and the controls of a scope.
func (n *Navigator) Links(rawURL string, scope Scope, s ScopeState) Links {
	return Links{
		Older:    n.Older(rawURL, scope, s.Cursor),
		Newer:    n.Newer(rawURL, scope, s.Cursor),
		Controls: n.Controls(s),
	}
}

// MergedLinks is Links for a scope backed by a merged pair of collections.
func (n *Navigator) MergedLinks(rawURL string, scope Scope, cur Cursor, m MergedCount) Links {
	return Links{
		Older:    n.Older(rawURL, scope, cur),
		Newer:    n.Newer(rawURL, scope, cur),
		Controls: n.MergedControls(cur, m),
	}
}

// WithCursor returns rawURL with only the scope's parameter set to cur.
// Path, fragment and every other search token are preserved.
func WithCursor(rawURL string, scope Scope, cur Cursor) string {
	if cur < 0 {
		cur = 0
	}

	rest, fragment, hasFragment := strings.Cut(rawURL, "#")
	path, search, _ := strings.Cut(rest, "?")

	search = querystate.Replace(search, querystate.ParamName(scope), strconv.Itoa(int(cur)))

	out := path + "?" + search
	if hasFragment {
		out += "#" + fragment
	}
	return out
}
