package pagination

import (
	"github.com/Sternrassler/graphql-explorer/pkg/querystate"
)

// DefaultPageLimit is the number of items requested per fetch when no
// limit is configured.
const DefaultPageLimit = 25

// Scope identifies one of the independent cursors on a page.
type Scope = querystate.Scope

// Well-known scopes.
const (
	ScopeDefault      Scope = ""
	ScopeTransactions Scope = "tx"
	ScopeMined        Scope = "mine"
)

// Cursor is a non-negative offset into a server-side ordered collection.
type Cursor int

// Cursors maps each scope on a page to its cursor.
type Cursors map[Scope]Cursor

// CursorFromSearch reads one scope's cursor from a search string.
func CursorFromSearch(search string, scope Scope) Cursor {
	return Cursor(querystate.ReadScopedOffset(search, scope))
}

// CursorsFromSearch reads the cursors of the given scopes.
func CursorsFromSearch(search string, scopes ...Scope) Cursors {
	cursors := make(Cursors, len(scopes))
	for _, scope := range scopes {
		cursors[scope] = CursorFromSearch(search, scope)
	}
	return cursors
}

// MayHaveMore is the full-page heuristic: a fetch that returned limit items
// may be followed by another page. A last page of exactly limit items is
// reported as having more, which is an accepted approximation of a total
// count query the upstream does not offer.
func MayHaveMore(fetched, limit int) bool {
	return fetched >= limit
}
