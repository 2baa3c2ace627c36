// Package pagination implements offset-cursor paging for explorer pages.
//
// A page may carry several independent cursors, one per Scope ("" for the
// default cursor, "tx" and "mine" on the account page). Cursors are derived
// from the URL on every request and never stored anywhere else. Moving to an
// older or newer page produces a new URL in which only the navigated scope's
// parameter changed.
//
// Whether an older page exists is not known exactly: the upstream API returns
// no total count. MayHaveMore applies the full-page heuristic instead, see
// its documentation for the accepted false positive.
//
// Example usage:
//
//	nav := pagination.NewNavigator(25)
//	cur := pagination.CursorFromSearch(r.URL.RawQuery, "tx")
//	links := nav.Links(r.URL.RequestURI(), "tx", pagination.ScopeState{Cursor: cur, Fetched: len(txs)})
//
// BatchFetcher runs the fetches of several scopes concurrently; a failing
// scope never affects the others.
package pagination
