package web

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sternrassler/graphql-explorer/pkg/chain"
	"github.com/Sternrassler/graphql-explorer/pkg/endpoint"
	"github.com/Sternrassler/graphql-explorer/pkg/graphql"
	"github.com/Sternrassler/graphql-explorer/pkg/pagination"
	"github.com/Sternrassler/graphql-explorer/pkg/querystate"
)

// excludeEmptyParam toggles hiding blocks without transactions.
const excludeEmptyParam = "excludeEmptyTxs"

// Explorer is the set of chain reads the pages need. *chain.Service
// implements it.
type Explorer interface {
	BlockList(ctx context.Context, ep endpoint.Endpoint, p chain.BlockListParams) ([]chain.Block, error)
	TransactionList(ctx context.Context, ep endpoint.Endpoint, p chain.TransactionListParams) ([]chain.Transaction, error)
	TransactionsByAccount(ctx context.Context, ep endpoint.Endpoint, p chain.AccountParams) (chain.AccountTransactions, error)
	BlockByHash(ctx context.Context, ep endpoint.Endpoint, hash string) (*chain.Block, error)
	TransactionByID(ctx context.Context, ep endpoint.Endpoint, id string) (*chain.Transaction, error)
}

// Page is the part every view shares.
type Page struct {
	Endpoint  endpoint.Endpoint
	Endpoints []endpoint.Endpoint
	// Requested is the endpoint name the request asked for when it had no
	// match and the default was used instead.
	Requested string
}

// FetchError is the inline message of a list whose fetch failed.
type FetchError struct {
	Message string
	Class   string
}

func newFetchError(err error) *FetchError {
	if err == nil {
		return nil
	}
	fe := &FetchError{Message: err.Error(), Class: string(graphql.ClassOf(err))}
	if errors.Is(err, context.DeadlineExceeded) && fe.Class == "" {
		fe.Class = "timeout"
	}
	return fe
}

// SummaryView is the main page: blocks and transactions at one cursor.
type SummaryView struct {
	Page
	Cursor          pagination.Cursor
	ExcludeEmptyTxs bool
	ToggleEmptyURL  string
	Summary         chain.Summary

	Blocks      []chain.Block
	BlocksError *FetchError

	Transactions      []chain.Transaction
	TransactionsError *FetchError

	Links pagination.Links
}

// AccountView is an account page with its two independently paged scopes.
type AccountView struct {
	Page
	Address string

	Signed        []chain.Transaction
	Involved      []chain.Transaction
	SignedLabel   string
	InvolvedLabel string
	TxCount       string
	TxError       *FetchError
	TxLinks       pagination.Links

	Mined           []chain.Block
	MinedError      *FetchError
	MineLinks       pagination.Links
	ExcludeEmptyTxs bool
	ToggleEmptyURL  string
}

// BlockView is a block detail page. Block is nil when the endpoint knows no
// such block.
type BlockView struct {
	Page
	Hash  string
	Block *chain.Block
	Error *FetchError
}

// TransactionView is a transaction detail page.
type TransactionView struct {
	Page
	ID          string
	Transaction *chain.Transaction
	Error       *FetchError
}

// request is what a page build needs from the incoming URL.
type request struct {
	route  Route
	rawURL string
	search string
}

// newRequest reads the page URL. Links of a live feed point at the page it
// refreshes, not at the feed.
func newRequest(route Route, u *url.URL) request {
	path := u.Path
	if route.Live {
		path = strings.TrimPrefix(path, "/"+livePrefix)
		if path == "" {
			path = "/"
		}
	}
	return request{route: route, rawURL: path + "?" + u.RawQuery, search: u.RawQuery}
}

func (s *Server) page(req request) Page {
	res := s.resolver.Resolve(req.route.EndpointSegment, querystate.Values(req.search, "endpoint"))
	p := Page{
		Endpoint:  res.Endpoint,
		Endpoints: s.resolver.Registry().All(),
	}
	if res.Fallback {
		p.Requested = res.Requested
	}
	return p
}

func toggleURL(rawURL string, on bool) string {
	path, search := splitURL(rawURL)
	return path + "?" + querystate.Replace(search, excludeEmptyParam, strconv.FormatBool(!on))
}

func splitURL(rawURL string) (string, string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL, ""
	}
	return u.Path, u.RawQuery
}

// buildSummary fetches both lists of the main page at the default cursor.
func (s *Server) buildSummary(ctx context.Context, req request) SummaryView {
	view := SummaryView{
		Page:            s.page(req),
		Cursor:          pagination.CursorFromSearch(req.search, pagination.ScopeDefault),
		ExcludeEmptyTxs: querystate.ReadBool(req.search, excludeEmptyParam),
	}
	view.ToggleEmptyURL = toggleURL(req.rawURL, view.ExcludeEmptyTxs)
	ep := view.Endpoint

	results := s.fetcher.FetchJobs(ctx, pagination.Cursors{pagination.ScopeDefault: view.Cursor}, []pagination.Job{
		{Name: "blocks", Scope: pagination.ScopeDefault, Fetch: func(ctx context.Context, r pagination.Request) (int, error) {
			blocks, err := s.explorer.BlockList(ctx, ep, chain.BlockListParams{
				Offset:          r.Offset,
				Limit:           r.Limit,
				ExcludeEmptyTxs: view.ExcludeEmptyTxs,
			})
			view.Blocks = blocks
			return len(blocks), err
		}},
		{Name: "transactions", Scope: pagination.ScopeDefault, Fetch: func(ctx context.Context, r pagination.Request) (int, error) {
			txs, err := s.explorer.TransactionList(ctx, ep, chain.TransactionListParams{Offset: r.Offset, Limit: r.Limit})
			view.Transactions = txs
			return len(txs), err
		}},
	})

	blocks, txs := results["blocks"], results["transactions"]
	view.BlocksError = s.listError("summary", "blocks", blocks.Err)
	view.TransactionsError = s.listError("summary", "transactions", txs.Err)
	if blocks.Err == nil {
		view.Summary = chain.Summarize(view.Blocks)
	}

	// One control pair drives both lists: older needs both pages full.
	view.Links = s.nav.Links(req.rawURL, pagination.ScopeDefault, pagination.ScopeState{
		Cursor:  view.Cursor,
		Fetched: min(blocks.Fetched, txs.Fetched),
	})
	return view
}

// maxAddressLen is the length of a 0x-prefixed 20-byte hex address; longer
// identifiers are cut to it before querying.
const maxAddressLen = 42

func accountAddress(search string) string {
	addr := querystate.ReadIdentifier(search)
	if len(addr) > maxAddressLen {
		addr = addr[:maxAddressLen]
	}
	return addr
}

// buildAccount fetches an account's transactions ("tx" scope) and mined
// blocks ("mine" scope) concurrently, each at its own cursor.
func (s *Server) buildAccount(ctx context.Context, req request) AccountView {
	view := AccountView{
		Page:            s.page(req),
		Address:         accountAddress(req.search),
		ExcludeEmptyTxs: querystate.ReadBool(req.search, excludeEmptyParam),
	}
	view.ToggleEmptyURL = toggleURL(req.rawURL, view.ExcludeEmptyTxs)
	ep := view.Endpoint
	limit := s.nav.Limit()

	cursors := pagination.CursorsFromSearch(req.search, pagination.ScopeTransactions, pagination.ScopeMined)
	if view.Address == "" {
		view.TxLinks = s.nav.MergedLinks(req.rawURL, pagination.ScopeTransactions, cursors[pagination.ScopeTransactions], pagination.MergedCount{})
		view.MineLinks = s.nav.Links(req.rawURL, pagination.ScopeMined, pagination.ScopeState{Cursor: cursors[pagination.ScopeMined], Loading: true})
		return view
	}

	var txs chain.AccountTransactions
	results := s.fetcher.FetchScopes(ctx, cursors, map[pagination.Scope]pagination.ScopeFetch{
		pagination.ScopeTransactions: func(ctx context.Context, r pagination.Request) (int, error) {
			var err error
			txs, err = s.explorer.TransactionsByAccount(ctx, ep, chain.AccountParams{
				Offset:  r.Offset,
				Limit:   r.Limit,
				Address: view.Address,
			})
			return max(len(txs.Signed), len(txs.Involved)), err
		},
		pagination.ScopeMined: func(ctx context.Context, r pagination.Request) (int, error) {
			blocks, err := s.explorer.BlockList(ctx, ep, chain.BlockListParams{
				Offset:          r.Offset,
				Limit:           r.Limit,
				ExcludeEmptyTxs: view.ExcludeEmptyTxs,
				Miner:           view.Address,
			})
			view.Mined = blocks
			return len(blocks), err
		},
	})

	txResult := results[pagination.ScopeTransactions]
	merged := pagination.MergedCount{}
	if txResult.Err != nil {
		view.TxError = s.listError("account", "transactions", txResult.Err)
	} else {
		view.Signed, view.Involved = txs.Signed, txs.Involved
		view.SignedLabel = pagination.CountLabel(len(txs.Signed), limit)
		view.InvolvedLabel = pagination.CountLabel(len(txs.Involved), limit)
		merged = pagination.Merge(
			pagination.Ready(txs.Signed),
			pagination.Ready(txs.Involved),
			chain.TransactionID,
			limit,
		)
	}
	view.TxCount = merged.Display()
	view.TxLinks = s.nav.MergedLinks(req.rawURL, pagination.ScopeTransactions, txResult.Cursor, merged)

	mineResult := results[pagination.ScopeMined]
	view.MinedError = s.listError("account", "mined", mineResult.Err)
	view.MineLinks = s.nav.Links(req.rawURL, pagination.ScopeMined, mineResult.State())

	return view
}

// buildBlock looks up the block named by the first bare token.
func (s *Server) buildBlock(ctx context.Context, req request) BlockView {
	view := BlockView{Page: s.page(req), Hash: querystate.ReadIdentifier(req.search)}

	ctx, cancel := context.WithTimeout(ctx, s.config.FetchTimeout)
	defer cancel()

	block, err := s.explorer.BlockByHash(ctx, view.Endpoint, view.Hash)
	view.Block = block
	view.Error = s.listError("block", "block", err)
	return view
}

// buildTransaction looks up the transaction named by the first bare token.
func (s *Server) buildTransaction(ctx context.Context, req request) TransactionView {
	view := TransactionView{Page: s.page(req), ID: querystate.ReadIdentifier(req.search)}

	ctx, cancel := context.WithTimeout(ctx, s.config.FetchTimeout)
	defer cancel()

	tx, err := s.explorer.TransactionByID(ctx, view.Endpoint, view.ID)
	view.Transaction = tx
	view.Error = s.listError("transaction", "transaction", err)
	return view
}

// listError records a failed list and converts it for inline display.
func (s *Server) listError(page, list string, err error) *FetchError {
	if err == nil {
		return nil
	}
	fetchErrorsTotal.WithLabelValues(page, list).Inc()
	return newFetchError(err)
}
