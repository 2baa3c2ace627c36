package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/graphql-explorer/pkg/endpoint"
	"github.com/Sternrassler/graphql-explorer/pkg/graphql"
)

// Querier runs one GraphQL request. *graphql.Client implements it.
type Querier interface {
	Do(ctx context.Context, ep endpoint.Endpoint, req graphql.Request, out any) error
}

// Options controls response caching per query kind.
type Options struct {
	// ListTTL caches list pages; lists move as the chain grows, so keep it
	// at or below the poll interval.
	ListTTL time.Duration

	// DetailTTL caches block and transaction lookups.
	DetailTTL time.Duration
}

// DefaultOptions returns the default cache lifetimes.
func DefaultOptions() Options {
	return Options{
		ListTTL:   2 * time.Second,
		DetailTTL: 30 * time.Second,
	}
}

// Service runs the explorer's read operations against an endpoint.
type Service struct {
	q    Querier
	opts Options
}

// NewService creates a Service on top of q.
func NewService(q Querier, opts Options) *Service {
	return &Service{q: q, opts: opts}
}

// BlockListParams selects a page of blocks, newest first.
type BlockListParams struct {
	Offset          int
	Limit           int
	ExcludeEmptyTxs bool
	// Miner restricts the list to blocks mined by this address when set.
	Miner string
}

// TransactionListParams selects a page of transactions, newest first.
type TransactionListParams struct {
	Offset int
	Limit  int
}

// AccountParams selects a page of an account's transactions.
type AccountParams struct {
	Offset  int
	Limit   int
	Address string
}

// BlockList returns one page of blocks.
func (s *Service) BlockList(ctx context.Context, ep endpoint.Endpoint, p BlockListParams) ([]Block, error) {
	vars := map[string]any{
		"offset":          p.Offset,
		"limit":           p.Limit,
		"excludeEmptyTxs": p.ExcludeEmptyTxs,
	}
	if p.Miner != "" {
		vars["miner"] = p.Miner
	}

	var out struct {
		ChainQuery struct {
			BlockQuery *struct {
				Blocks []Block `json:"blocks"`
			} `json:"blockQuery"`
		} `json:"chainQuery"`
	}
	if err := s.q.Do(ctx, ep, graphql.Request{
		OperationName: OpBlockList,
		Query:         blockListQuery,
		Variables:     vars,
		CacheTTL:      s.opts.ListTTL,
	}, &out); err != nil {
		return nil, err
	}

	if out.ChainQuery.BlockQuery == nil {
		return nil, nil
	}
	return out.ChainQuery.BlockQuery.Blocks, nil
}

// TransactionList returns one page of transactions.
func (s *Service) TransactionList(ctx context.Context, ep endpoint.Endpoint, p TransactionListParams) ([]Transaction, error) {
	var out struct {
		ChainQuery struct {
			TransactionQuery *struct {
				Transactions []Transaction `json:"transactions"`
			} `json:"transactionQuery"`
		} `json:"chainQuery"`
	}
	if err := s.q.Do(ctx, ep, graphql.Request{
		OperationName: OpTransactionList,
		Query:         transactionListQuery,
		Variables:     map[string]any{"offset": p.Offset, "limit": p.Limit},
		CacheTTL:      s.opts.ListTTL,
	}, &out); err != nil {
		return nil, err
	}

	if out.ChainQuery.TransactionQuery == nil {
		return nil, nil
	}
	return out.ChainQuery.TransactionQuery.Transactions, nil
}

// TransactionsByAccount returns the signed and involved transactions of an
// address. Both lists share the same offset and limit.
func (s *Service) TransactionsByAccount(ctx context.Context, ep endpoint.Endpoint, p AccountParams) (AccountTransactions, error) {
	if p.Address == "" {
		return AccountTransactions{}, fmt.Errorf("account address is required")
	}

	var out struct {
		ChainQuery struct {
			TransactionQuery *struct {
				Signed   []Transaction `json:"signedTransactions"`
				Involved []Transaction `json:"involvedTransactions"`
			} `json:"transactionQuery"`
		} `json:"chainQuery"`
	}
	if err := s.q.Do(ctx, ep, graphql.Request{
		OperationName: OpTransactionsByAccount,
		Query:         transactionsByAccountQuery,
		Variables: map[string]any{
			"offset":          p.Offset,
			"limit":           p.Limit,
			"involvedAddress": p.Address,
		},
		CacheTTL: s.opts.ListTTL,
	}, &out); err != nil {
		return AccountTransactions{}, err
	}

	tq := out.ChainQuery.TransactionQuery
	if tq == nil {
		return AccountTransactions{}, nil
	}
	return AccountTransactions{Signed: tq.Signed, Involved: tq.Involved}, nil
}

// BlockByHash looks a block up. It returns nil without error when the
// endpoint knows no such block.
func (s *Service) BlockByHash(ctx context.Context, ep endpoint.Endpoint, hash string) (*Block, error) {
	if hash == "" {
		return nil, nil
	}

	var out struct {
		ChainQuery struct {
			BlockQuery *struct {
				Block *Block `json:"block"`
			} `json:"blockQuery"`
		} `json:"chainQuery"`
	}
	if err := s.q.Do(ctx, ep, graphql.Request{
		OperationName: OpBlockByHash,
		Query:         blockByHashQuery,
		Variables:     map[string]any{"hash": hash},
		CacheTTL:      s.opts.DetailTTL,
	}, &out); err != nil {
		return nil, err
	}

	if out.ChainQuery.BlockQuery == nil {
		return nil, nil
	}
	return out.ChainQuery.BlockQuery.Block, nil
}

// TransactionByID looks a transaction up. It returns nil without error when
// the endpoint knows no such transaction.
func (s *Service) TransactionByID(ctx context.Context, ep endpoint.Endpoint, id string) (*Transaction, error) {
	if id == "" {
		return nil, nil
	}

	var out struct {
		ChainQuery struct {
			TransactionQuery *struct {
				Transaction *Transaction `json:"transaction"`
			} `json:"transactionQuery"`
		} `json:"chainQuery"`
	}
	if err := s.q.Do(ctx, ep, graphql.Request{
		OperationName: OpTransactionByID,
		Query:         transactionByIDQuery,
		Variables:     map[string]any{"id": id},
		CacheTTL:      s.opts.DetailTTL,
	}, &out); err != nil {
		return nil, err
	}

	if out.ChainQuery.TransactionQuery == nil {
		return nil, nil
	}
	return out.ChainQuery.TransactionQuery.Transaction, nil
}
