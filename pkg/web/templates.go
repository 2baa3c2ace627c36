package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"time"

	"github.com/Sternrassler/graphql-explorer/pkg/chain"
	"github.com/Sternrassler/graphql-explorer/pkg/pagination"
	"github.com/dustin/go-humanize"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageFiles = map[Kind]string{
	KindSummary:     "templates/summary.html",
	KindAccount:     "templates/account.html",
	KindBlock:       "templates/block.html",
	KindTransaction: "templates/transaction.html",
}

type pageTemplates struct {
	byKind map[Kind]*template.Template
}

func loadTemplates() (*pageTemplates, error) {
	pt := &pageTemplates{byKind: make(map[Kind]*template.Template, len(pageFiles))}
	for kind, file := range pageFiles {
		tmpl, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/lists.html", file)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", kind, err)
		}
		pt.byKind[kind] = tmpl
	}
	return pt, nil
}

func (pt *pageTemplates) execute(w io.Writer, kind Kind, view any) error {
	tmpl, ok := pt.byKind[kind]
	if !ok {
		return fmt.Errorf("no template for page %q", kind)
	}
	return tmpl.Execute(w, view)
}

var templateFuncs = template.FuncMap{
	"accountURL":     accountURL,
	"blockURL":       blockURL,
	"transactionURL": transactionURL,
	"summaryURL":     summaryURL,
	"countLabel":     pagination.CountLabel,
	"comma":          func(n int64) string { return humanize.Comma(n) },
	"timestamp":      func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
	"ago":            humanize.Time,
	"seconds":        func(d time.Duration) string { return fmt.Sprintf("%g", d.Seconds()) },
	"txCount":        func(b chain.Block) int { return len(b.Transactions) },
	"blockTable":     newBlockTable,
	"txTable":        newTxTable,
}

// blockTable and txTable carry a list into the shared table templates.
type blockTable struct {
	Endpoint string
	Blocks   []chain.Block
	Empty    string
}

type txTable struct {
	Endpoint     string
	Transactions []chain.Transaction
	Empty        string
}

func newBlockTable(endpointName string, blocks []chain.Block, empty string) blockTable {
	return blockTable{Endpoint: endpointName, Blocks: blocks, Empty: empty}
}

func newTxTable(endpointName string, txs []chain.Transaction, empty string) txTable {
	return txTable{Endpoint: endpointName, Transactions: txs, Empty: empty}
}

// accountURL links an address's account page on an endpoint.
func accountURL(endpointName, address string) string {
	return "/" + url.PathEscape(endpointName) + "/account/?" + url.QueryEscape(address)
}

func blockURL(endpointName, hash string) string {
	return "/" + url.PathEscape(endpointName) + "/block/?" + url.QueryEscape(hash)
}

func transactionURL(endpointName, id string) string {
	return "/" + url.PathEscape(endpointName) + "/transaction/?" + url.QueryEscape(id)
}

func summaryURL(endpointName string) string {
	return "/" + url.PathEscape(endpointName) + "/"
}
