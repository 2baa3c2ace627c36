// Package chain holds the typed read operations the explorer runs against a
// chain's GraphQL API, plus the page summary computed from a block list.
package chain

import (
	"encoding/json"
	"time"
)

// BlockRef is the parent link of a block.
type BlockRef struct {
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
}

// Block is a block as returned by blockQuery.
type Block struct {
	Hash            string        `json:"hash"`
	Index           int64         `json:"index"`
	Miner           string        `json:"miner"`
	Timestamp       time.Time     `json:"timestamp"`
	Difficulty      float64       `json:"difficulty"`
	TotalDifficulty json.Number   `json:"totalDifficulty,omitempty"`
	Nonce           string        `json:"nonce,omitempty"`
	StateRootHash   string        `json:"stateRootHash,omitempty"`
	PreviousBlock   *BlockRef     `json:"previousBlock"`
	Transactions    []Transaction `json:"transactions"`
}

// TimeTaken is the time between the block and its parent; zero for genesis.
func (b Block) TimeTaken() time.Duration {
	if b.PreviousBlock == nil {
		return 0
	}
	return b.Timestamp.Sub(b.PreviousBlock.Timestamp)
}

// Action is an encoded action carried by a transaction.
type Action struct {
	Raw string `json:"raw"`
}

// Transaction is a transaction as returned by transactionQuery.
type Transaction struct {
	ID               string    `json:"id"`
	Nonce            int64     `json:"nonce"`
	Signer           string    `json:"signer"`
	PublicKey        string    `json:"publicKey,omitempty"`
	Signature        string    `json:"signature,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
	UpdatedAddresses []string  `json:"updatedAddresses"`
	Actions          []Action  `json:"actions,omitempty"`
}

// TransactionID identifies a transaction when merging result sets.
func TransactionID(tx Transaction) string {
	return tx.ID
}

// AccountTransactions are the two transaction lists of one account page.
type AccountTransactions struct {
	Signed   []Transaction
	Involved []Transaction
}
