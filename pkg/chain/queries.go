package chain

// Operation names sent upstream; they double as cache key components.
const (
	OpBlockList             = "BlockList"
	OpTransactionList       = "TransactionList"
	OpTransactionsByAccount = "TransactionsByAccount"
	OpBlockByHash           = "BlockByHash"
	OpTransactionByID       = "TransactionById"
)

const transactionFields = `
  id
  nonce
  signer
  timestamp
  updatedAddresses
`

const blockListQuery = `query BlockList($offset: Int!, $limit: Int!, $excludeEmptyTxs: Boolean!, $miner: Address) {
  chainQuery {
    blockQuery {
      blocks(desc: true, offset: $offset, limit: $limit, excludeEmptyTxs: $excludeEmptyTxs, miner: $miner) {
        index
        hash
        miner
        timestamp
        difficulty
        previousBlock { hash timestamp }
        transactions { id }
      }
    }
  }
}`

const transactionListQuery = `query TransactionList($offset: Int!, $limit: Int!) {
  chainQuery {
    transactionQuery {
      transactions(desc: true, offset: $offset, limit: $limit) {` + transactionFields + `}
    }
  }
}`

const transactionsByAccountQuery = `query TransactionsByAccount($offset: Int!, $limit: Int!, $involvedAddress: Address!) {
  chainQuery {
    transactionQuery {
      signedTransactions: transactions(desc: true, offset: $offset, limit: $limit, signer: $involvedAddress) {` + transactionFields + `}
      involvedTransactions: transactions(desc: true, offset: $offset, limit: $limit, involvedAddress: $involvedAddress) {` + transactionFields + `}
    }
  }
}`

const blockByHashQuery = `query BlockByHash($hash: ID!) {
  chainQuery {
    blockQuery {
      block(hash: $hash) {
        index
        hash
        nonce
        miner
        timestamp
        stateRootHash
        difficulty
        totalDifficulty
        previousBlock { hash timestamp }
        transactions {` + transactionFields + `}
      }
    }
  }
}`

const transactionByIDQuery = `query TransactionById($id: ID!) {
  chainQuery {
    transactionQuery {
      transaction(id: $id) {` + transactionFields + `
        publicKey
        signature
        actions { raw }
      }
    }
  }
}`
