package blocks

import "fmt"

// TransactionInBlock is a single transaction lifted out of a block, top-level
// or inner, with the positional data needed to build the canonical record.
type TransactionInBlock struct {
	BlockTransaction *BlockTransaction

	RoundOffset    uint64 // Depth-first pre-order offset within the round
	RoundIndex     int    // Index of the top-level transaction this belongs to
	RoundNumber    uint64
	RoundTimestamp int64
	GenesisID      string
	GenesisHash    []byte

	// ParentTransactionID is set iff this is an inner transaction; in that
	// case ParentOffset is the zero-based index within the whole top-level
	// transaction tree (shared across nesting levels).
	ParentOffset        int
	ParentTransactionID string

	ID               string
	CreatedAssetID   *uint64
	CreatedAppID     *uint64
	AssetCloseAmount *uint64
	CloseAmount      *uint64
	Logs             [][]byte
}

// GetBlockTransactions walks a block and returns every transaction in it,
// inner transactions included, in depth-first pre-order. Round offsets are
// assigned in walk order; each top-level transaction carries its own inner
// counter shared across all nesting levels beneath it.
func GetBlockTransactions(block *Block) ([]TransactionInBlock, error) {
	var txns []TransactionInBlock
	offset := uint64(0)

	for roundIndex := range block.Txns {
		bt := &block.Txns[roundIndex]

		id, err := TransactionID(bt, block.GenesisHash, block.GenesisID)
		if err != nil {
			return nil, fmt.Errorf("round %d txn %d: %w", block.Round, roundIndex, err)
		}

		top := liftTransaction(bt, block, roundIndex)
		top.ID = id
		top.RoundOffset = offset
		offset++
		txns = append(txns, top)

		parentOffset := 0
		for i := range bt.InnerTxns() {
			inner := &bt.Dt.Inner[i]
			txns = appendInnerTransactions(txns, inner, block, id, roundIndex, &offset, &parentOffset)
		}
	}

	return txns, nil
}

func appendInnerTransactions(
	txns []TransactionInBlock,
	bt *BlockTransaction,
	block *Block,
	parentID string,
	roundIndex int,
	offset *uint64,
	parentOffset *int,
) []TransactionInBlock {
	t := liftTransaction(bt, block, roundIndex)
	t.RoundOffset = *offset
	(*offset)++
	t.ParentOffset = *parentOffset
	(*parentOffset)++
	t.ParentTransactionID = parentID
	t.ID = fmt.Sprintf("%s/inner/%d", parentID, t.ParentOffset+1)
	txns = append(txns, t)

	for i := range bt.InnerTxns() {
		txns = appendInnerTransactions(txns, &bt.Dt.Inner[i], block, parentID, roundIndex, offset, parentOffset)
	}

	return txns
}

func liftTransaction(bt *BlockTransaction, block *Block, roundIndex int) TransactionInBlock {
	return TransactionInBlock{
		BlockTransaction: bt,
		RoundIndex:       roundIndex,
		RoundNumber:      block.Round,
		RoundTimestamp:   block.Timestamp,
		GenesisID:        block.GenesisID,
		GenesisHash:      block.GenesisHash,
		CreatedAssetID:   bt.CreatedAssetID,
		CreatedAppID:     bt.CreatedAppID,
		AssetCloseAmount: bt.AssetCloseAmount,
		CloseAmount:      bt.CloseAmount,
		Logs:             bt.RawLogs(),
	}
}

// CountTransactions returns the number of transactions in the slice of
// top-level block transactions, inner transactions included.
func CountTransactions(txns []BlockTransaction) int {
	n := 0
	for i := range txns {
		n += 1 + CountTransactions(txns[i].InnerTxns())
	}
	return n
}
