package blocks

import (
	"fmt"
	"testing"

	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

func testAddr(fill byte) string {
	var addr types.Address
	copy(addr[:], testAddrBytes(fill))
	return addr.String()
}

// nestedBlock builds a block with two top-level transactions where the first
// carries two direct inner transactions and the first of those carries one
// more.
func nestedBlock() *Block {
	nested := BlockTransaction{Txn: payTxn(4)}
	innerA := BlockTransaction{Txn: payTxn(2), Dt: &EvalDelta{Inner: []BlockTransaction{nested}}}
	innerB := BlockTransaction{Txn: payTxn(3)}

	return &Block{
		Round:       500,
		Timestamp:   1700000000,
		GenesisID:   "testnet-v1.0",
		GenesisHash: testAddrBytes(9),
		Txns: []BlockTransaction{
			{Txn: payTxn(1), Dt: &EvalDelta{Inner: []BlockTransaction{innerA, innerB}}},
			{Txn: payTxn(5)},
		},
	}
}

func TestGetBlockTransactions_OffsetsAndIDs(t *testing.T) {
	block := nestedBlock()

	txns, err := GetBlockTransactions(block)
	if err != nil {
		t.Fatalf("GetBlockTransactions failed: %v", err)
	}
	if len(txns) != 5 {
		t.Fatalf("expected 5 transactions, got %d", len(txns))
	}

	for i, tx := range txns {
		if tx.RoundOffset != uint64(i) {
			t.Fatalf("transaction %d has round offset %d", i, tx.RoundOffset)
		}
		if tx.RoundNumber != 500 {
			t.Fatalf("transaction %d has round %d", i, tx.RoundNumber)
		}
	}

	parentID := txns[0].ID
	if parentID == "" || txns[0].ParentTransactionID != "" {
		t.Fatalf("top-level transaction should carry a real id and no parent")
	}

	// Depth-first pre-order with the inner counter shared across nesting
	// levels: direct inner, its nested child, then the second direct inner.
	wantInner := []string{
		parentID + "/inner/1",
		parentID + "/inner/2",
		parentID + "/inner/3",
	}
	for i, want := range wantInner {
		got := txns[i+1]
		if got.ID != want {
			t.Fatalf("inner %d: expected id %s, got %s", i, want, got.ID)
		}
		if got.ParentTransactionID != parentID {
			t.Fatalf("inner %d: expected parent %s, got %s", i, parentID, got.ParentTransactionID)
		}
	}

	if txns[4].ParentTransactionID != "" {
		t.Fatalf("second top-level transaction should have no parent")
	}
	if txns[4].ID == parentID {
		t.Fatalf("distinct top-level transactions must have distinct ids")
	}
}

func TestConvertTransaction_Payment(t *testing.T) {
	block := &Block{
		Round:       500,
		Timestamp:   1700000000,
		GenesisID:   "testnet-v1.0",
		GenesisHash: testAddrBytes(9),
		Txns:        []BlockTransaction{{Txn: payTxn(5000), Hgi: true}},
	}
	block.Txns[0].Txn["note"] = []byte("hello")

	txns, err := GetBlockTransactions(block)
	if err != nil {
		t.Fatalf("GetBlockTransactions failed: %v", err)
	}

	record, err := ConvertTransaction(&txns[0])
	if err != nil {
		t.Fatalf("ConvertTransaction failed: %v", err)
	}

	if record.TxType != models.TypePay {
		t.Fatalf("expected pay, got %s", record.TxType)
	}
	if record.Sender != testAddr(1) {
		t.Fatalf("unexpected sender %s", record.Sender)
	}
	if record.Fee != 1000 {
		t.Fatalf("expected fee 1000, got %d", record.Fee)
	}
	if record.ConfirmedRound != 500 || record.RoundTime != 1700000000 {
		t.Fatalf("round context not carried: %d/%d", record.ConfirmedRound, record.RoundTime)
	}
	if record.GenesisID != "testnet-v1.0" {
		t.Fatalf("expected genesis id injected via hgi, got %q", record.GenesisID)
	}
	if string(record.Note) != "hello" {
		t.Fatalf("unexpected note %q", record.Note)
	}
	if record.Payment == nil {
		t.Fatalf("expected payment fields")
	}
	if record.Payment.Amount != 5000 || record.Payment.Receiver != testAddr(2) {
		t.Fatalf("unexpected payment %+v", record.Payment)
	}
}

func TestConvertTransaction_InnerRecordsMatchWalk(t *testing.T) {
	block := nestedBlock()

	txns, err := GetBlockTransactions(block)
	if err != nil {
		t.Fatalf("GetBlockTransactions failed: %v", err)
	}

	record, err := ConvertTransaction(&txns[0])
	if err != nil {
		t.Fatalf("ConvertTransaction failed: %v", err)
	}

	var flat []*models.SubscribedTransaction
	var walk func(r *models.SubscribedTransaction)
	walk = func(r *models.SubscribedTransaction) {
		flat = append(flat, r)
		for _, inner := range r.InnerTxns {
			walk(inner)
		}
	}
	walk(record)

	if len(flat) != 4 {
		t.Fatalf("expected 4 records under the first top-level transaction, got %d", len(flat))
	}
	for i, r := range flat {
		if r.ID != txns[i].ID {
			t.Fatalf("record %d: id %s does not match walk id %s", i, r.ID, txns[i].ID)
		}
		if r.IntraRoundOffset != txns[i].RoundOffset {
			t.Fatalf("record %d: offset %d does not match walk offset %d", i, r.IntraRoundOffset, txns[i].RoundOffset)
		}
	}
}

func TestConvertTransaction_FiveSiblingsShareCounter(t *testing.T) {
	inners := make([]BlockTransaction, 5)
	for i := range inners {
		inners[i] = BlockTransaction{Txn: payTxn(uint64(i + 10))}
	}
	block := &Block{
		Round:       600,
		GenesisID:   "testnet-v1.0",
		GenesisHash: testAddrBytes(9),
		Txns:        []BlockTransaction{{Txn: payTxn(1), Dt: &EvalDelta{Inner: inners}}},
	}

	txns, err := GetBlockTransactions(block)
	if err != nil {
		t.Fatalf("GetBlockTransactions failed: %v", err)
	}
	record, err := ConvertTransaction(&txns[0])
	if err != nil {
		t.Fatalf("ConvertTransaction failed: %v", err)
	}

	if len(record.InnerTxns) != 5 {
		t.Fatalf("expected 5 inner records, got %d", len(record.InnerTxns))
	}
	for i, inner := range record.InnerTxns {
		want := fmt.Sprintf("%s/inner/%d", record.ID, i+1)
		if inner.ID != want {
			t.Fatalf("inner %d: expected id %s, got %s", i, want, inner.ID)
		}
	}
}

func TestCountTransactions(t *testing.T) {
	block := nestedBlock()
	if got := CountTransactions(block.Txns); got != 5 {
		t.Fatalf("expected 5 transactions, got %d", got)
	}
	if got := CountTransactions(nil); got != 0 {
		t.Fatalf("expected 0 for empty slice, got %d", got)
	}
}

func TestConvertTransaction_AssetTransferClawback(t *testing.T) {
	closeAmount := uint64(250)
	block := &Block{
		Round:       700,
		GenesisID:   "testnet-v1.0",
		GenesisHash: testAddrBytes(9),
		Txns: []BlockTransaction{{
			Txn: map[string]interface{}{
				"type":   "axfer",
				"snd":    testAddrBytes(1),
				"xaid":   uint64(123),
				"aamt":   uint64(400),
				"arcv":   testAddrBytes(2),
				"asnd":   testAddrBytes(3),
				"aclose": testAddrBytes(4),
				"fee":    uint64(1000),
			},
			AssetCloseAmount: &closeAmount,
		}},
	}

	txns, err := GetBlockTransactions(block)
	if err != nil {
		t.Fatalf("GetBlockTransactions failed: %v", err)
	}
	record, err := ConvertTransaction(&txns[0])
	if err != nil {
		t.Fatalf("ConvertTransaction failed: %v", err)
	}

	axfer := record.AssetTransfer
	if axfer == nil {
		t.Fatalf("expected asset transfer fields")
	}
	if axfer.AssetID != 123 || axfer.Amount != 400 {
		t.Fatalf("unexpected asset transfer %+v", axfer)
	}
	if axfer.Sender != testAddr(3) {
		t.Fatalf("expected clawback target as asset sender, got %s", axfer.Sender)
	}
	if axfer.CloseTo != testAddr(4) {
		t.Fatalf("unexpected close-to %s", axfer.CloseTo)
	}
	if axfer.CloseAmount == nil || *axfer.CloseAmount != 250 {
		t.Fatalf("close amount not carried from apply data")
	}
}
