package subscriber

import (
	"crypto/sha512"
	"testing"

	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

func evalFilter(f *models.TransactionFilter, t *models.SubscribedTransaction) bool {
	return MatchesFilter(f, t, nil, nil)
}

func paymentRecord(sender, receiver string, amount uint64) *models.SubscribedTransaction {
	return &models.SubscribedTransaction{
		ID:     "PAYID",
		TxType: models.TypePay,
		Sender: sender,
		Fee:    1000,
		Payment: &models.PaymentTransaction{
			Amount:   amount,
			Receiver: receiver,
		},
	}
}

func TestMatchesFilter_EmptyFilterMatchesEverything(t *testing.T) {
	if !evalFilter(&models.TransactionFilter{}, paymentRecord("A", "B", 1)) {
		t.Fatalf("empty filter must match")
	}
}

func TestMatchesFilter_TypeSenderReceiver(t *testing.T) {
	txn := paymentRecord("A", "B", 100)

	f := &models.TransactionFilter{
		Type:     []models.TransactionType{models.TypePay, models.TypeAxfer},
		Sender:   []string{"A"},
		Receiver: []string{"B", "C"},
	}
	if !evalFilter(f, txn) {
		t.Fatalf("expected conjunction of fragments to match")
	}

	f.Sender = []string{"X"}
	if evalFilter(f, txn) {
		t.Fatalf("wrong sender must not match")
	}

	f.Sender = nil
	f.Type = []models.TransactionType{models.TypeAppl}
	if evalFilter(f, txn) {
		t.Fatalf("wrong type must not match")
	}
}

func TestMatchesFilter_NotePrefix(t *testing.T) {
	txn := paymentRecord("A", "B", 100)
	txn.Note = []byte("myapp:payload")

	if !evalFilter(&models.TransactionFilter{NotePrefix: []byte("myapp:")}, txn) {
		t.Fatalf("expected note prefix match")
	}
	if evalFilter(&models.TransactionFilter{NotePrefix: []byte("other:")}, txn) {
		t.Fatalf("wrong note prefix must not match")
	}
}

func TestMatchesFilter_AmountBounds(t *testing.T) {
	txn := paymentRecord("A", "B", 500)

	if !evalFilter(&models.TransactionFilter{MinAmount: 500, MaxAmount: 500}, txn) {
		t.Fatalf("inclusive bounds must match the exact amount")
	}
	if evalFilter(&models.TransactionFilter{MinAmount: 501}, txn) {
		t.Fatalf("amount below minimum must not match")
	}
	if evalFilter(&models.TransactionFilter{MaxAmount: 499}, txn) {
		t.Fatalf("amount above maximum must not match")
	}
}

func TestMatchesFilter_AppIDMatchesCalledOrCreated(t *testing.T) {
	created := uint64(55)
	createTxn := &models.SubscribedTransaction{
		TxType:          models.TypeAppl,
		CreatedAppID:    &created,
		ApplicationCall: &models.ApplicationTransaction{ApplicationID: 0},
	}
	callTxn := &models.SubscribedTransaction{
		TxType:          models.TypeAppl,
		ApplicationCall: &models.ApplicationTransaction{ApplicationID: 55},
	}

	f := &models.TransactionFilter{AppID: []uint64{55}}
	if !evalFilter(f, createTxn) {
		t.Fatalf("created app id must match")
	}
	if !evalFilter(f, callTxn) {
		t.Fatalf("called app id must match")
	}
	if evalFilter(&models.TransactionFilter{AppID: []uint64{56}}, callTxn) {
		t.Fatalf("different app id must not match")
	}
}

func TestMatchesFilter_AppCreateAndOnComplete(t *testing.T) {
	created := uint64(55)
	createTxn := &models.SubscribedTransaction{
		TxType:       models.TypeAppl,
		CreatedAppID: &created,
		ApplicationCall: &models.ApplicationTransaction{
			OnCompletion: models.OnCompleteNoOp,
		},
	}

	yes, no := true, false
	if !evalFilter(&models.TransactionFilter{AppCreate: &yes}, createTxn) {
		t.Fatalf("app create filter must match creation")
	}
	if evalFilter(&models.TransactionFilter{AppCreate: &no}, createTxn) {
		t.Fatalf("app_create=false must reject creation")
	}

	if !evalFilter(&models.TransactionFilter{AppOnComplete: []string{models.OnCompleteNoOp}}, createTxn) {
		t.Fatalf("on-complete noop must match")
	}
	if evalFilter(&models.TransactionFilter{AppOnComplete: []string{models.OnCompleteOptIn}}, createTxn) {
		t.Fatalf("on-complete optin must not match a noop call")
	}
}

func TestMatchesFilter_AssetID(t *testing.T) {
	axfer := &models.SubscribedTransaction{
		TxType:        models.TypeAxfer,
		AssetTransfer: &models.AssetTransferTransaction{AssetID: 42, Amount: 9},
	}
	if !evalFilter(&models.TransactionFilter{AssetID: []uint64{42}}, axfer) {
		t.Fatalf("asset transfer asset id must match")
	}
	if evalFilter(&models.TransactionFilter{AssetID: []uint64{43}}, axfer) {
		t.Fatalf("wrong asset id must not match")
	}

	created := uint64(42)
	acfg := &models.SubscribedTransaction{
		TxType:         models.TypeAcfg,
		CreatedAssetID: &created,
		AssetConfig:    &models.AssetConfigTransaction{},
	}
	if !evalFilter(&models.TransactionFilter{AssetID: []uint64{42}}, acfg) {
		t.Fatalf("created asset id must match")
	}
}

func TestMatchesFilter_MethodSignature(t *testing.T) {
	digest := sha512.Sum512_256([]byte("swap(uint64,uint64)uint64"))
	txn := &models.SubscribedTransaction{
		TxType: models.TypeAppl,
		ApplicationCall: &models.ApplicationTransaction{
			ApplicationID:   10,
			ApplicationArgs: [][]byte{digest[:4], []byte("x")},
		},
	}

	f := &models.TransactionFilter{MethodSignature: []string{"swap(uint64,uint64)uint64"}}
	if !evalFilter(f, txn) {
		t.Fatalf("method selector must match")
	}

	f.MethodSignature = []string{"mint(uint64)uint64"}
	if evalFilter(f, txn) {
		t.Fatalf("different method must not match")
	}

	noArgs := &models.SubscribedTransaction{
		TxType:          models.TypeAppl,
		ApplicationCall: &models.ApplicationTransaction{ApplicationID: 10},
	}
	f.MethodSignature = []string{"swap(uint64,uint64)uint64"}
	if evalFilter(f, noArgs) {
		t.Fatalf("call without args must not match a method signature")
	}
}

func TestMatchesFilter_AppCallArgumentsAndCustom(t *testing.T) {
	txn := &models.SubscribedTransaction{
		TxType: models.TypeAppl,
		ApplicationCall: &models.ApplicationTransaction{
			ApplicationArgs: [][]byte{[]byte("hello")},
		},
	}

	f := &models.TransactionFilter{
		AppCallArgumentsMatch: func(args [][]byte) bool {
			return len(args) == 1 && string(args[0]) == "hello"
		},
	}
	if !evalFilter(f, txn) {
		t.Fatalf("argument predicate must match")
	}

	f.CustomFilter = func(t *models.SubscribedTransaction) bool { return false }
	if evalFilter(f, txn) {
		t.Fatalf("custom filter rejection must win")
	}
}

func TestMatchesFilter_BalanceChanges(t *testing.T) {
	txn := paymentRecord("A", "B", 500)

	min := int64(400)
	f := &models.TransactionFilter{
		BalanceChanges: []models.BalanceChangeFilter{{
			Address:   []string{"B"},
			Role:      []models.BalanceChangeRole{models.RoleReceiver},
			MinAmount: &min,
		}},
	}
	if !evalFilter(f, txn) {
		t.Fatalf("expected balance change match for the receiver")
	}

	minAbs := uint64(10000)
	f = &models.TransactionFilter{
		BalanceChanges: []models.BalanceChangeFilter{{MinAbsoluteAmount: &minAbs}},
	}
	if evalFilter(f, txn) {
		t.Fatalf("no change reaches the absolute minimum")
	}
}

func TestMatchesFilter_Arc28Events(t *testing.T) {
	group := swapGroup()
	events := CompileArc28Events([]models.Arc28EventGroup{group})
	groups := []models.Arc28EventGroup{group}

	txn := &models.SubscribedTransaction{
		TxType:          models.TypeAppl,
		ApplicationCall: &models.ApplicationTransaction{ApplicationID: 10},
		Logs:            [][]byte{encodeSwappedLog(t, 1, 2)},
	}

	f := &models.TransactionFilter{
		Arc28Events: []models.Arc28EventFilter{{GroupName: "dex", EventName: "Swapped"}},
	}
	if !MatchesFilter(f, txn, events, groups) {
		t.Fatalf("expected arc-28 event match")
	}

	pay := paymentRecord("A", "B", 1)
	if MatchesFilter(f, pay, events, groups) {
		t.Fatalf("non-app transactions can never match an event filter")
	}
}

func TestMethodSelectorBase64(t *testing.T) {
	a := MethodSelectorBase64("swap(uint64,uint64)uint64")
	b := MethodSelectorBase64("swap(uint64,uint64)uint64")
	c := MethodSelectorBase64("mint(uint64)uint64")

	if a != b {
		t.Fatalf("selector not deterministic: %s vs %s", a, b)
	}
	if a == c {
		t.Fatalf("different signatures produced the same selector")
	}
}
