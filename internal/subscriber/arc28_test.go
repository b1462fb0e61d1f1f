package subscriber

import (
	"crypto/sha512"
	"testing"

	"github.com/algorand/go-algorand-sdk/v2/abi"

	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

func swapGroup() models.Arc28EventGroup {
	return models.Arc28EventGroup{
		GroupName: "dex",
		Events: []models.Arc28Event{
			{
				Name: "Swapped",
				Args: []models.Arc28EventArg{
					{Type: "uint64", Name: "amountIn"},
					{Type: "uint64", Name: "amountOut"},
				},
			},
		},
	}
}

// encodeSwappedLog builds a log entry the way a contract would emit it: the
// 4-byte signature prefix followed by the ABI-encoded argument tuple.
func encodeSwappedLog(t *testing.T, amountIn, amountOut uint64) []byte {
	t.Helper()

	digest := sha512.Sum512_256([]byte("Swapped(uint64,uint64)"))

	tupleType, err := abi.TypeOf("(uint64,uint64)")
	if err != nil {
		t.Fatalf("parsing tuple type: %v", err)
	}
	payload, err := tupleType.Encode([]interface{}{amountIn, amountOut})
	if err != nil {
		t.Fatalf("encoding tuple: %v", err)
	}

	return append(digest[:4], payload...)
}

func TestCompileArc28Events(t *testing.T) {
	events := CompileArc28Events([]models.Arc28EventGroup{swapGroup()})
	if len(events) != 1 {
		t.Fatalf("expected 1 compiled event, got %d", len(events))
	}
	e := events[0]
	if e.EventSignature != "Swapped(uint64,uint64)" {
		t.Fatalf("unexpected signature %q", e.EventSignature)
	}
	if len(e.EventPrefix) != 8 {
		t.Fatalf("expected 8-hex-char prefix, got %q", e.EventPrefix)
	}
	if e.EventPrefix != EventPrefix(e.EventSignature) {
		t.Fatalf("prefix mismatch: %q vs %q", e.EventPrefix, EventPrefix(e.EventSignature))
	}
}

func TestExtractArc28Events_RoundTrip(t *testing.T) {
	group := swapGroup()
	events := CompileArc28Events([]models.Arc28EventGroup{group})

	logs := [][]byte{
		[]byte("not an event"),
		encodeSwappedLog(t, 12345, 678),
	}

	emitted, err := ExtractArc28Events("TXID", logs, events, func(string) bool { return false })
	if err != nil {
		t.Fatalf("ExtractArc28Events failed: %v", err)
	}
	if len(emitted) != 1 {
		t.Fatalf("expected 1 emitted event, got %d", len(emitted))
	}

	e := emitted[0]
	if e.GroupName != "dex" || e.EventName != "Swapped" {
		t.Fatalf("unexpected event identity: %+v", e)
	}
	if len(e.Args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(e.Args))
	}
	if got, ok := e.ArgsByName["amountIn"].(uint64); !ok || got != 12345 {
		t.Fatalf("unexpected amountIn: %v", e.ArgsByName["amountIn"])
	}
	if got, ok := e.ArgsByName["amountOut"].(uint64); !ok || got != 678 {
		t.Fatalf("unexpected amountOut: %v", e.ArgsByName["amountOut"])
	}
}

func TestExtractArc28Events_DecodeFailure(t *testing.T) {
	group := swapGroup()
	events := CompileArc28Events([]models.Arc28EventGroup{group})

	// Correct prefix, truncated payload.
	bad := encodeSwappedLog(t, 1, 2)[:9]

	if _, err := ExtractArc28Events("TXID", [][]byte{bad}, events, func(string) bool { return false }); err == nil {
		t.Fatalf("expected decode error for truncated payload")
	}

	// continue-on-error swallows the failure and keeps going.
	good := encodeSwappedLog(t, 3, 4)
	emitted, err := ExtractArc28Events("TXID", [][]byte{bad, good}, events, func(string) bool { return true })
	if err != nil {
		t.Fatalf("expected continue-on-error to swallow the failure: %v", err)
	}
	if len(emitted) != 1 {
		t.Fatalf("expected the good log decoded, got %d events", len(emitted))
	}
}

func TestHasMatchingArc28Event(t *testing.T) {
	group := swapGroup()
	events := CompileArc28Events([]models.Arc28EventGroup{group})
	logs := [][]byte{encodeSwappedLog(t, 1, 2)}
	thunk := func() *models.SubscribedTransaction { return &models.SubscribedTransaction{} }

	filter := []models.Arc28EventFilter{{GroupName: "dex", EventName: "Swapped"}}
	if !HasMatchingArc28Event(logs, events, []models.Arc28EventGroup{group}, filter, 10, thunk) {
		t.Fatalf("expected a prefix match")
	}

	wrong := []models.Arc28EventFilter{{GroupName: "dex", EventName: "Minted"}}
	if HasMatchingArc28Event(logs, events, []models.Arc28EventGroup{group}, wrong, 10, thunk) {
		t.Fatalf("filter for a different event must not match")
	}

	// Short logs can never carry a full prefix.
	if HasMatchingArc28Event([][]byte{{1, 2, 3}}, events, []models.Arc28EventGroup{group}, filter, 10, thunk) {
		t.Fatalf("3-byte log must not match")
	}
}

func TestHasMatchingArc28Event_AppRestriction(t *testing.T) {
	group := swapGroup()
	group.ProcessForAppIDs = []uint64{77}
	events := CompileArc28Events([]models.Arc28EventGroup{group})
	logs := [][]byte{encodeSwappedLog(t, 1, 2)}
	filter := []models.Arc28EventFilter{{GroupName: "dex", EventName: "Swapped"}}
	thunk := func() *models.SubscribedTransaction { return &models.SubscribedTransaction{} }

	if !HasMatchingArc28Event(logs, events, []models.Arc28EventGroup{group}, filter, 77, thunk) {
		t.Fatalf("expected match for app in group")
	}
	if HasMatchingArc28Event(logs, events, []models.Arc28EventGroup{group}, filter, 78, thunk) {
		t.Fatalf("app outside the group must not match")
	}
}

func TestTransactionInArc28EventGroup_LazyPredicate(t *testing.T) {
	called := false
	group := swapGroup()
	group.ProcessForAppIDs = []uint64{77}
	group.ProcessTransaction = func(t *models.SubscribedTransaction) bool {
		called = true
		return true
	}

	thunk := func() *models.SubscribedTransaction { return &models.SubscribedTransaction{} }

	// The app id restriction fails first, so the predicate must not run.
	if transactionInArc28EventGroup(&group, 78, thunk) {
		t.Fatalf("expected group membership to fail on app id")
	}
	if called {
		t.Fatalf("predicate ran despite failed app id restriction")
	}

	if !transactionInArc28EventGroup(&group, 77, thunk) {
		t.Fatalf("expected group membership")
	}
	if !called {
		t.Fatalf("predicate should have run for matching app id")
	}
}
