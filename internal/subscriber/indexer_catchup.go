package subscriber

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/algorandfoundation/algokit-subscriber-go/internal/indexer"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

// maxJSONSafeInteger is the largest integer the indexer accepts in currency
// bound parameters.
const maxJSONSafeInteger = uint64(1)<<53 - 1

// indexerPreFilter projects a transaction filter onto the indexer's search
// parameters. Only single-valued fragments can be pushed down; everything is
// re-evaluated locally afterwards, so the projection only needs to be a
// superset of the final match set.
func indexerPreFilter(f *models.TransactionFilter, minRound uint64, maxRound uint64) indexer.SearchParams {
	params := indexer.SearchParams{
		MinRound: minRound,
		MaxRound: maxRound,
	}

	if len(f.Sender) == 1 {
		params.Address = f.Sender[0]
		params.AddressRole = "sender"
	}
	// Receiver wins when both are single-valued; the local re-evaluation
	// restores the conjunction.
	if len(f.Receiver) == 1 {
		params.Address = f.Receiver[0]
		params.AddressRole = "receiver"
	}

	if len(f.Type) == 1 {
		params.TxType = string(f.Type[0])
	}
	if len(f.NotePrefix) > 0 {
		params.NotePrefix = f.NotePrefix
	}
	if len(f.AppID) == 1 {
		params.ApplicationID = f.AppID[0]
	}
	if len(f.AssetID) == 1 {
		params.AssetID = f.AssetID[0]
	}

	// The indexer only honours currency bounds for payments, or for asset
	// transfers when an asset id narrows the search. The bounds are strict,
	// hence the off-by-one adjustments; the local re-evaluation removes any
	// imprecision from the clamp.
	isPay := len(f.Type) == 1 && f.Type[0] == models.TypePay
	hasAsset := len(f.AssetID) == 1

	if f.MinAmount > 0 && (isPay || hasAsset) {
		bound := clampToJSONSafe(f.MinAmount - 1)
		params.CurrencyGreaterThan = &bound
	}
	if f.MaxAmount > 0 && (isPay || (hasAsset && f.MinAmount > 0)) {
		bound := clampToJSONSafe(f.MaxAmount + 1)
		params.CurrencyLessThan = &bound
	}

	return params
}

func clampToJSONSafe(v uint64) uint64 {
	if v > maxJSONSafeInteger {
		return maxJSONSafeInteger
	}
	return v
}

// flattenIndexerTransaction returns the transaction plus all its inner
// transactions in depth-first pre-order, assigning each inner transaction its
// synthetic id and intra-round offset relative to the root. The indexer only
// returns matched roots, so inner matches have to be rediscovered locally.
func flattenIndexerTransaction(root *models.SubscribedTransaction) []*models.SubscribedTransaction {
	result := []*models.SubscribedTransaction{root}
	innerIndex := 0
	for _, inner := range root.InnerTxns {
		result = appendIndexerInnerTransactions(result, root, inner, &innerIndex)
	}
	return result
}

func appendIndexerInnerTransactions(
	result []*models.SubscribedTransaction,
	root *models.SubscribedTransaction,
	t *models.SubscribedTransaction,
	innerIndex *int,
) []*models.SubscribedTransaction {
	(*innerIndex)++
	k := *innerIndex

	inner := *t
	inner.ParentTransactionID = root.ID
	inner.ID = fmt.Sprintf("%s/inner/%d", root.ID, k)
	inner.IntraRoundOffset = root.IntraRoundOffset + uint64(k)
	inner.ConfirmedRound = root.ConfirmedRound
	inner.RoundTime = root.RoundTime
	result = append(result, &inner)

	for _, child := range t.InnerTxns {
		result = appendIndexerInnerTransactions(result, root, child, innerIndex)
	}
	return result
}

// catchupWithIndexer retrieves all filter matches between startRound and
// endRound inclusive from the indexer, re-evaluating every filter locally
// over the flattened transactions. The result is sorted by round then
// intra-round offset and deduplicated by id.
func catchupWithIndexer(
	ctx context.Context,
	client IndexerClient,
	filters []models.NamedFilter,
	events []EventToProcess,
	groups []models.Arc28EventGroup,
	startRound uint64,
	endRound uint64,
) ([]*models.SubscribedTransaction, error) {
	start := time.Now()
	var matched []*models.SubscribedTransaction

	for i := range filters {
		f := &filters[i]

		candidates, err := client.SearchForTransactions(ctx, indexerPreFilter(&f.Filter, startRound, endRound))
		if err != nil {
			return nil, fmt.Errorf("indexer catchup for filter %q: %w", f.Name, err)
		}

		for _, root := range candidates {
			for _, t := range flattenIndexerTransaction(root) {
				if MatchesFilter(&f.Filter, t, events, groups) {
					tagged := *t
					tagged.FiltersMatched = []string{f.Name}
					matched = append(matched, &tagged)
				}
			}
		}
	}

	sortByRoundOrder(matched)
	matched = deduplicateTransactions(matched)

	log.Printf("[Subscriber] Retrieved %d transactions from rounds %d-%d via indexer in %s",
		len(matched), startRound, endRound, time.Since(start).Round(time.Millisecond))

	return matched, nil
}
