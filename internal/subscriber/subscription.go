package subscriber

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/algorandfoundation/algokit-subscriber-go/internal/blocks"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

const (
	// DefaultMaxRoundsToSync bounds how many rounds a single poll reads from
	// algod when no explicit limit is configured.
	DefaultMaxRoundsToSync = 500

	// blockChunkSize is how many blocks are fetched per batch so a large
	// catch-up does not hammer the node.
	blockChunkSize = 30
)

// SubscriptionParams describes a single subscription poll.
type SubscriptionParams struct {
	Filters       []models.NamedFilter
	Arc28Groups   []models.Arc28EventGroup
	SyncBehaviour models.SyncBehaviour

	// Watermark is the last round already processed; the poll starts after it.
	Watermark uint64

	// MaxRoundsToSync caps the algod sync span; zero applies the default.
	MaxRoundsToSync uint64

	// MaxIndexerRoundsToSync caps the indexer catch-up span; zero is
	// unlimited. When the cap is hit the poll syncs only that many rounds
	// from the indexer and skips algod entirely.
	MaxIndexerRoundsToSync uint64

	// CurrentRound pins the perceived chain tip; zero asks algod.
	CurrentRound uint64
}

// GetSubscribedTransactions executes a single poll against the configured
// filters: it determines the round range from the watermark and sync
// behaviour, retrieves transactions from the indexer and/or algod, and
// enriches every match with ARC-28 events and balance changes.
func GetSubscribedTransactions(
	ctx context.Context,
	params *SubscriptionParams,
	algodClient AlgodClient,
	indexerClient IndexerClient,
) (*models.SubscriptionResult, error) {
	watermark := params.Watermark
	maxRoundsToSync := params.MaxRoundsToSync
	if maxRoundsToSync == 0 {
		maxRoundsToSync = DefaultMaxRoundsToSync
	}

	currentRound := params.CurrentRound
	if currentRound == 0 {
		status, err := algodClient.Status(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting node status: %w", err)
		}
		currentRound = status.LastRound
	}

	arc28Events := CompileArc28Events(params.Arc28Groups)

	// Nothing to sync, we are at the tip of the chain already.
	if currentRound <= watermark {
		return &models.SubscriptionResult{
			CurrentRound:           currentRound,
			StartingWatermark:      watermark,
			NewWatermark:           watermark,
			SyncedRoundRange:       models.RoundRange{StartRound: currentRound, EndRound: currentRound},
			SubscribedTransactions: []*models.SubscribedTransaction{},
		}, nil
	}

	algodSyncFromRound := watermark + 1
	startRound := algodSyncFromRound
	endRound := currentRound
	skipAlgodSync := false

	var catchupTransactions []*models.SubscribedTransaction

	if currentRound-watermark > maxRoundsToSync {
		switch params.SyncBehaviour {
		case models.SyncFail:
			return nil, fmt.Errorf("Invalid round number to subscribe from %d; current round number is %d", algodSyncFromRound, currentRound)

		case models.SyncSkipToNewest:
			algodSyncFromRound = currentRound - maxRoundsToSync + 1
			startRound = algodSyncFromRound

		case models.SyncOldest:
			endRound = algodSyncFromRound + maxRoundsToSync - 1

		case models.SyncOldestStartNow:
			// A zero watermark starts at the tip instead of replaying history.
			if watermark == 0 {
				algodSyncFromRound = currentRound - maxRoundsToSync + 1
				startRound = algodSyncFromRound
			} else {
				endRound = algodSyncFromRound + maxRoundsToSync - 1
			}

		case models.SyncCatchupWithIndexer:
			if indexerClient == nil {
				return nil, fmt.Errorf("can't catch up using indexer since it's not provided")
			}

			indexerSyncToRound := currentRound - maxRoundsToSync
			if params.MaxIndexerRoundsToSync > 0 &&
				indexerSyncToRound-startRound+1 > params.MaxIndexerRoundsToSync {
				indexerSyncToRound = startRound + params.MaxIndexerRoundsToSync - 1
				endRound = indexerSyncToRound
				skipAlgodSync = true
			} else {
				algodSyncFromRound = indexerSyncToRound + 1
			}

			log.Printf("[Subscriber] Catching up from round %d to round %d via indexer; this may take a few seconds",
				startRound, indexerSyncToRound)

			var err error
			catchupTransactions, err = catchupWithIndexer(
				ctx, indexerClient, params.Filters, arc28Events, params.Arc28Groups,
				startRound, indexerSyncToRound,
			)
			if err != nil {
				return nil, err
			}

		default:
			return nil, fmt.Errorf("unsupported sync behaviour %q", params.SyncBehaviour)
		}
	}

	var algodTransactions []*models.SubscribedTransaction
	var blockMetadata []models.BlockMetadata

	if !skipAlgodSync {
		var err error
		algodTransactions, blockMetadata, err = syncFromAlgod(
			ctx, algodClient, params.Filters, arc28Events, params.Arc28Groups,
			algodSyncFromRound, endRound,
		)
		if err != nil {
			return nil, err
		}
	} else {
		log.Printf("[Subscriber] Skipping algod sync since we have more than %d rounds to sync from indexer", params.MaxIndexerRoundsToSync)
	}

	subscribed := append(catchupTransactions, algodTransactions...)
	for i, t := range subscribed {
		enriched, err := processExtraFields(t, arc28Events, params.Arc28Groups)
		if err != nil {
			return nil, err
		}
		subscribed[i] = enriched
	}

	return &models.SubscriptionResult{
		CurrentRound:           currentRound,
		StartingWatermark:      watermark,
		NewWatermark:           endRound,
		SyncedRoundRange:       models.RoundRange{StartRound: startRound, EndRound: endRound},
		SubscribedTransactions: subscribed,
		BlockMetadata:          blockMetadata,
	}, nil
}

// syncFromAlgod retrieves the given inclusive round range in chunks, filters
// every transaction (inner transactions included) and returns the matches in
// round order together with per-block metadata.
func syncFromAlgod(
	ctx context.Context,
	client AlgodClient,
	filters []models.NamedFilter,
	events []EventToProcess,
	groups []models.Arc28EventGroup,
	fromRound uint64,
	toRound uint64,
) ([]*models.SubscribedTransaction, []models.BlockMetadata, error) {
	start := time.Now()

	var matched []*models.SubscribedTransaction
	var metadata []models.BlockMetadata
	transactionCount := 0

	for chunkStart := fromRound; chunkStart <= toRound; chunkStart += blockChunkSize {
		chunkEnd := chunkStart + blockChunkSize - 1
		if chunkEnd > toRound {
			chunkEnd = toRound
		}
		log.Printf("[Subscriber] Retrieving %d blocks from round %d via algod", chunkEnd-chunkStart+1, chunkStart)

		for round := chunkStart; round <= chunkEnd; round++ {
			raw, err := client.BlockRaw(ctx, round)
			if err != nil {
				return nil, nil, fmt.Errorf("retrieving block %d: %w", round, err)
			}
			blockData, err := blocks.DecodeBlockData(raw)
			if err != nil {
				return nil, nil, fmt.Errorf("block %d: %w", round, err)
			}

			blockTxns, err := blocks.GetBlockTransactions(&blockData.Block)
			if err != nil {
				return nil, nil, err
			}
			transactionCount += len(blockTxns)

			// Normalize once, then evaluate every filter over the canonical
			// record so both retrieval paths share one filter semantics.
			for i := range blockTxns {
				record, err := blocks.ConvertTransaction(&blockTxns[i])
				if err != nil {
					return nil, nil, err
				}

				for j := range filters {
					if MatchesFilter(&filters[j].Filter, record, events, groups) {
						tagged := *record
						tagged.FiltersMatched = []string{filters[j].Name}
						matched = append(matched, &tagged)
					}
				}
			}

			metadata = append(metadata, blocks.BlockMetadata(blockData))
		}
	}

	sortByRoundOrder(matched)
	matched = deduplicateTransactions(matched)

	log.Printf("[Subscriber] Retrieved %d transactions from algod via round(s) %d-%d in %s",
		transactionCount, fromRound, toRound, time.Since(start).Round(time.Millisecond))

	return matched, metadata, nil
}

// processExtraFields enriches a transaction and its inner transactions with
// decoded ARC-28 events and derived balance changes.
func processExtraFields(
	t *models.SubscribedTransaction,
	events []EventToProcess,
	groups []models.Arc28EventGroup,
) (*models.SubscribedTransaction, error) {
	var applicableGroups []models.Arc28EventGroup
	if t.TxType == models.TypeAppl {
		for i := range groups {
			if transactionInArc28EventGroup(&groups[i], t.AppID(), func() *models.SubscribedTransaction { return t }) {
				applicableGroups = append(applicableGroups, groups[i])
			}
		}
	}

	var applicableEvents []EventToProcess
	for _, e := range events {
		for i := range applicableGroups {
			if applicableGroups[i].GroupName == e.GroupName {
				applicableEvents = append(applicableEvents, e)
				break
			}
		}
	}

	emitted, err := ExtractArc28Events(t.ID, t.Logs, applicableEvents, func(groupName string) bool {
		for i := range applicableGroups {
			if applicableGroups[i].GroupName == groupName {
				return applicableGroups[i].ContinueOnError
			}
		}
		return false
	})
	if err != nil {
		return nil, err
	}

	t.Arc28Events = emitted
	t.BalanceChanges = DeriveBalanceChanges(t)

	for i, inner := range t.InnerTxns {
		enriched, err := processExtraFields(inner, events, groups)
		if err != nil {
			return nil, err
		}
		t.InnerTxns[i] = enriched
	}

	return t, nil
}

// deduplicateTransactions collapses duplicate ids, merging the filter names
// that matched. First occurrence order is preserved.
func deduplicateTransactions(txns []*models.SubscribedTransaction) []*models.SubscribedTransaction {
	seen := make(map[string]*models.SubscribedTransaction, len(txns))
	var out []*models.SubscribedTransaction

	for _, t := range txns {
		if existing, ok := seen[t.ID]; ok {
			for _, name := range t.FiltersMatched {
				if !containsString(existing.FiltersMatched, name) {
					existing.FiltersMatched = append(existing.FiltersMatched, name)
				}
			}
			continue
		}
		seen[t.ID] = t
		out = append(out, t)
	}

	return out
}

func sortByRoundOrder(txns []*models.SubscribedTransaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		if txns[i].ConfirmedRound != txns[j].ConfirmedRound {
			return txns[i].ConfirmedRound < txns[j].ConfirmedRound
		}
		return txns[i].IntraRoundOffset < txns[j].IntraRoundOffset
	})
}
