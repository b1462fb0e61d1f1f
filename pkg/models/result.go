package models

// SyncBehaviour controls how the engine catches up when the watermark lags
// the chain tip by more than MaxRoundsToSync.
type SyncBehaviour string

const (
	// SyncFail aborts the poll with an error.
	SyncFail SyncBehaviour = "fail"
	// SyncSkipToNewest moves the watermark to the tip, syncing only the newest rounds.
	SyncSkipToNewest SyncBehaviour = "skip-sync-newest"
	// SyncOldest syncs forward from the watermark.
	SyncOldest SyncBehaviour = "sync-oldest"
	// SyncOldestStartNow behaves like sync-oldest except a zero watermark
	// starts at the tip instead of replaying history.
	SyncOldestStartNow SyncBehaviour = "sync-oldest-start-now"
	// SyncCatchupWithIndexer reads the backlog from the indexer and only the
	// newest rounds from algod.
	SyncCatchupWithIndexer SyncBehaviour = "catchup-with-indexer"
)

// RoundRange is an inclusive round span.
type RoundRange struct {
	StartRound uint64 `json:"start_round"`
	EndRound   uint64 `json:"end_round"`
}

// BlockRewards carries the rewards state of a block header.
type BlockRewards struct {
	FeeSink                 string `json:"fee-sink"`
	RewardsCalculationRound uint64 `json:"rewards-calculation-round"`
	RewardsLevel            uint64 `json:"rewards-level"`
	RewardsPool             string `json:"rewards-pool"`
	RewardsRate             uint64 `json:"rewards-rate"`
	RewardsResidue          uint64 `json:"rewards-residue"`
}

// BlockUpgradeState carries the protocol upgrade state of a block header.
type BlockUpgradeState struct {
	CurrentProtocol        string  `json:"current-protocol"`
	NextProtocol           string  `json:"next-protocol,omitempty"`
	NextProtocolApprovals  *uint64 `json:"next-protocol-approvals,omitempty"`
	NextProtocolVoteBefore *uint64 `json:"next-protocol-vote-before,omitempty"`
	NextProtocolSwitchOn   *uint64 `json:"next-protocol-switch-on,omitempty"`
}

// BlockMetadata summarises a block fetched from algod during a poll.
type BlockMetadata struct {
	Hash                   string             `json:"hash,omitempty"`
	Round                  uint64             `json:"round"`
	Timestamp              int64              `json:"timestamp"`
	GenesisID              string             `json:"genesis-id"`
	GenesisHash            string             `json:"genesis-hash"`
	PreviousBlockHash      string             `json:"previous-block-hash,omitempty"`
	Seed                   string             `json:"seed"`
	ParentTransactionCount int                `json:"parent-transaction-count"`
	FullTransactionCount   int                `json:"full-transaction-count"`
	TxnCounter             uint64             `json:"txn-counter"`
	TransactionsRoot       string             `json:"transactions-root"`
	TransactionsRootSHA256 string             `json:"transactions-root-sha256"`
	Proposer               string             `json:"proposer,omitempty"`
	Rewards                *BlockRewards      `json:"rewards,omitempty"`
	UpgradeState           *BlockUpgradeState `json:"upgrade-state,omitempty"`
}

// SubscriptionResult is the outcome of a single poll.
type SubscriptionResult struct {
	CurrentRound           uint64                   `json:"current_round"`
	StartingWatermark      uint64                   `json:"starting_watermark"`
	NewWatermark           uint64                   `json:"new_watermark"`
	SyncedRoundRange       RoundRange               `json:"synced_round_range"`
	SubscribedTransactions []*SubscribedTransaction `json:"subscribed_transactions"`
	BlockMetadata          []BlockMetadata          `json:"block_metadata,omitempty"`
}
