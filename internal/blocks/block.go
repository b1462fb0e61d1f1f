package blocks

// BlockData is the raw algod block response: the block itself plus the
// agreement certificate when the node provides one.
type BlockData struct {
	Block Block                  `codec:"block"`
	Cert  map[string]interface{} `codec:"cert,omitempty"`
}

// Block is the raw block header plus its transactions, field names as algod
// encodes them in msgpack.
type Block struct {
	Round       uint64 `codec:"rnd"`
	Timestamp   int64  `codec:"ts"`
	GenesisID   string `codec:"gen"`
	GenesisHash []byte `codec:"gh"`
	PrevHash    []byte `codec:"prev"`
	Seed        []byte `codec:"seed"`
	Proposer    []byte `codec:"prp"`

	FeeSink            []byte `codec:"fees"`
	RewardsPool        []byte `codec:"rwd"`
	RewardsLevel       uint64 `codec:"earn"`
	RewardsResidue     uint64 `codec:"frac"`
	RewardsRate        uint64 `codec:"rate"`
	RewardsRecalcRound uint64 `codec:"rwcalr"`

	CurrentProtocol        string  `codec:"proto"`
	NextProtocol           string  `codec:"nextproto"`
	NextProtocolApprovals  *uint64 `codec:"nextyes"`
	NextProtocolVoteBefore *uint64 `codec:"nextbefore"`
	NextProtocolSwitchOn   *uint64 `codec:"nextswitch"`

	TxnCounter    uint64 `codec:"tc"`
	TxnRoot       []byte `codec:"txn"`
	TxnRootSHA256 string `codec:"txn256"`

	Txns []BlockTransaction `codec:"txns"`
}

// EvalDelta is the subset of the transaction eval delta the engine reads:
// application logs and inner transactions.
type EvalDelta struct {
	Logs  []string           `codec:"lg"`
	Inner []BlockTransaction `codec:"itx"`
}

// BlockTransaction is a transaction as it appears in a raw block, top-level
// or inner. Txn keeps the transaction fields in their raw spellings
// (snd, rcv, amt, ...) since the canonical transaction ID is computed over
// exactly these.
type BlockTransaction struct {
	Txn map[string]interface{} `codec:"txn"`
	Dt  *EvalDelta             `codec:"dt"`

	// HasGenesisID / HasGenesisHash flags. The genesis hash is injected into
	// the transaction whenever hgh is absent; the genesis id only when hgi is
	// set.
	Hgi bool  `codec:"hgi"`
	Hgh *bool `codec:"hgh"`

	Sgnr []byte `codec:"sgnr"` // Signer when different from snd (rekeyed account)

	// Apply data recorded by the ledger.
	CreatedAssetID   *uint64 `codec:"caid"`
	CreatedAppID     *uint64 `codec:"apid"`
	AssetCloseAmount *uint64 `codec:"aca"`
	CloseAmount      *uint64 `codec:"ca"`
}

// InnerTxns returns the raw inner transactions, nil when there are none.
func (bt *BlockTransaction) InnerTxns() []BlockTransaction {
	if bt.Dt == nil {
		return nil
	}
	return bt.Dt.Inner
}

// RawLogs returns the application logs as byte slices, preserving raw bytes.
func (bt *BlockTransaction) RawLogs() [][]byte {
	if bt.Dt == nil || len(bt.Dt.Logs) == 0 {
		return nil
	}
	logs := make([][]byte, len(bt.Dt.Logs))
	for i, l := range bt.Dt.Logs {
		logs[i] = []byte(l)
	}
	return logs
}
