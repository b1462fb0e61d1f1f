package models

// TransactionType is the short type tag carried by every Algorand transaction.
type TransactionType string

const (
	TypePay    TransactionType = "pay"    // Payment
	TypeKeyreg TransactionType = "keyreg" // Key registration
	TypeAcfg   TransactionType = "acfg"   // Asset configuration (create/reconfigure/destroy)
	TypeAxfer  TransactionType = "axfer"  // Asset transfer
	TypeAfrz   TransactionType = "afrz"   // Asset freeze
	TypeAppl   TransactionType = "appl"   // Application call
	TypeStpf   TransactionType = "stpf"   // State proof
	TypeHb     TransactionType = "hb"     // Heartbeat
)

// Application on-completion values in the indexer's string form. Raw blocks
// encode these as integers 0..5; all comparisons happen on the string form.
const (
	OnCompleteNoOp     = "noop"
	OnCompleteOptIn    = "optin"
	OnCompleteCloseOut = "closeout"
	OnCompleteClear    = "clear"
	OnCompleteUpdate   = "update"
	OnCompleteDelete   = "delete"
)

var onCompletes = []string{
	OnCompleteNoOp, OnCompleteOptIn, OnCompleteCloseOut,
	OnCompleteClear, OnCompleteUpdate, OnCompleteDelete,
}

// OnCompleteFromRaw maps a raw block integer on-completion to the indexer
// string form. Unknown values return the empty string.
func OnCompleteFromRaw(v uint64) string {
	if v >= uint64(len(onCompletes)) {
		return ""
	}
	return onCompletes[v]
}

// SubscribedTransaction is the canonical transaction record used throughout
// the pipeline. It follows the indexer transaction schema with additions:
//   - parent_transaction_id so inner transactions reference their ultimate parent
//   - inner-txns recursively carry the same extra fields
//   - arc28_events, balance_changes and filters_matched populated by the pipeline
type SubscribedTransaction struct {
	ID                  string   `json:"id"`
	ParentTransactionID string   `json:"parent_transaction_id,omitempty"` // Set iff this is an inner transaction
	FiltersMatched      []string `json:"filters_matched,omitempty"`

	TxType           TransactionType `json:"tx-type"`
	Sender           string          `json:"sender"`
	Fee              uint64          `json:"fee"`
	FirstValid       uint64          `json:"first-valid"`
	LastValid        uint64          `json:"last-valid"`
	ConfirmedRound   uint64          `json:"confirmed-round"`
	RoundTime        int64           `json:"round-time"`
	IntraRoundOffset uint64          `json:"intra-round-offset"` // Depth-first pre-order offset within the round
	GenesisID        string          `json:"genesis-id,omitempty"`
	GenesisHash      []byte          `json:"genesis-hash,omitempty"`
	Group            []byte          `json:"group,omitempty"`
	Note             []byte          `json:"note,omitempty"`
	Lease            []byte          `json:"lease,omitempty"`
	RekeyTo          string          `json:"rekey-to,omitempty"`
	AuthAddr         string          `json:"auth-addr,omitempty"` // Signer when different from Sender (rekeyed account)

	// Side effects recorded by the ledger alongside the transaction.
	CreatedAssetID *uint64  `json:"created-asset-index,omitempty"`
	CreatedAppID   *uint64  `json:"created-application-index,omitempty"`
	ClosingAmount  *uint64  `json:"closing-amount,omitempty"`
	Logs           [][]byte `json:"logs,omitempty"` // Ordered raw log payloads from application execution

	// Exactly one of these is set, matching TxType.
	Payment         *PaymentTransaction       `json:"payment-transaction,omitempty"`
	Keyreg          *KeyregTransaction        `json:"keyreg-transaction,omitempty"`
	AssetConfig     *AssetConfigTransaction   `json:"asset-config-transaction,omitempty"`
	AssetTransfer   *AssetTransferTransaction `json:"asset-transfer-transaction,omitempty"`
	AssetFreeze     *AssetFreezeTransaction   `json:"asset-freeze-transaction,omitempty"`
	ApplicationCall *ApplicationTransaction   `json:"application-transaction,omitempty"`
	StateProof      *StateProofTransaction    `json:"state-proof-transaction,omitempty"`
	Heartbeat       *HeartbeatTransaction     `json:"heartbeat-transaction,omitempty"`

	InnerTxns []*SubscribedTransaction `json:"inner-txns,omitempty"` // Depth-first order

	// Derived by the pipeline.
	Arc28Events    []EmittedArc28Event `json:"arc28_events,omitempty"`
	BalanceChanges []BalanceChange     `json:"balance_changes,omitempty"`
}

// AppID returns the application this transaction relates to: the created app
// for an app-create, otherwise the called app. Zero when not an app call.
func (t *SubscribedTransaction) AppID() uint64 {
	if t.CreatedAppID != nil {
		return *t.CreatedAppID
	}
	if t.ApplicationCall != nil {
		return t.ApplicationCall.ApplicationID
	}
	return 0
}

// Receiver returns the receiving address for pay and axfer transactions,
// empty otherwise.
func (t *SubscribedTransaction) Receiver() string {
	if t.Payment != nil {
		return t.Payment.Receiver
	}
	if t.AssetTransfer != nil {
		return t.AssetTransfer.Receiver
	}
	return ""
}

// Amount returns the amount moved by a pay or axfer transaction, zero otherwise.
func (t *SubscribedTransaction) Amount() uint64 {
	if t.Payment != nil {
		return t.Payment.Amount
	}
	if t.AssetTransfer != nil {
		return t.AssetTransfer.Amount
	}
	return 0
}

// PaymentTransaction is the pay-specific payload.
type PaymentTransaction struct {
	Amount           uint64  `json:"amount"`
	Receiver         string  `json:"receiver"`
	CloseAmount      *uint64 `json:"close-amount,omitempty"`
	CloseRemainderTo string  `json:"close-remainder-to,omitempty"`
}

// KeyregTransaction is the keyreg-specific payload. Participation fields are
// preserved verbatim from the block encoding.
type KeyregTransaction struct {
	NonParticipation          bool   `json:"non-participation"`
	SelectionParticipationKey []byte `json:"selection-participation-key,omitempty"`
	StateProofKey             []byte `json:"state-proof-key,omitempty"`
	VoteFirstValid            uint64 `json:"vote-first-valid,omitempty"`
	VoteKeyDilution           uint64 `json:"vote-key-dilution,omitempty"`
	VoteLastValid             uint64 `json:"vote-last-valid,omitempty"`
	VoteParticipationKey      []byte `json:"vote-participation-key,omitempty"`
}

// AssetConfigTransaction is the acfg-specific payload. AssetID is zero for an
// asset create; Params is nil for an asset destroy.
type AssetConfigTransaction struct {
	AssetID uint64       `json:"asset-id"`
	Params  *AssetParams `json:"params,omitempty"`
}

// AssetParams mirrors the asset parameter block (apar).
type AssetParams struct {
	Total         uint64 `json:"total"`
	Decimals      uint32 `json:"decimals"`
	DefaultFrozen bool   `json:"default-frozen,omitempty"`
	UnitName      string `json:"unit-name,omitempty"`
	Name          string `json:"name,omitempty"`
	URL           string `json:"url,omitempty"`
	MetadataHash  []byte `json:"metadata-hash,omitempty"`
	Manager       string `json:"manager,omitempty"`
	Reserve       string `json:"reserve,omitempty"`
	Freeze        string `json:"freeze,omitempty"`
	Clawback      string `json:"clawback,omitempty"`
	Creator       string `json:"creator,omitempty"`
}

// AssetTransferTransaction is the axfer-specific payload. Sender is only set
// for clawback transfers where the effective sender differs from the
// transaction sender.
type AssetTransferTransaction struct {
	AssetID     uint64  `json:"asset-id"`
	Amount      uint64  `json:"amount"`
	Receiver    string  `json:"receiver"`
	Sender      string  `json:"sender,omitempty"`
	CloseAmount *uint64 `json:"close-amount,omitempty"`
	CloseTo     string  `json:"close-to,omitempty"`
}

// AssetFreezeTransaction is the afrz-specific payload.
type AssetFreezeTransaction struct {
	AssetID         uint64 `json:"asset-id"`
	Address         string `json:"address"`
	NewFreezeStatus bool   `json:"new-freeze-status"`
}

// StateSchema is the global/local state allocation of an application.
type StateSchema struct {
	NumUint      uint64 `json:"num-uint"`
	NumByteSlice uint64 `json:"num-byte-slice"`
}

// ApplicationTransaction is the appl-specific payload.
type ApplicationTransaction struct {
	ApplicationID     uint64       `json:"application-id"`
	OnCompletion      string       `json:"on-completion"`
	ApplicationArgs   [][]byte     `json:"application-args,omitempty"`
	ApprovalProgram   []byte       `json:"approval-program,omitempty"`
	ClearStateProgram []byte       `json:"clear-state-program,omitempty"`
	ExtraProgramPages uint32       `json:"extra-program-pages,omitempty"`
	ForeignApps       []uint64     `json:"foreign-apps,omitempty"`
	ForeignAssets     []uint64     `json:"foreign-assets,omitempty"`
	Accounts          []string     `json:"accounts,omitempty"`
	GlobalStateSchema *StateSchema `json:"global-state-schema,omitempty"`
	LocalStateSchema  *StateSchema `json:"local-state-schema,omitempty"`
}

// HeartbeatTransaction is the hb-specific payload.
type HeartbeatTransaction struct {
	Address     string `json:"hb-address"`
	KeyDilution uint64 `json:"hb-key-dilution,omitempty"`
	Seed        []byte `json:"hb-seed,omitempty"`
	VoteID      []byte `json:"hb-vote-id,omitempty"`
}

// StateProofTransaction is the stpf-specific payload.
type StateProofTransaction struct {
	StateProof     StateProofFields  `json:"state-proof"`
	Message        StateProofMessage `json:"message"`
	StateProofType uint64            `json:"state-proof-type"`
}

type StateProofFields struct {
	PartProofs        MerkleArrayProof   `json:"part-proofs"`
	PositionsToReveal []uint64           `json:"positions-to-reveal"`
	SaltVersion       uint64             `json:"salt-version"`
	SigCommit         []byte             `json:"sig-commit"`
	SigProofs         MerkleArrayProof   `json:"sig-proofs"`
	SignedWeight      uint64             `json:"signed-weight"`
	Reveals           []StateProofReveal `json:"reveals"`
}

type HashFactory struct {
	HashType uint64 `json:"hash-type"`
}

type MerkleArrayProof struct {
	HashFactory HashFactory `json:"hash-factory"`
	TreeDepth   uint64      `json:"tree-depth"`
	Path        [][]byte    `json:"path"`
}

type StateProofReveal struct {
	Position    uint64                `json:"position"`
	SigSlot     StateProofSigSlot     `json:"sig-slot"`
	Participant StateProofParticipant `json:"participant"`
}

type StateProofSigSlot struct {
	LowerSigWeight uint64              `json:"lower-sig-weight"`
	Signature      StateProofSignature `json:"signature"`
}

type StateProofSignature struct {
	MerkleArrayIndex uint64           `json:"merkle-array-index"`
	FalconSignature  []byte           `json:"falcon-signature"`
	Proof            MerkleArrayProof `json:"proof"`
	VerifyingKey     []byte           `json:"verifying-key"`
}

type StateProofParticipant struct {
	Weight   uint64             `json:"weight"`
	Verifier StateProofVerifier `json:"verifier"`
}

type StateProofVerifier struct {
	KeyLifetime uint64 `json:"key-lifetime"`
	Commitment  []byte `json:"commitment"`
}

type StateProofMessage struct {
	BlockHeadersCommitment []byte `json:"block-headers-commitment"`
	FirstAttestedRound     uint64 `json:"first-attested-round"`
	LatestAttestedRound    uint64 `json:"latest-attested-round"`
	LnProvenWeight         uint64 `json:"ln-proven-weight"`
	VotersCommitment       []byte `json:"voters-commitment"`
}
