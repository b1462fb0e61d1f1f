package models

// Arc28EventFilter selects transactions that emitted a specific event from a
// specific configured group.
type Arc28EventFilter struct {
	GroupName string `json:"group_name" yaml:"group_name"`
	EventName string `json:"event_name" yaml:"event_name"`
}

// BalanceChangeFilter matches against the derived balance changes of a
// transaction. All set fields must hold for a single balance change; list
// fields are OR within the field.
type BalanceChangeFilter struct {
	Address           []string            `json:"address,omitempty" yaml:"address,omitempty"`
	AssetID           []uint64            `json:"asset_id,omitempty" yaml:"asset_id,omitempty"`
	Role              []BalanceChangeRole `json:"role,omitempty" yaml:"role,omitempty"`
	MinAmount         *int64              `json:"min_amount,omitempty" yaml:"min_amount,omitempty"`
	MaxAmount         *int64              `json:"max_amount,omitempty" yaml:"max_amount,omitempty"`
	MinAbsoluteAmount *uint64             `json:"min_absolute_amount,omitempty" yaml:"min_absolute_amount,omitempty"`
	MaxAbsoluteAmount *uint64             `json:"max_absolute_amount,omitempty" yaml:"max_absolute_amount,omitempty"`
}

// TransactionFilter is the conjunction of optional match fragments; a
// transaction matches when every set fragment holds. List-valued fragments
// are OR within the fragment.
type TransactionFilter struct {
	Type     []TransactionType `json:"type,omitempty" yaml:"type,omitempty"`
	Sender   []string          `json:"sender,omitempty" yaml:"sender,omitempty"`
	Receiver []string          `json:"receiver,omitempty" yaml:"receiver,omitempty"`

	// NotePrefix matches transactions whose note starts with these bytes.
	NotePrefix []byte `json:"note_prefix,omitempty" yaml:"note_prefix,omitempty"`

	AppID         []uint64 `json:"app_id,omitempty" yaml:"app_id,omitempty"`
	AppCreate     *bool    `json:"app_create,omitempty" yaml:"app_create,omitempty"`
	AppOnComplete []string `json:"app_on_complete,omitempty" yaml:"app_on_complete,omitempty"`
	AssetID       []uint64 `json:"asset_id,omitempty" yaml:"asset_id,omitempty"`
	AssetCreate   *bool    `json:"asset_create,omitempty" yaml:"asset_create,omitempty"`

	// Amount bounds over the pay/axfer amount. Zero means unset.
	MinAmount uint64 `json:"min_amount,omitempty" yaml:"min_amount,omitempty"`
	MaxAmount uint64 `json:"max_amount,omitempty" yaml:"max_amount,omitempty"`

	// MethodSignature matches app calls whose first argument is the ABI
	// method selector of one of these signatures, e.g. "swap(uint64,uint64)uint64".
	MethodSignature []string `json:"method_signature,omitempty" yaml:"method_signature,omitempty"`

	// AppCallArgumentsMatch is a predicate over the raw application args.
	AppCallArgumentsMatch func(args [][]byte) bool `json:"-" yaml:"-"`

	// Arc28Events matches transactions that emitted one of these events.
	Arc28Events []Arc28EventFilter `json:"arc28_events,omitempty" yaml:"arc28_events,omitempty"`

	// BalanceChanges matches transactions with at least one balance change
	// satisfying one of these filters.
	BalanceChanges []BalanceChangeFilter `json:"balance_changes,omitempty" yaml:"balance_changes,omitempty"`

	// CustomFilter is an arbitrary predicate applied last.
	CustomFilter func(t *SubscribedTransaction) bool `json:"-" yaml:"-"`
}

// NamedFilter pairs a filter with the name events fire under. Mapper, when
// set, transforms the matched batch before listeners run.
type NamedFilter struct {
	Name   string            `json:"name" yaml:"name"`
	Filter TransactionFilter `json:"filter" yaml:"filter"`
	Mapper func(txns []*SubscribedTransaction) []*SubscribedTransaction `json:"-" yaml:"-"`
}
