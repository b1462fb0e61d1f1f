package models

// BalanceChangeRole describes how an address participated in a balance change.
type BalanceChangeRole string

const (
	RoleSender         BalanceChangeRole = "Sender"
	RoleReceiver       BalanceChangeRole = "Receiver"
	RoleCloseTo        BalanceChangeRole = "CloseTo"
	RoleAssetCreator   BalanceChangeRole = "AssetCreator"
	RoleAssetDestroyer BalanceChangeRole = "AssetDestroyer"
)

// BalanceChange is the net effect of a single transaction on one
// (address, asset) pair. AssetID zero means the ALGO balance. Amount is
// signed: fees and outgoing transfers are negative.
type BalanceChange struct {
	Address string              `json:"address"`
	AssetID uint64              `json:"asset_id"`
	Amount  int64               `json:"amount"`
	Roles   []BalanceChangeRole `json:"roles"`
}

// HasRole reports whether the change carries the given role.
func (b *BalanceChange) HasRole(role BalanceChangeRole) bool {
	for _, r := range b.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AddRole appends role if not already present.
func (b *BalanceChange) AddRole(role BalanceChangeRole) {
	if !b.HasRole(role) {
		b.Roles = append(b.Roles, role)
	}
}
