package subscriber

import (
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

// DeriveBalanceChanges computes the net balance effects of a single
// transaction from its canonical record. Changes are consolidated per
// (address, asset) pair with the role set unioned; asset id zero is the ALGO
// balance.
func DeriveBalanceChanges(t *models.SubscribedTransaction) []models.BalanceChange {
	var changes []models.BalanceChange

	add := func(address string, assetID uint64, amount int64, role models.BalanceChangeRole) {
		changes = append(changes, models.BalanceChange{
			Address: address,
			AssetID: assetID,
			Amount:  amount,
			Roles:   []models.BalanceChangeRole{role},
		})
	}

	if t.Fee > 0 {
		add(t.Sender, 0, -int64(t.Fee), models.RoleSender)
	}

	if pay := t.Payment; pay != nil {
		add(t.Sender, 0, -int64(pay.Amount), models.RoleSender)
		add(pay.Receiver, 0, int64(pay.Amount), models.RoleReceiver)

		if pay.CloseRemainderTo != "" {
			closing := uint64(0)
			if t.ClosingAmount != nil {
				closing = *t.ClosingAmount
			}
			add(t.Sender, 0, -int64(closing), models.RoleSender)
			add(pay.CloseRemainderTo, 0, int64(closing), models.RoleCloseTo)
		}
	}

	if axfer := t.AssetTransfer; axfer != nil && axfer.AssetID != 0 {
		// Clawback transfers debit the revocation target, not the sender.
		effectiveSender := axfer.Sender
		if effectiveSender == "" {
			effectiveSender = t.Sender
		}

		add(effectiveSender, axfer.AssetID, -int64(axfer.Amount), models.RoleSender)
		add(axfer.Receiver, axfer.AssetID, int64(axfer.Amount), models.RoleReceiver)

		if axfer.CloseTo != "" {
			closeAmount := uint64(0)
			if axfer.CloseAmount != nil {
				closeAmount = *axfer.CloseAmount
			}
			add(effectiveSender, axfer.AssetID, -int64(closeAmount), models.RoleSender)
			add(axfer.CloseTo, axfer.AssetID, int64(closeAmount), models.RoleCloseTo)
		}
	}

	if acfg := t.AssetConfig; acfg != nil {
		if acfg.AssetID == 0 && t.CreatedAssetID != nil {
			total := int64(0)
			if acfg.Params != nil {
				total = int64(acfg.Params.Total)
			}
			add(t.Sender, *t.CreatedAssetID, total, models.RoleAssetCreator)
		} else if acfg.AssetID != 0 && acfg.Params == nil {
			add(t.Sender, acfg.AssetID, 0, models.RoleAssetDestroyer)
		}
	}

	return consolidateBalanceChanges(changes)
}

func consolidateBalanceChanges(changes []models.BalanceChange) []models.BalanceChange {
	var out []models.BalanceChange
	for _, change := range changes {
		merged := false
		for i := range out {
			if out[i].Address == change.Address && out[i].AssetID == change.AssetID {
				out[i].Amount += change.Amount
				for _, role := range change.Roles {
					out[i].AddRole(role)
				}
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, change)
		}
	}
	return out
}
