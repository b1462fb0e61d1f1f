package subscriber

import (
	"bytes"
	"crypto/sha512"
	"encoding/base64"

	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

// MethodSelectorBase64 returns the base64-encoded 4-byte ABI method selector
// of a method signature, the form application args carry in the indexer
// schema.
func MethodSelectorBase64(methodSignature string) string {
	digest := sha512.Sum512_256([]byte(methodSignature))
	return base64.StdEncoding.EncodeToString(digest[:4])
}

// MatchesFilter evaluates a transaction filter against a canonical
// transaction record. Every set fragment must hold; list fragments are OR
// within the fragment.
func MatchesFilter(
	f *models.TransactionFilter,
	t *models.SubscribedTransaction,
	events []EventToProcess,
	groups []models.Arc28EventGroup,
) bool {
	if len(f.Sender) > 0 && !containsString(f.Sender, t.Sender) {
		return false
	}

	if len(f.Receiver) > 0 {
		receiver := t.Receiver()
		if receiver == "" || !containsString(f.Receiver, receiver) {
			return false
		}
	}

	if len(f.Type) > 0 {
		matched := false
		for _, typ := range f.Type {
			if typ == t.TxType {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if len(f.NotePrefix) > 0 && !bytes.HasPrefix(t.Note, f.NotePrefix) {
		return false
	}

	if len(f.AppID) > 0 {
		calledApp := uint64(0)
		if t.ApplicationCall != nil {
			calledApp = t.ApplicationCall.ApplicationID
		}
		createdApp := uint64(0)
		if t.CreatedAppID != nil {
			createdApp = *t.CreatedAppID
		}
		matched := false
		for _, id := range f.AppID {
			if (calledApp != 0 && calledApp == id) || (createdApp != 0 && createdApp == id) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if len(f.AssetID) > 0 && !matchesAssetID(f.AssetID, t) {
		return false
	}

	if f.MinAmount > 0 && t.Amount() < f.MinAmount {
		return false
	}
	if f.MaxAmount > 0 && t.Amount() > f.MaxAmount {
		return false
	}

	if f.AssetCreate != nil && *f.AssetCreate != (t.CreatedAssetID != nil) {
		return false
	}
	if f.AppCreate != nil && *f.AppCreate != (t.CreatedAppID != nil) {
		return false
	}

	if len(f.AppOnComplete) > 0 {
		if t.ApplicationCall == nil || !containsString(f.AppOnComplete, t.ApplicationCall.OnCompletion) {
			return false
		}
	}

	if len(f.MethodSignature) > 0 {
		if t.ApplicationCall == nil || len(t.ApplicationCall.ApplicationArgs) == 0 {
			return false
		}
		selector := base64.StdEncoding.EncodeToString(t.ApplicationCall.ApplicationArgs[0])
		matched := false
		for _, sig := range f.MethodSignature {
			if selector == MethodSelectorBase64(sig) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if f.AppCallArgumentsMatch != nil {
		var args [][]byte
		if t.ApplicationCall != nil {
			args = t.ApplicationCall.ApplicationArgs
		}
		if !f.AppCallArgumentsMatch(args) {
			return false
		}
	}

	if len(f.Arc28Events) > 0 {
		if t.TxType != models.TypeAppl || len(t.Logs) == 0 {
			return false
		}
		if !HasMatchingArc28Event(t.Logs, events, groups, f.Arc28Events, t.AppID(), func() *models.SubscribedTransaction { return t }) {
			return false
		}
	}

	if len(f.BalanceChanges) > 0 {
		if !HasBalanceChangeMatch(DeriveBalanceChanges(t), f.BalanceChanges) {
			return false
		}
	}

	if f.CustomFilter != nil && !f.CustomFilter(t) {
		return false
	}

	return true
}

func matchesAssetID(ids []uint64, t *models.SubscribedTransaction) bool {
	candidates := make([]uint64, 0, 4)
	if t.CreatedAssetID != nil {
		candidates = append(candidates, *t.CreatedAssetID)
	}
	if t.AssetTransfer != nil {
		candidates = append(candidates, t.AssetTransfer.AssetID)
	}
	if t.AssetConfig != nil {
		candidates = append(candidates, t.AssetConfig.AssetID)
	}
	if t.AssetFreeze != nil {
		candidates = append(candidates, t.AssetFreeze.AssetID)
	}

	for _, id := range ids {
		for _, candidate := range candidates {
			if candidate != 0 && candidate == id {
				return true
			}
		}
	}
	return false
}

// HasBalanceChangeMatch reports whether any derived balance change satisfies
// any of the balance change filters.
func HasBalanceChangeMatch(changes []models.BalanceChange, filters []models.BalanceChangeFilter) bool {
	for i := range filters {
		for j := range changes {
			if matchesBalanceChange(&changes[j], &filters[i]) {
				return true
			}
		}
	}
	return false
}

func matchesBalanceChange(change *models.BalanceChange, f *models.BalanceChangeFilter) bool {
	if len(f.Address) > 0 && !containsString(f.Address, change.Address) {
		return false
	}

	if len(f.AssetID) > 0 {
		matched := false
		for _, id := range f.AssetID {
			if id == change.AssetID {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if len(f.Role) > 0 {
		matched := false
		for _, role := range f.Role {
			if change.HasRole(role) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if f.MinAmount != nil && change.Amount < *f.MinAmount {
		return false
	}
	if f.MaxAmount != nil && change.Amount > *f.MaxAmount {
		return false
	}

	abs := change.Amount
	if abs < 0 {
		abs = -abs
	}
	if f.MinAbsoluteAmount != nil && uint64(abs) < *f.MinAbsoluteAmount {
		return false
	}
	if f.MaxAbsoluteAmount != nil && uint64(abs) > *f.MaxAbsoluteAmount {
		return false
	}

	return true
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
