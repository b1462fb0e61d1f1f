package blocks

import (
	"fmt"

	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

// ConvertTransaction builds the canonical transaction record for a lifted
// block transaction, recursively converting its inner transactions. Inner
// records get synthetic ids parent/inner/k from a counter shared across all
// nesting levels beneath the top-level parent, and round offsets continuing
// in depth-first pre-order from the converted transaction.
func ConvertTransaction(t *TransactionInBlock) (*models.SubscribedTransaction, error) {
	offset := t.RoundOffset
	innerIndex := 0
	rootID := t.ID
	if t.ParentTransactionID != "" {
		innerIndex = t.ParentOffset + 1
		rootID = t.ParentTransactionID
	}
	return convertTransaction(t, rootID, &offset, &innerIndex)
}

func convertTransaction(t *TransactionInBlock, rootID string, offset *uint64, innerIndex *int) (*models.SubscribedTransaction, error) {
	bt := t.BlockTransaction
	txn := normalizeRawTransaction(bt, t.GenesisHash, t.GenesisID)

	txType := models.TransactionType(rawString(txn, "type"))
	if txType == "" {
		return nil, fmt.Errorf("transaction %s has no type", t.ID)
	}

	result := &models.SubscribedTransaction{
		ID:                  t.ID,
		ParentTransactionID: t.ParentTransactionID,
		TxType:              txType,
		Sender:              rawAddress(txn, "snd"),
		Fee:                 rawUint(txn, "fee"),
		FirstValid:          rawUint(txn, "fv"),
		LastValid:           rawUint(txn, "lv"),
		ConfirmedRound:      t.RoundNumber,
		RoundTime:           t.RoundTimestamp,
		IntraRoundOffset:    t.RoundOffset,
		GenesisID:           rawString(txn, "gen"),
		GenesisHash:         rawBytes(txn, "gh"),
		Group:               rawBytes(txn, "grp"),
		Note:                rawBytes(txn, "note"),
		Lease:               rawBytes(txn, "lx"),
		RekeyTo:             rawAddress(txn, "rekey"),
		CreatedAssetID:      t.CreatedAssetID,
		CreatedAppID:        t.CreatedAppID,
		ClosingAmount:       t.CloseAmount,
		Logs:                t.Logs,
	}
	if len(bt.Sgnr) > 0 {
		result.AuthAddr = encodeAddress(bt.Sgnr)
	}

	switch txType {
	case models.TypePay:
		result.Payment = &models.PaymentTransaction{
			Amount:           rawUint(txn, "amt"),
			Receiver:         rawAddress(txn, "rcv"),
			CloseAmount:      t.CloseAmount,
			CloseRemainderTo: rawAddress(txn, "close"),
		}
	case models.TypeKeyreg:
		result.Keyreg = &models.KeyregTransaction{
			NonParticipation:          rawBool(txn, "nonpart"),
			SelectionParticipationKey: rawBytes(txn, "selkey"),
			StateProofKey:             rawBytes(txn, "sprfkey"),
			VoteFirstValid:            rawUint(txn, "votefst"),
			VoteKeyDilution:           rawUint(txn, "votekd"),
			VoteLastValid:             rawUint(txn, "votelst"),
			VoteParticipationKey:      rawBytes(txn, "votepk"),
		}
	case models.TypeAcfg:
		result.AssetConfig = &models.AssetConfigTransaction{
			AssetID: rawUint(txn, "caid"),
			Params:  convertAssetParams(rawMap(txn, "apar")),
		}
	case models.TypeAxfer:
		result.AssetTransfer = &models.AssetTransferTransaction{
			AssetID:     rawUint(txn, "xaid"),
			Amount:      rawUint(txn, "aamt"),
			Receiver:    rawAddress(txn, "arcv"),
			Sender:      rawAddress(txn, "asnd"),
			CloseAmount: t.AssetCloseAmount,
			CloseTo:     rawAddress(txn, "aclose"),
		}
	case models.TypeAfrz:
		result.AssetFreeze = &models.AssetFreezeTransaction{
			AssetID:         rawUint(txn, "faid"),
			Address:         rawAddress(txn, "fadd"),
			NewFreezeStatus: rawBool(txn, "afrz"),
		}
	case models.TypeAppl:
		result.ApplicationCall = &models.ApplicationTransaction{
			ApplicationID:     rawUint(txn, "apid"),
			OnCompletion:      models.OnCompleteFromRaw(rawUint(txn, "apan")),
			ApplicationArgs:   rawBytesList(txn, "apaa"),
			ApprovalProgram:   rawBytes(txn, "apap"),
			ClearStateProgram: rawBytes(txn, "apsu"),
			ExtraProgramPages: uint32(rawUint(txn, "apep")),
			ForeignApps:       rawUintList(txn, "apfa"),
			ForeignAssets:     rawUintList(txn, "apas"),
			Accounts:          rawAddressList(txn, "apat"),
			GlobalStateSchema: convertStateSchema(rawMap(txn, "apgs")),
			LocalStateSchema:  convertStateSchema(rawMap(txn, "apls")),
		}
	case models.TypeStpf:
		result.StateProof = convertStateProof(txn)
	case models.TypeHb:
		hb := rawMap(txn, "hb")
		result.Heartbeat = &models.HeartbeatTransaction{
			Address:     rawAddress(hb, "a"),
			KeyDilution: rawUint(hb, "kd"),
			Seed:        rawBytes(hb, "sd"),
			VoteID:      rawBytes(hb, "vid"),
		}
	}

	for i := range bt.InnerTxns() {
		inner := &bt.Dt.Inner[i]

		(*offset)++
		childOffset := *offset
		childIndex := *innerIndex
		(*innerIndex)++

		child := &TransactionInBlock{
			BlockTransaction:    inner,
			RoundOffset:         childOffset,
			RoundIndex:          t.RoundIndex,
			RoundNumber:         t.RoundNumber,
			RoundTimestamp:      t.RoundTimestamp,
			GenesisID:           t.GenesisID,
			GenesisHash:         t.GenesisHash,
			ParentOffset:        childIndex,
			ParentTransactionID: rootID,
			ID:                  fmt.Sprintf("%s/inner/%d", rootID, childIndex+1),
			CreatedAssetID:      inner.CreatedAssetID,
			CreatedAppID:        inner.CreatedAppID,
			AssetCloseAmount:    inner.AssetCloseAmount,
			CloseAmount:         inner.CloseAmount,
			Logs:                inner.RawLogs(),
		}

		converted, err := convertTransaction(child, rootID, offset, innerIndex)
		if err != nil {
			return nil, err
		}
		result.InnerTxns = append(result.InnerTxns, converted)
	}

	return result, nil
}

func convertAssetParams(apar map[string]interface{}) *models.AssetParams {
	if apar == nil {
		return nil
	}
	return &models.AssetParams{
		Total:         rawUint(apar, "t"),
		Decimals:      uint32(rawUint(apar, "dc")),
		DefaultFrozen: rawBool(apar, "df"),
		UnitName:      rawString(apar, "un"),
		Name:          rawString(apar, "an"),
		URL:           rawString(apar, "au"),
		MetadataHash:  rawBytes(apar, "am"),
		Manager:       rawAddress(apar, "m"),
		Reserve:       rawAddress(apar, "r"),
		Freeze:        rawAddress(apar, "f"),
		Clawback:      rawAddress(apar, "c"),
	}
}

func convertStateSchema(schema map[string]interface{}) *models.StateSchema {
	if schema == nil {
		return nil
	}
	return &models.StateSchema{
		NumUint:      rawUint(schema, "nui"),
		NumByteSlice: rawUint(schema, "nbs"),
	}
}
