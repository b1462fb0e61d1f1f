package blocks

import (
	"encoding/base64"

	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

// BlockMetadata summarises a raw block for the poll result. The block hash is
// only available when the node supplied the agreement certificate alongside
// the block.
func BlockMetadata(bd *BlockData) models.BlockMetadata {
	block := &bd.Block

	meta := models.BlockMetadata{
		Round:                  block.Round,
		Timestamp:              block.Timestamp,
		GenesisID:              block.GenesisID,
		GenesisHash:            base64.StdEncoding.EncodeToString(block.GenesisHash),
		Seed:                   base64.StdEncoding.EncodeToString(block.Seed),
		ParentTransactionCount: len(block.Txns),
		FullTransactionCount:   CountTransactions(block.Txns),
		TxnCounter:             block.TxnCounter,
		TransactionsRoot:       base64.StdEncoding.EncodeToString(block.TxnRoot),
		TransactionsRootSHA256: block.TxnRootSHA256,
		Rewards: &models.BlockRewards{
			FeeSink:                 encodeAddress(block.FeeSink),
			RewardsPool:             encodeAddress(block.RewardsPool),
			RewardsLevel:            block.RewardsLevel,
			RewardsResidue:          block.RewardsResidue,
			RewardsRate:             block.RewardsRate,
			RewardsCalculationRound: block.RewardsRecalcRound,
		},
		UpgradeState: &models.BlockUpgradeState{
			CurrentProtocol:        block.CurrentProtocol,
			NextProtocol:           block.NextProtocol,
			NextProtocolApprovals:  block.NextProtocolApprovals,
			NextProtocolVoteBefore: block.NextProtocolVoteBefore,
			NextProtocolSwitchOn:   block.NextProtocolSwitchOn,
		},
	}

	if len(block.PrevHash) > 0 {
		meta.PreviousBlockHash = base64.StdEncoding.EncodeToString(block.PrevHash)
	}
	if len(block.Proposer) > 0 {
		meta.Proposer = encodeAddress(block.Proposer)
	}
	if dig := certBlockHash(bd.Cert); len(dig) > 0 {
		meta.Hash = base64.StdEncoding.EncodeToString(dig)
	}

	return meta
}

func certBlockHash(cert map[string]interface{}) []byte {
	if cert == nil {
		return nil
	}
	prop := rawMap(cert, "prop")
	if prop == nil {
		return nil
	}
	return rawBytes(prop, "dig")
}
