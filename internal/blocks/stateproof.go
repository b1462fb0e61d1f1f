package blocks

import (
	"sort"
	"strconv"

	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

// convertStateProof maps the raw stpf payload (sprf, sprfmsg) into the
// indexer's nested representation.
func convertStateProof(txn map[string]interface{}) *models.StateProofTransaction {
	proof := rawMap(txn, "sprf")
	message := rawMap(txn, "sprfmsg")

	return &models.StateProofTransaction{
		StateProofType: rawUint(txn, "sptype"),
		StateProof: models.StateProofFields{
			PartProofs:        convertMerkleProof(rawMap(proof, "P")),
			PositionsToReveal: rawUintList(proof, "pr"),
			SaltVersion:       rawUint(proof, "v"),
			SigCommit:         rawBytes(proof, "c"),
			SigProofs:         convertMerkleProof(rawMap(proof, "S")),
			SignedWeight:      rawUint(proof, "w"),
			Reveals:           convertReveals(proof["r"]),
		},
		Message: models.StateProofMessage{
			BlockHeadersCommitment: rawBytes(message, "b"),
			FirstAttestedRound:     rawUint(message, "f"),
			LatestAttestedRound:    rawUint(message, "l"),
			LnProvenWeight:         rawUint(message, "P"),
			VotersCommitment:       rawBytes(message, "v"),
		},
	}
}

func convertMerkleProof(m map[string]interface{}) models.MerkleArrayProof {
	return models.MerkleArrayProof{
		HashFactory: models.HashFactory{HashType: rawUint(rawMap(m, "hsh"), "t")},
		TreeDepth:   rawUint(m, "td"),
		Path:        rawBytesList(m, "pth"),
	}
}

// convertReveals handles the reveals map, which is keyed by participant
// position. Depending on how the codec surfaces integer map keys the value
// arrives as either map[interface{}]interface{} or map[string]interface{}.
func convertReveals(v interface{}) []models.StateProofReveal {
	entries := map[uint64]map[string]interface{}{}

	switch m := v.(type) {
	case map[interface{}]interface{}:
		for key, val := range m {
			entry, ok := val.(map[string]interface{})
			if !ok {
				continue
			}
			entries[toUint(key)] = entry
		}
	case map[string]interface{}:
		for key, val := range m {
			entry, ok := val.(map[string]interface{})
			if !ok {
				continue
			}
			pos, err := strconv.ParseUint(key, 10, 64)
			if err != nil {
				continue
			}
			entries[pos] = entry
		}
	}

	positions := make([]uint64, 0, len(entries))
	for pos := range entries {
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })

	reveals := make([]models.StateProofReveal, 0, len(positions))
	for _, pos := range positions {
		entry := entries[pos]
		sigSlot := rawMap(entry, "s")
		sig := rawMap(sigSlot, "s")
		participant := rawMap(entry, "p")
		verifier := rawMap(participant, "p")

		reveals = append(reveals, models.StateProofReveal{
			Position: pos,
			SigSlot: models.StateProofSigSlot{
				LowerSigWeight: rawUint(sigSlot, "l"),
				Signature: models.StateProofSignature{
					MerkleArrayIndex: rawUint(sig, "idx"),
					FalconSignature:  rawBytes(sig, "sig"),
					Proof:            convertMerkleProof(rawMap(sig, "prf")),
					VerifyingKey:     rawBytes(rawMap(sig, "vkey"), "k"),
				},
			},
			Participant: models.StateProofParticipant{
				Weight: rawUint(participant, "w"),
				Verifier: models.StateProofVerifier{
					KeyLifetime: rawUint(verifier, "lf"),
					Commitment:  rawBytes(verifier, "cmt"),
				},
			},
		})
	}

	return reveals
}
