package blocks

import (
	"crypto/sha512"
	"encoding/base32"
	"fmt"
	"reflect"

	"github.com/ugorji/go/codec"
)

// ZeroAddress is the encoded form of the all-zero Algorand address, used as
// the default receiver when a block transaction omits rcv/arcv.
const ZeroAddress = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAY5HFKQ"

const txIDLength = 52

var (
	decodeHandle    = newMsgpackHandle(false)
	canonicalHandle = newMsgpackHandle(true)
)

func newMsgpackHandle(canonical bool) *codec.MsgpackHandle {
	// WriteExt keeps the str/bin distinction through a decode/encode round
	// trip: str fields come back as string, bin fields stay []byte, so the
	// canonical re-encode reproduces the node's exact bytes.
	h := &codec.MsgpackHandle{WriteExt: true}
	h.Canonical = canonical
	h.MapType = reflect.TypeOf(map[string]interface{}(nil))
	return h
}

// DecodeBlockData decodes a raw msgpack block response from algod.
func DecodeBlockData(data []byte) (*BlockData, error) {
	var bd BlockData
	if err := codec.NewDecoderBytes(data, decodeHandle).Decode(&bd); err != nil {
		return nil, fmt.Errorf("decoding block: %w", err)
	}
	return &bd, nil
}

// normalizeRawTransaction returns a copy of the raw txn fields with the
// block-level genesis id/hash folded back in and zero-address receivers made
// explicit. The result is what the transaction ID is computed over.
func normalizeRawTransaction(bt *BlockTransaction, genesisHash []byte, genesisID string) map[string]interface{} {
	txn := make(map[string]interface{}, len(bt.Txn)+2)
	for k, v := range bt.Txn {
		if v == nil {
			continue
		}
		txn[k] = v
	}

	if bt.Hgi {
		txn["gen"] = genesisID
	}
	if bt.Hgh == nil {
		txn["gh"] = genesisHash
	}

	switch rawString(txn, "type") {
	case "axfer":
		if txn["arcv"] == nil {
			txn["arcv"] = ZeroAddress
		}
	case "pay":
		if txn["rcv"] == nil {
			txn["rcv"] = ZeroAddress
		}
	}

	return txn
}

// TransactionID computes the canonical transaction ID for a raw block
// transaction: base32(SHA-512/256("TX" ++ canonical-msgpack(txn)))[:52].
// The canonical encoding sorts keys and omits zero values.
func TransactionID(bt *BlockTransaction, genesisHash []byte, genesisID string) (string, error) {
	txn := stripZeroValues(normalizeRawTransaction(bt, genesisHash, genesisID))

	var encoded []byte
	if err := codec.NewEncoderBytes(&encoded, canonicalHandle).Encode(txn); err != nil {
		return "", fmt.Errorf("encoding transaction for id: %w", err)
	}

	digest := sha512.Sum512_256(append([]byte("TX"), encoded...))
	return base32.StdEncoding.EncodeToString(digest[:])[:txIDLength], nil
}

func stripZeroValues(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]interface{}); ok {
			out[k] = stripZeroValues(nested)
			continue
		}
		if !isZeroValue(v) {
			out[k] = v
		}
	}
	return out
}

func isZeroValue(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []byte:
		return len(val) == 0
	case bool:
		return !val
	case uint64:
		return val == 0
	case int64:
		return val == 0
	case int:
		return val == 0
	case uint:
		return val == 0
	case float64:
		return val == 0
	case []interface{}:
		return len(val) == 0
	default:
		return false
	}
}
