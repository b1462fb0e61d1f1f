package blocks

import (
	"github.com/algorand/go-algorand-sdk/v2/types"
)

// Accessors for the raw txn field map. Msgpack decoding leaves strings,
// byte slices and signed/unsigned integers depending on the encoded value,
// so every accessor tolerates the spellings the codec can produce.

func rawString(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}

func rawBytes(m map[string]interface{}, key string) []byte {
	switch v := m[key].(type) {
	case []byte:
		return v
	case string:
		if v == "" {
			return nil
		}
		return []byte(v)
	}
	return nil
}

func rawUint(m map[string]interface{}, key string) uint64 {
	return toUint(m[key])
}

func rawInt(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case int64:
		return v
	case uint64:
		return int64(v)
	case int:
		return int64(v)
	case uint:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func toUint(v interface{}) uint64 {
	switch val := v.(type) {
	case uint64:
		return val
	case int64:
		if val < 0 {
			return 0
		}
		return uint64(val)
	case int:
		if val < 0 {
			return 0
		}
		return uint64(val)
	case uint:
		return uint64(val)
	case float64:
		return uint64(val)
	}
	return 0
}

func rawBool(m map[string]interface{}, key string) bool {
	v, _ := m[key].(bool)
	return v
}

func rawMap(m map[string]interface{}, key string) map[string]interface{} {
	v, _ := m[key].(map[string]interface{})
	return v
}

func rawList(m map[string]interface{}, key string) []interface{} {
	v, _ := m[key].([]interface{})
	return v
}

func rawUintList(m map[string]interface{}, key string) []uint64 {
	list := rawList(m, key)
	if len(list) == 0 {
		return nil
	}
	out := make([]uint64, len(list))
	for i, v := range list {
		out[i] = toUint(v)
	}
	return out
}

func rawBytesList(m map[string]interface{}, key string) [][]byte {
	list := rawList(m, key)
	if len(list) == 0 {
		return nil
	}
	out := make([][]byte, len(list))
	for i, v := range list {
		switch b := v.(type) {
		case []byte:
			out[i] = b
		case string:
			out[i] = []byte(b)
		}
	}
	return out
}

// rawAddress encodes a 32-byte public key field into the standard Algorand
// address form. An already-encoded address string passes through unchanged.
func rawAddress(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case []byte:
		return encodeAddress(v)
	case string:
		if len(v) == 32 {
			return encodeAddress([]byte(v))
		}
		return v
	}
	return ""
}

func rawAddressList(m map[string]interface{}, key string) []string {
	list := rawList(m, key)
	if len(list) == 0 {
		return nil
	}
	out := make([]string, len(list))
	for i, v := range list {
		switch b := v.(type) {
		case []byte:
			out[i] = encodeAddress(b)
		case string:
			out[i] = encodeAddress([]byte(b))
		}
	}
	return out
}

func encodeAddress(pk []byte) string {
	if len(pk) == 0 {
		return ""
	}
	var addr types.Address
	copy(addr[:], pk)
	return addr.String()
}
