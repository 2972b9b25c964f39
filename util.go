package subtensor

import (
	"encoding/hex"
	"strconv"
)

func hexEncodeBytes(b []byte) string { return hex.EncodeToString(b) }

// parseDecimalUint64 parses payment_queryInfo's partialFee, which the node
// may render as a plain decimal string or a 0x-prefixed hex string
// depending on the serializer in front of it.
func parseDecimalUint64(s string) (uint64, error) {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}
