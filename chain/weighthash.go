package chain

import (
	"errors"

	"github.com/opentensor/subtensor-go/scale"
)

var errMismatchedLengths = errors.New("chain: uids and values must have equal length")

// GenerateWeightHash computes the commit hash of a weight-setting
// assignment: blake2_256(address || netuid || uids || values || salt ||
// version_key), with uids/values encoded in caller order. The caller order
// must match what reveal() later submits, since the chain recomputes this
// same hash from the revealed uids/values to check it against the commit.
func GenerateWeightHash(ss58Address string, netuid uint16, uids, values []uint16, salt []uint16, versionKey uint64) ([]byte, error) {
	if len(uids) != len(values) {
		return nil, errMismatchedLengths
	}

	enc := scale.NewEncoder()
	enc.EncodeString(ss58Address)
	enc.EncodeUint16(netuid)
	encodeUint16Vec(enc, uids)
	encodeUint16Vec(enc, values)
	encodeUint16Vec(enc, salt)
	enc.EncodeUint64(versionKey)

	return blake2_256(enc.Bytes()), nil
}

func encodeUint16Vec(enc *scale.Encoder, vs []uint16) {
	enc.EncodeCompact(uint64(len(vs)))
	for _, v := range vs {
		enc.EncodeUint16(v)
	}
}
