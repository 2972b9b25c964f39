package scale

import (
	"encoding/binary"
	"math/big"
)

// U64F64 is a fixed-point number represented as two 64-bit halves
// (integer, fractional), as used by several subnet hyperparameters and
// emission calculations. It is display-only: chain arithmetic never needs it
// converted back to the wire form by this client.
type U64F64 struct {
	Int  uint64
	Frac uint64
}

// DecodeU64F64 reads the two little-endian 64-bit halves from data.
func DecodeU64F64(data []byte) (U64F64, error) {
	d := NewDecoder(data)
	intPart, err := d.DecodeUint64()
	if err != nil {
		return U64F64{}, err
	}
	frac, err := d.DecodeUint64()
	if err != nil {
		return U64F64{}, err
	}
	return U64F64{Int: intPart, Frac: frac}, nil
}

// Encode writes the two halves back out, little-endian.
func (f U64F64) Encode() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf[0:8], f.Int)
	binary.LittleEndian.PutUint64(buf[8:16], f.Frac)
	return buf
}

// Float64 converts to a float64 for display: int_part + frac_part / 2^64.
func (f U64F64) Float64() float64 {
	frac := new(big.Float).SetUint64(f.Frac)
	frac.Quo(frac, new(big.Float).SetFloat64(18446744073709551616.0)) // 2^64
	whole := new(big.Float).SetUint64(f.Int)
	whole.Add(whole, frac)
	out, _ := whole.Float64()
	return out
}
