package chain

import "encoding/binary"

// Era is either Immortal (valid forever, used mainly for on-genesis or test
// chains) or Mortal, valid for `period` blocks starting at `phase`,
// mortal by default with a 64-block period.
type Era struct {
	Immortal bool
	Period   uint64
	Phase    uint64
}

// ImmortalEra returns the always-valid era.
func ImmortalEra() Era { return Era{Immortal: true} }

// NewMortalEra computes a mortal era valid starting at currentBlock for
// approximately period blocks, following Substrate's quantized period/phase
// scheme: period is rounded up to a power of two in [4, 65536].
func NewMortalEra(period, currentBlock uint64) Era {
	p := nextPowerOfTwo(period)
	if p < 4 {
		p = 4
	}
	if p > 1<<16 {
		p = 1 << 16
	}
	phase := currentBlock % p
	quantizeFactor := p >> 12
	if quantizeFactor < 1 {
		quantizeFactor = 1
	}
	phase = (phase / quantizeFactor) * quantizeFactor
	return Era{Period: p, Phase: phase}
}

func nextPowerOfTwo(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}

// Encode writes the era's 1-byte (Immortal) or 2-byte (Mortal) SCALE
// representation.
func (e Era) Encode() []byte {
	if e.Immortal {
		return []byte{0}
	}
	trailingZeros := trailingZeros64(e.Period)
	quantizeFactor := e.Period >> 12
	if quantizeFactor < 1 {
		quantizeFactor = 1
	}
	encodedDiscriminant := trailingZeros - 1
	if encodedDiscriminant < 1 {
		encodedDiscriminant = 1
	}
	if encodedDiscriminant > 15 {
		encodedDiscriminant = 15
	}
	encoded := uint16(encodedDiscriminant) | uint16((e.Phase/quantizeFactor)<<4)
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, encoded)
	return buf
}

func trailingZeros64(v uint64) uint64 {
	if v == 0 {
		return 0
	}
	var n uint64
	for v&1 == 0 {
		v >>= 1
		n++
	}
	return n
}

// BirthBlock returns the block number the era's validity window begins at,
// used to fetch the checkpoint hash the signature payload must include.
func (e Era) BirthBlock(currentBlock uint64) uint64 {
	if e.Immortal {
		return 0
	}
	return (currentBlock / e.Period) * e.Period
}
