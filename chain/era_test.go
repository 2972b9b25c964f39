package chain

import "testing"

func TestImmortalEraEncode(t *testing.T) {
	got := ImmortalEra().Encode()
	if len(got) != 1 || got[0] != 0 {
		t.Fatalf("immortal era encoding = %v, want [0]", got)
	}
}

func TestNewMortalEraPeriodIsPowerOfTwoInRange(t *testing.T) {
	cases := []uint64{1, 3, 5, 63, 64, 65, 1000, 1 << 20}
	for _, period := range cases {
		e := NewMortalEra(period, 1000)
		if e.Period < 4 || e.Period > 1<<16 {
			t.Fatalf("period %d: got out-of-range quantized period %d", period, e.Period)
		}
		if e.Period&(e.Period-1) != 0 {
			t.Fatalf("period %d: quantized period %d is not a power of two", period, e.Period)
		}
	}
}

func TestMortalEraEncodeIsTwoBytes(t *testing.T) {
	e := NewMortalEra(64, 1000)
	got := e.Encode()
	if len(got) != 2 {
		t.Fatalf("mortal era encoding length = %d, want 2", len(got))
	}
}

func TestMortalEraBirthBlockIsAlignedToPeriod(t *testing.T) {
	e := NewMortalEra(64, 1000)
	birth := e.BirthBlock(1000)
	if birth%e.Period != 0 {
		t.Fatalf("birth block %d not aligned to period %d", birth, e.Period)
	}
	if birth > 1000 {
		t.Fatalf("birth block %d is in the future of current block 1000", birth)
	}
}

func TestImmortalEraBirthBlockIsZero(t *testing.T) {
	if got := ImmortalEra().BirthBlock(5_000_000); got != 0 {
		t.Fatalf("immortal era birth block = %d, want 0", got)
	}
}
