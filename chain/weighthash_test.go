package chain

import (
	"bytes"
	"testing"
)

func TestGenerateWeightHashRejectsMismatchedLengths(t *testing.T) {
	_, err := GenerateWeightHash("5Addr", 1, []uint16{1, 2}, []uint16{1}, nil, 0)
	if err != errMismatchedLengths {
		t.Fatalf("err = %v, want errMismatchedLengths", err)
	}
}

func TestGenerateWeightHashPreservesCallerOrder(t *testing.T) {
	// The chain recomputes this hash from the revealed uids/values in
	// whatever order reveal() submits them, so GenerateWeightHash must not
	// reorder its input: the same (uid, value) pairs in a different caller
	// order must hash differently.
	addr := "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	salt := []uint16{1, 2, 3, 4}

	h1, err := GenerateWeightHash(addr, 7, []uint16{3, 1, 2}, []uint16{30, 10, 20}, salt, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h2, err := GenerateWeightHash(addr, 7, []uint16{1, 2, 3}, []uint16{10, 20, 30}, salt, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bytes.Equal(h1, h2) {
		t.Fatalf("hash must depend on caller order, not just on the uid/value pairing")
	}
}

func TestGenerateWeightHashChangesWithSalt(t *testing.T) {
	addr := "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	uids := []uint16{1, 2, 3}
	values := []uint16{10, 20, 30}

	h1, err := GenerateWeightHash(addr, 7, uids, values, []uint16{1}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h2, err := GenerateWeightHash(addr, 7, uids, values, []uint16{2}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bytes.Equal(h1, h2) {
		t.Fatalf("hash did not change when salt changed")
	}
}

func TestGenerateWeightHashLength(t *testing.T) {
	h, err := GenerateWeightHash("5addr", 0, []uint16{1}, []uint16{1}, []uint16{1}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h) != 32 {
		t.Fatalf("hash length = %d, want 32", len(h))
	}
}
