package chain

import (
	"context"
	"testing"

	"github.com/opentensor/subtensor-go/chainmock"
	"github.com/opentensor/subtensor-go/metadata"
)

func storageEntryFixture() metadata.StorageEntry {
	return metadata.StorageEntry{
		Name:     "Uids",
		Modifier: metadata.ModifierOptional,
		Keys: []metadata.StorageKeyPart{
			{Hasher: metadata.HasherTwox64Concat, Type: 1},
			{Hasher: metadata.HasherBlake2_128Concat, Type: 2},
		},
		Value: 3,
	}
}

func TestAtParamNilMeansOmitted(t *testing.T) {
	if got := atParam(nil); got != nil {
		t.Fatalf("atParam(nil) = %v, want nil", got)
	}
}

func TestAtParamEncodesHash(t *testing.T) {
	var h [32]byte
	h[0] = 0xff
	params := atParam(&h)
	if len(params) != 1 {
		t.Fatalf("atParam returned %d params, want 1", len(params))
	}
}

func TestResolveAtLatestReturnsNilAt(t *testing.T) {
	srv := chainmock.New()
	defer srv.Close()
	hash := "0x" + repeat("11", 32)
	srv.HandleResult("chain_getFinalizedHead", hash)

	client := dialMock(t, srv)
	blocks, err := NewBlockHashCache(client, 0)
	if err != nil {
		t.Fatalf("NewBlockHashCache: %v", err)
	}
	e := &Engine{Blocks: blocks}

	at, err := e.resolveAt(context.Background(), BlockAtLatest())
	if err != nil {
		t.Fatalf("resolveAt(latest): %v", err)
	}
	if at != nil {
		t.Fatalf("resolveAt(latest) = %v, want nil (latest is an omitted `at` param)", at)
	}
}

func TestResolveAtNumberReturnsResolvedHash(t *testing.T) {
	srv := chainmock.New()
	defer srv.Close()
	hash := "0x" + repeat("22", 32)
	srv.HandleResult("chain_getBlockHash", hash)

	client := dialMock(t, srv)
	blocks, err := NewBlockHashCache(client, 0)
	if err != nil {
		t.Fatalf("NewBlockHashCache: %v", err)
	}
	e := &Engine{Blocks: blocks}

	var n uint64 = 100
	at, err := e.resolveAt(context.Background(), BlockAtNumber(n))
	if err != nil {
		t.Fatalf("resolveAt(number): %v", err)
	}
	if at == nil || at[0] != 0x22 {
		t.Fatalf("resolveAt(number) = %v, want a hash starting with 0x22", at)
	}
}

func TestStorageHashersMatchesDeclaredKeyOrder(t *testing.T) {
	entry := storageEntryFixture()
	hs := storageHashers(entry)
	if len(hs) != len(entry.Keys) {
		t.Fatalf("got %d hashers, want %d", len(hs), len(entry.Keys))
	}
	for i, k := range entry.Keys {
		if hs[i] != k.Hasher {
			t.Fatalf("hasher[%d] = %v, want %v", i, hs[i], k.Hasher)
		}
	}
}
