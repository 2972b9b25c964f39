package chain

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/opentensor/subtensor-go/chainmock"
	"github.com/opentensor/subtensor-go/rpc"
)

func dialMock(t *testing.T, srv *chainmock.Server) *rpc.Client {
	t.Helper()
	c, err := rpc.Dial(context.Background(), srv.URL(), rpc.Options{})
	if err != nil {
		t.Fatalf("dial mock server: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBlockHashCacheCurrentBlock(t *testing.T) {
	srv := chainmock.New()
	defer srv.Close()
	srv.HandleResult("chain_getHeader", map[string]interface{}{"number": "0x2a"})

	client := dialMock(t, srv)
	cache, err := NewBlockHashCache(client, 0)
	if err != nil {
		t.Fatalf("NewBlockHashCache: %v", err)
	}
	n, err := cache.CurrentBlock(context.Background())
	if err != nil {
		t.Fatalf("CurrentBlock: %v", err)
	}
	if n != 42 {
		t.Fatalf("CurrentBlock = %d, want 42", n)
	}
}

func TestBlockHashCacheResolveLatestSetsReuseLast(t *testing.T) {
	srv := chainmock.New()
	defer srv.Close()
	hash := "0x" + repeat("ab", 32)
	calls := 0
	srv.Handle("chain_getFinalizedHead", func(json.RawMessage) (interface{}, error) {
		calls++
		return hash, nil
	})

	client := dialMock(t, srv)
	cache, err := NewBlockHashCache(client, 0)
	if err != nil {
		t.Fatalf("NewBlockHashCache: %v", err)
	}

	resolved, err := cache.Resolve(context.Background(), BlockAtLatest())
	if err != nil {
		t.Fatalf("Resolve(latest): %v", err)
	}
	if resolved == nil || resolved[0] != 0xab {
		t.Fatalf("Resolve(latest) = %v, want a hash starting with 0xab", resolved)
	}

	reused, err := cache.Resolve(context.Background(), BlockReuseLast())
	if err != nil {
		t.Fatalf("Resolve(reuse_last): %v", err)
	}
	if *reused != *resolved {
		t.Fatalf("Resolve(reuse_last) = %v, want %v", reused, resolved)
	}
	if calls != 1 {
		t.Fatalf("chain_getFinalizedHead called %d times, want 1 (reuse_last should not re-fetch)", calls)
	}
}

func TestBlockHashCacheResolveByNumberCaches(t *testing.T) {
	srv := chainmock.New()
	defer srv.Close()
	hash := "0x" + repeat("cd", 32)
	calls := 0
	srv.Handle("chain_getBlockHash", func(json.RawMessage) (interface{}, error) {
		calls++
		return hash, nil
	})

	client := dialMock(t, srv)
	cache, err := NewBlockHashCache(client, 0)
	if err != nil {
		t.Fatalf("NewBlockHashCache: %v", err)
	}

	for i := 0; i < 2; i++ {
		resolved, err := cache.Resolve(context.Background(), BlockAtNumber(7))
		if err != nil {
			t.Fatalf("Resolve(number): %v", err)
		}
		if resolved[0] != 0xcd {
			t.Fatalf("Resolve(number) = %v, want a hash starting with 0xcd", resolved)
		}
	}
	if calls != 1 {
		t.Fatalf("chain_getBlockHash called %d times, want 1 (second Resolve should hit the LRU)", calls)
	}
}

func TestBlockHashCacheResolveReuseLastBeforeAnyLatest(t *testing.T) {
	srv := chainmock.New()
	defer srv.Close()
	client := dialMock(t, srv)
	cache, err := NewBlockHashCache(client, 0)
	if err != nil {
		t.Fatalf("NewBlockHashCache: %v", err)
	}
	if _, err := cache.Resolve(context.Background(), BlockReuseLast()); err == nil {
		t.Fatal("expected an error resolving reuse_last before any latest resolution")
	}
}

func TestNewBlockReferenceRejectsAmbiguousInputs(t *testing.T) {
	var n uint64 = 5
	var h [32]byte
	if _, err := NewBlockReference(&n, &h, false); err == nil {
		t.Fatal("expected an error when both block and blockHash are set")
	}
	if _, err := NewBlockReference(&n, nil, true); err == nil {
		t.Fatal("expected an error when both block and reuseBlock are set")
	}
}

func TestNewBlockReferenceDefaultsToLatest(t *testing.T) {
	ref, err := NewBlockReference(nil, nil, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.kind != BlockRefLatest {
		t.Fatalf("kind = %v, want BlockRefLatest", ref.kind)
	}
}
