package chain

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/opentensor/subtensor-go/chainmock"
)

func TestNonceManagerFetchesOnFirstReserve(t *testing.T) {
	srv := chainmock.New()
	defer srv.Close()
	calls := 0
	srv.Handle("system_accountNextIndex", func(json.RawMessage) (interface{}, error) {
		calls++
		return 5, nil
	})

	client := dialMock(t, srv)
	mgr := NewNonceManager(client)

	nonce, release, err := mgr.Reserve(context.Background(), "addr-a")
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if nonce != 5 {
		t.Fatalf("nonce = %d, want 5", nonce)
	}
	release(true)

	nonce2, release2, err := mgr.Reserve(context.Background(), "addr-a")
	if err != nil {
		t.Fatalf("Reserve (second): %v", err)
	}
	if nonce2 != 6 {
		t.Fatalf("second nonce = %d, want 6 (should advance after an accepted release)", nonce2)
	}
	release2(true)

	if calls != 1 {
		t.Fatalf("system_accountNextIndex called %d times, want 1 (should only fetch once per address)", calls)
	}
}

func TestNonceManagerRejectedReleaseDoesNotAdvance(t *testing.T) {
	srv := chainmock.New()
	defer srv.Close()
	srv.HandleResult("system_accountNextIndex", 10)

	client := dialMock(t, srv)
	mgr := NewNonceManager(client)

	nonce, release, err := mgr.Reserve(context.Background(), "addr-b")
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	release(false)

	nonce2, release2, err := mgr.Reserve(context.Background(), "addr-b")
	if err != nil {
		t.Fatalf("Reserve (second): %v", err)
	}
	if nonce2 != nonce {
		t.Fatalf("nonce after a rejected release = %d, want unchanged %d", nonce2, nonce)
	}
	release2(true)
}

func TestNonceManagerResetRefetches(t *testing.T) {
	srv := chainmock.New()
	defer srv.Close()
	calls := 0
	srv.Handle("system_accountNextIndex", func(json.RawMessage) (interface{}, error) {
		calls++
		return 1, nil
	})

	client := dialMock(t, srv)
	mgr := NewNonceManager(client)

	_, release, err := mgr.Reserve(context.Background(), "addr-c")
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	release(true)

	mgr.Reset("addr-c")

	_, release2, err := mgr.Reserve(context.Background(), "addr-c")
	if err != nil {
		t.Fatalf("Reserve after Reset: %v", err)
	}
	release2(true)

	if calls != 2 {
		t.Fatalf("system_accountNextIndex called %d times, want 2 (Reset should force a refetch)", calls)
	}
}

func TestNonceManagerIndependentAddressesDoNotBlock(t *testing.T) {
	srv := chainmock.New()
	defer srv.Close()
	srv.HandleResult("system_accountNextIndex", 0)

	client := dialMock(t, srv)
	mgr := NewNonceManager(client)

	_, releaseA, err := mgr.Reserve(context.Background(), "addr-x")
	if err != nil {
		t.Fatalf("Reserve addr-x: %v", err)
	}
	// addr-y must not block while addr-x's reservation is still held.
	_, releaseY, err := mgr.Reserve(context.Background(), "addr-y")
	if err != nil {
		t.Fatalf("Reserve addr-y: %v", err)
	}
	releaseA(true)
	releaseY(true)
}
