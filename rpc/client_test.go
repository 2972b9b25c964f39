package rpc

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/opentensor/subtensor-go/chainmock"
)

func dialMock(t *testing.T, srv *chainmock.Server) *Client {
	t.Helper()
	c, err := Dial(context.Background(), srv.URL(), Options{RequestTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCallReturnsResult(t *testing.T) {
	srv := chainmock.New()
	defer srv.Close()
	srv.HandleResult("system_chain", "Bittensor")

	c := dialMock(t, srv)
	raw, err := c.Call(context.Background(), "system_chain", nil)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	var got string
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != "Bittensor" {
		t.Fatalf("want Bittensor, got %q", got)
	}
}

func TestCallSurfacesRPCError(t *testing.T) {
	srv := chainmock.New()
	defer srv.Close()
	srv.Handle("boom", func(json.RawMessage) (interface{}, error) {
		return nil, errBoom
	})

	c := dialMock(t, srv)
	_, err := c.Call(context.Background(), "boom", nil)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestCallBatchPreservesOrder(t *testing.T) {
	srv := chainmock.New()
	defer srv.Close()
	srv.HandleResult("a", "1")
	srv.HandleResult("b", "2")
	srv.HandleResult("c", "3")

	c := dialMock(t, srv)
	results, err := c.CallBatch(context.Background(), []BatchRequest{
		{Method: "a"}, {Method: "b"}, {Method: "c"},
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	want := []string{"1", "2", "3"}
	for i, raw := range results {
		var got string
		_ = json.Unmarshal(raw, &got)
		if got != want[i] {
			t.Fatalf("index %d: want %s got %s", i, want[i], got)
		}
	}
}

func TestCloseFailsPendingCalls(t *testing.T) {
	srv := chainmock.New()
	defer srv.Close()
	srv.Handle("slow", func(json.RawMessage) (interface{}, error) {
		time.Sleep(5 * time.Second)
		return nil, nil
	})

	c := dialMock(t, srv)
	errCh := make(chan error, 1)
	go func() {
		_, err := c.Call(context.Background(), "slow", nil)
		errCh <- err
	}()

	time.Sleep(50 * time.Millisecond)
	_ = c.Close()

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected error after close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("call did not unblock after close")
	}
}

var errBoom = &boomError{}

type boomError struct{}

func (*boomError) Error() string { return "boom" }
