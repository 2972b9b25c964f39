package rpc

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/opentensor/subtensor-go/chainmock"
)

func TestSubscribeDeliversNotifications(t *testing.T) {
	srv := chainmock.New()
	defer srv.Close()
	srv.HandleResult("chain_subscribeNewHeads", "sub-1")
	srv.HandleResult("chain_unsubscribeNewHeads", true)

	c := dialMock(t, srv)
	sub, err := c.Subscribe(context.Background(), "chain_subscribeNewHeads", "chain_unsubscribeNewHeads", nil)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	// allow the mock server to register the client connection for pushes.
	time.Sleep(50 * time.Millisecond)
	srv.PushNotification("chain_newHead", "sub-1", map[string]string{"number": "0x1"})

	select {
	case raw := <-sub.Updates():
		var got map[string]string
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got["number"] != "0x1" {
			t.Fatalf("unexpected payload: %v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("did not receive notification")
	}

	if err := sub.Unsubscribe(context.Background()); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
}
