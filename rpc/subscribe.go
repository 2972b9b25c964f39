package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/opentensor/subtensor-go/errs"
)

// Subscription is a live chain subscription (e.g. chain_subscribeNewHeads).
// Notifications arrive on Updates until the subscription is explicitly
// unsubscribed, the client is closed, or the transport reconnects -- per
// , a reconnect does NOT auto-resubscribe; the caller is
// responsible for re-issuing Subscribe if it still wants the feed.
type Subscription struct {
	id         string
	unsub      string // unsubscribe method name
	client     *Client
	updates    chan json.RawMessage
	closeOnce  sync.Once
}

// Updates returns the channel notifications are delivered on. It is closed
// when the subscription ends for any reason.
func (s *Subscription) Updates() <-chan json.RawMessage { return s.updates }

func (s *Subscription) deliver(raw json.RawMessage) {
	select {
	case s.updates <- raw:
	default:
		// Slow consumer: drop rather than block the shared reader goroutine.
	}
}

func (s *Subscription) closeLocal() {
	s.closeOnce.Do(func() { close(s.updates) })
}

// Unsubscribe tells the node to stop the feed and removes the local
// bookkeeping.
func (s *Subscription) Unsubscribe(ctx context.Context) error {
	s.client.mu.Lock()
	delete(s.client.subs, s.id)
	s.client.mu.Unlock()
	s.closeLocal()

	_, err := s.client.Call(ctx, s.unsub, []interface{}{s.id})
	return err
}

// Subscribe issues a subscribe-style RPC (method) and registers the
// resulting subscription id so future notifications are routed to the
// returned Subscription's Updates channel. unsubMethod is the companion
// call used to tear it down.
func (c *Client) Subscribe(ctx context.Context, method, unsubMethod string, params []interface{}) (*Subscription, error) {
	raw, err := c.Call(ctx, method, params)
	if err != nil {
		return nil, fmt.Errorf("rpc: subscribe %s: %w", method, err)
	}
	var subID string
	if err := json.Unmarshal(raw, &subID); err != nil {
		return nil, fmt.Errorf("rpc: subscribe %s: malformed subscription id: %w", method, err)
	}

	sub := &Subscription{
		id:      subID,
		unsub:   unsubMethod,
		client:  c,
		updates: make(chan json.RawMessage, 32),
	}

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil, errs.ErrConnectionClosed
	}
	c.subs[subID] = sub
	c.mu.Unlock()

	return sub, nil
}
