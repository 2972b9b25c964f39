package rpc

import (
	"encoding/json"

	"github.com/gorilla/websocket"
)

// writeLoop owns the socket for writing: every outbound frame passes through
// writeCh so only one goroutine ever calls conn.WriteMessage. A frame taken
// while no connection is installed is dropped, not resent.
func (c *Client) writeLoop() {
	for {
		select {
		case msg := <-c.writeCh:
			c.mu.Lock()
			conn := c.conn
			c.mu.Unlock()
			if conn == nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.opts.Logger.WithError(err).Warn("write failed, triggering reconnect")
				c.triggerReconnect()
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// readLoop owns the socket for reading and dispatches each frame to either a
// waiting Call (by id) or a live Subscription (by subscription id).
func (c *Client) readLoop() {
	for {
		conn := c.waitForConn()
		if conn == nil {
			return // closed
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.opts.Logger.WithError(err).Warn("read failed, triggering reconnect")
			if !c.triggerReconnect() {
				return // closed, not reconnecting
			}
			continue
		}

		var resp response
		if err := json.Unmarshal(raw, &resp); err != nil {
			c.opts.Logger.WithError(err).Warn("malformed rpc frame, dropping")
			continue
		}

		if resp.Params != nil && resp.Method != "" {
			c.dispatchSubscription(resp.Params.Subscription, resp.Params.Result)
			continue
		}
		if resp.ID != nil {
			c.dispatchResponse(*resp.ID, resp)
		}
	}
}

func (c *Client) dispatchResponse(id uint64, resp response) {
	c.mu.Lock()
	w, ok := c.waiters[id]
	if ok {
		delete(c.waiters, id)
	}
	c.mu.Unlock()
	if !ok {
		return
	}
	w.resp <- resp
}

func (c *Client) dispatchSubscription(subID string, result json.RawMessage) {
	c.mu.Lock()
	sub, ok := c.subs[subID]
	c.mu.Unlock()
	if !ok {
		return
	}
	sub.deliver(result)
}
