package rpc

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/opentensor/subtensor-go/errs"
)

// waitForConn blocks until a live connection is installed or the client is
// closed, returning nil in the latter case.
func (c *Client) waitForConn() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.conn == nil && c.state != StateClosed {
		c.cond.Wait()
	}
	if c.state == StateClosed {
		return nil
	}
	return c.conn
}

// triggerReconnect moves the client into the Reconnecting state and starts a
// background redial loop. It is idempotent: concurrent callers (the reader
// and writer goroutines both notice a dead socket) collapse into a single
// reconnect attempt. Returns false only once the client is fully closed.
func (c *Client) triggerReconnect() bool {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return false
	}
	if c.state == StateReconnecting {
		c.mu.Unlock()
		return true
	}
	c.state = StateReconnecting
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	// In-flight calls cannot be trusted to have landed; 
	// requires they fail with Reconnected rather than hang.
	c.failAllWaiters(errs.ErrReconnected)
	// Subscriptions are not re-established on the new socket; end them so
	// their Updates channels close.
	c.closeAllSubscriptions()
	go c.reconnectLoop()
	return true
}

func (c *Client) reconnectLoop() {
	attempt := 0
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		conn, err := dial(c.ctx, c.url)
		if err != nil {
			d := backoffDuration(attempt, c.opts.ReconnectBase, c.opts.ReconnectCap)
			c.opts.Logger.WithError(err).Warnf("reconnect attempt %d failed, retrying in %s", attempt, d)
			attempt++
			select {
			case <-time.After(d):
				continue
			case <-c.ctx.Done():
				return
			}
		}

		c.mu.Lock()
		if c.state == StateClosed {
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		c.conn = conn
		c.state = StateConnected
		c.cond.Broadcast()
		c.mu.Unlock()
		c.opts.Logger.Info("reconnected")
		if c.opts.OnReconnect != nil {
			go c.opts.OnReconnect()
		}
		return
	}
}
