// Package rpc implements a reconnecting WebSocket JSON-RPC transport:
// a single persistent connection multiplexing
// request/response traffic (correlated by numeric id) and subscription
// notifications (correlated by server-assigned subscription id) over one
// socket, with a single writer task and a single reader task.
//
// The concurrency shape -- a dedicated goroutine owning the socket, shared
// maps guarded by a mutex, context-based cancellation -- mirrors the
// project's existing networking code (context.WithCancel at construction,
// logrus.Warnf on best-effort failures, sync.Mutex-guarded waiter/
// subscription maps).
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/opentensor/subtensor-go/errs"
)

// State is the transport's connection lifecycle.
type State int32

const (
	StateConnected State = iota
	StateReconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Options configures backoff and deadlines. Zero values fall back to the
// package defaults documented on each field below.
type Options struct {
	RequestTimeout    time.Duration // default 30s
	ReconnectBase     time.Duration // default 100ms
	ReconnectCap      time.Duration // default 30s
	UnhealthyTimeouts int           // default 3 consecutive timeouts
	Logger            *logrus.Entry

	// OnReconnect, if set, is invoked (in a new goroutine) after a dropped
	// connection is re-established. The metadata cache uses this to
	// invalidate itself, since a reconnect may have landed on a node past a
	// runtime upgrade.
	OnReconnect func()
}

func (o *Options) setDefaults() {
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 30 * time.Second
	}
	if o.ReconnectBase <= 0 {
		o.ReconnectBase = 100 * time.Millisecond
	}
	if o.ReconnectCap <= 0 {
		o.ReconnectCap = 30 * time.Second
	}
	if o.UnhealthyTimeouts <= 0 {
		o.UnhealthyTimeouts = 3
	}
	if o.Logger == nil {
		o.Logger = logrus.WithField("component", "rpc")
	}
}

type waiter struct {
	resp chan response
	err  error // set by failAllWaiters before it sends on resp
}

// Client is a single chain-node WebSocket JSON-RPC connection.
type Client struct {
	url  string
	opts Options

	mu        sync.Mutex
	conn      *websocket.Conn
	state     State
	nextID    uint64
	waiters   map[uint64]*waiter
	subs      map[string]*Subscription
	timeouts  int // consecutive timeout count, reset on any successful response

	writeCh chan []byte
	cond    *sync.Cond

	ctx    context.Context
	cancel context.CancelFunc
	closed chan struct{}
}

// Dial opens a WebSocket connection and starts the reader/writer/reconnect
// goroutines.
func Dial(ctx context.Context, url string, opts Options) (*Client, error) {
	opts.setDefaults()
	c := &Client{
		url:     url,
		opts:    opts,
		waiters: make(map[uint64]*waiter),
		subs:    make(map[string]*Subscription),
		writeCh: make(chan []byte, 64),
		closed:  make(chan struct{}),
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.cond = sync.NewCond(&c.mu)

	conn, err := dial(ctx, url)
	if err != nil {
		c.cancel()
		return nil, err
	}
	c.conn = conn
	c.state = StateConnected

	go c.writeLoop()
	go c.readLoop()
	return c, nil
}

func dial(ctx context.Context, url string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrConnectionRefused, err)
	}
	return conn, nil
}

// State reports the current connection lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) nextRequestID() uint64 {
	return atomic.AddUint64(&c.nextID, 1)
}

// Call issues a single JSON-RPC request and waits for its correlated
// response.
func (c *Client) Call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	id := c.nextRequestID()
	req := request{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("rpc: marshal request: %w", err)
	}

	w := &waiter{resp: make(chan response, 1)}
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil, errs.ErrConnectionClosed
	}
	c.waiters[id] = w
	c.mu.Unlock()

	select {
	case c.writeCh <- raw:
	case <-c.ctx.Done():
		c.deleteWaiter(id)
		return nil, errs.ErrConnectionClosed
	}

	timeout := c.opts.RequestTimeout
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-w.resp:
		if w.err != nil {
			return nil, w.err
		}
		c.resetTimeouts()
		if resp.Error != nil {
			return nil, &errs.RPCError{Code: resp.Error.Code, Message: resp.Error.Message, Data: resp.Error.Data}
		}
		return resp.Result, nil
	case <-timer.C:
		c.deleteWaiter(id)
		c.recordTimeout()
		return nil, &errs.Timeout{Deadline: timeout}
	case <-ctx.Done():
		c.deleteWaiter(id)
		return nil, ctx.Err()
	case <-c.ctx.Done():
		c.deleteWaiter(id)
		return nil, errs.ErrConnectionClosed
	}
}

// CallBatch issues several requests and returns their results in the
// same order they were given, preserving the per-caller FIFO ordering
// guarantee. The requests are not pipelined: each one is sent only after
// the previous response has arrived, and the first error stops the batch.
func (c *Client) CallBatch(ctx context.Context, reqs []BatchRequest) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, len(reqs))
	for i, r := range reqs {
		res, err := c.Call(ctx, r.Method, r.Params)
		if err != nil {
			return nil, fmt.Errorf("rpc: batch item %d (%s): %w", i, r.Method, err)
		}
		out[i] = res
	}
	return out, nil
}

func (c *Client) deleteWaiter(id uint64) {
	c.mu.Lock()
	delete(c.waiters, id)
	c.mu.Unlock()
}

func (c *Client) recordTimeout() {
	c.mu.Lock()
	c.timeouts++
	unhealthy := c.timeouts >= c.opts.UnhealthyTimeouts
	c.mu.Unlock()
	if unhealthy {
		c.opts.Logger.Warn("three consecutive rpc timeouts, marking socket unhealthy")
		c.triggerReconnect()
	}
}

func (c *Client) resetTimeouts() {
	c.mu.Lock()
	c.timeouts = 0
	c.mu.Unlock()
}

// Close gracefully shuts the transport down: all in-flight waiters and
// subscriptions complete with ConnectionClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	c.state = StateClosed
	conn := c.conn
	c.cond.Broadcast()
	c.mu.Unlock()

	c.cancel()
	if conn != nil {
		_ = conn.Close()
	}
	c.failAllWaiters(errs.ErrConnectionClosed)
	c.closeAllSubscriptions()
	close(c.closed)
	return nil
}

func (c *Client) failAllWaiters(err error) {
	c.mu.Lock()
	waiters := c.waiters
	c.waiters = make(map[uint64]*waiter)
	c.mu.Unlock()
	for _, w := range waiters {
		w.err = err
		w.resp <- response{Error: &rpcError{Code: -1, Message: err.Error()}}
	}
}

func (c *Client) closeAllSubscriptions() {
	c.mu.Lock()
	subs := c.subs
	c.subs = make(map[string]*Subscription)
	c.mu.Unlock()
	for _, s := range subs {
		s.closeLocal()
	}
}

// backoffDuration implements : base 100ms, cap 30s, jitter.
func backoffDuration(attempt int, base, cap time.Duration) time.Duration {
	d := base * time.Duration(1<<uint(attempt))
	if d > cap || d <= 0 {
		d = cap
	}
	jitter := time.Duration(rand.Int63n(int64(d) / 2))
	return d/2 + jitter
}
