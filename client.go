// Package subtensor is the public facade for the chain client: it owns one
// transport and one metadata cache and exposes
// named chain-query and extrinsic operations grouped across sibling files
// (queries.go, staking.go, registration.go, transfer.go, weights.go), plus
// a synchronous shim (sync.go) for callers that do not want to manage a
// context-driven async style directly.
package subtensor

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opentensor/subtensor-go/chain"
	"github.com/opentensor/subtensor-go/metadata"
	"github.com/opentensor/subtensor-go/pkg/config"
	"github.com/opentensor/subtensor-go/rpc"
	"github.com/opentensor/subtensor-go/scale"
)

// Chain is the interface the facade presents; callers typically depend on
// this rather than *Client so tests can substitute a fake.
type Chain interface {
	Close() error
	CurrentBlock(ctx context.Context) (uint64, error)
	BlockHash(ctx context.Context, ref chain.BlockReference) ([32]byte, error)
}

// Client is the concrete facade: one transport, one metadata cache, one
// block-hash cache, one nonce manager, one weight-commit manager.
type Client struct {
	cfg    config.Config
	engine *chain.Engine
	weight *chain.WeightManager
	logger *logrus.Entry
}

// Dial opens a connection to networkOrEndpoint (a preset name or literal
// URL, normalized by chain.ResolveEndpoint) and constructs a ready-to-use
// Client.
func Dial(ctx context.Context, networkOrEndpoint string, customTypes *scale.Registry, cfg config.Config) (*Client, error) {
	logger := logrus.WithField("component", "subtensor")
	endpoint := chain.ResolveEndpoint(networkOrEndpoint)

	var engineRef *chain.Engine
	opts := rpc.Options{
		RequestTimeout:    cfg.RequestTimeout(),
		ReconnectBase:     cfg.ReconnectBase(),
		ReconnectCap:      cfg.ReconnectCap(),
		UnhealthyTimeouts: cfg.Transport.UnhealthyTimeouts,
		Logger:            logger.WithField("subsystem", "rpc"),
	}
	opts.OnReconnect = func() {
		if engineRef != nil {
			engineRef.Metadata.Invalidate()
		}
	}

	client, err := rpc.Dial(ctx, endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("subtensor: dial %s: %w", endpoint, err)
	}

	engine, err := chain.NewEngine(client, customTypes, cfg.BlockHashLRUSize(), logger.WithField("subsystem", "chain"))
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	engineRef = engine

	if _, err := engine.Metadata.Get(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("subtensor: initial metadata fetch: %w", err)
	}

	return &Client{
		cfg:    cfg,
		engine: engine,
		weight: chain.NewWeightManager(engine, logger.WithField("subsystem", "weights")),
		logger: logger,
	}, nil
}

// DialDefault connects using config.Default() and no custom type registry.
func DialDefault(ctx context.Context, networkOrEndpoint string) (*Client, error) {
	return Dial(ctx, networkOrEndpoint, nil, config.Default())
}

// Close tears down the transport; every pending waiter/subscription
// completes with errs.ErrConnectionClosed.
func (c *Client) Close() error { return c.engine.RPC.Close() }

// CurrentBlock returns the chain head's block number.
func (c *Client) CurrentBlock(ctx context.Context) (uint64, error) {
	return c.engine.Blocks.CurrentBlock(ctx)
}

// BlockHash resolves ref to a concrete 32-byte block hash.
func (c *Client) BlockHash(ctx context.Context, ref chain.BlockReference) ([32]byte, error) {
	h, err := c.engine.Blocks.Resolve(ctx, ref)
	if err != nil {
		return [32]byte{}, err
	}
	return *h, nil
}

// Metadata exposes the cached runtime metadata, e.g. for callers that need
// to inspect pallet/call/storage shapes directly.
func (c *Client) Metadata(ctx context.Context) (*metadata.Metadata, error) {
	return c.engine.Metadata.Get(ctx)
}

// Engine exposes the underlying chain.Engine for advanced callers (custom
// storage queries, runtime API calls) not covered by a named facade method.
func (c *Client) Engine() *chain.Engine { return c.engine }
