package chain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opentensor/subtensor-go/metadata"
	"github.com/opentensor/subtensor-go/rpc"
	"github.com/opentensor/subtensor-go/scale"
)

// caller is the minimal RPC surface this package depends on; satisfied by
// *rpc.Client. Keeping it narrow lets storage/runtimeapi/block tests supply
// a fake without standing up a real socket.
type caller interface {
	Call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error)
}

// Engine bundles the transport, metadata cache, block-hash cache and nonce
// manager into the one object the storage, runtime-API, extrinsic and
// weight layers all operate against: it resolves a block hash, composes
// requests through the metadata cache and SCALE codec, and issues them
// over the transport.
type Engine struct {
	RPC      *rpc.Client
	Metadata *metadata.Cache
	Blocks   *BlockHashCache
	Nonces   *NonceManager
	Logger   *logrus.Entry
}

// NewEngine wires the collaborators together. customTypes may be nil;
// capacity is the block-hash LRU size.
func NewEngine(rpcClient *rpc.Client, customTypes *scale.Registry, capacity int, logger *logrus.Entry) (*Engine, error) {
	if logger == nil {
		logger = logrus.WithField("component", "chain")
	}
	blocks, err := NewBlockHashCache(rpcClient, capacity)
	if err != nil {
		return nil, fmt.Errorf("chain: engine: %w", err)
	}
	return &Engine{
		RPC:      rpcClient,
		Metadata: metadata.NewCache(rpcClient, customTypes, logger.WithField("subsystem", "metadata")),
		Blocks:   blocks,
		Nonces:   NewNonceManager(rpcClient),
		Logger:   logger,
	}, nil
}
