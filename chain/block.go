package chain

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/opentensor/subtensor-go/errs"
)

// BlockRefKind discriminates the four ways a caller may pin a query to a
// point in chain history.
type BlockRefKind int

const (
	BlockRefLatest BlockRefKind = iota
	BlockRefNumber
	BlockRefHash
	BlockRefReuseLast
)

// BlockReference is a tagged union over block/blockHash/reuseBlock in
// place of three loosely-related optional parameters. Construct with one
// of the constructor functions below; the zero value is BlockRefLatest.
type BlockReference struct {
	kind   BlockRefKind
	number uint64
	hash   [32]byte
}

func BlockAtLatest() BlockReference             { return BlockReference{kind: BlockRefLatest} }
func BlockAtNumber(n uint64) BlockReference     { return BlockReference{kind: BlockRefNumber, number: n} }
func BlockAtHash(h [32]byte) BlockReference     { return BlockReference{kind: BlockRefHash, hash: h} }
func BlockReuseLast() BlockReference            { return BlockReference{kind: BlockRefReuseLast} }

// NewBlockReference validates and constructs a BlockReference from the
// source's three optional parameters, enforcing that at most one is set.
func NewBlockReference(block *uint64, blockHash *[32]byte, reuseBlock bool) (BlockReference, error) {
	set := 0
	if block != nil {
		set++
	}
	if blockHash != nil {
		set++
	}
	if reuseBlock {
		set++
	}
	if set > 1 {
		return BlockReference{}, errs.ErrAmbiguousBlockRef
	}
	switch {
	case blockHash != nil:
		return BlockAtHash(*blockHash), nil
	case block != nil:
		return BlockAtNumber(*block), nil
	case reuseBlock:
		return BlockReuseLast(), nil
	default:
		return BlockAtLatest(), nil
	}
}

// BlockHashCache resolves block numbers to hashes, issuing `chain_getHeader`
// / `chain_getBlockHash` / `chain_getFinalizedHead` as needed and caching
// number→hash lookups in a bounded LRU.
type BlockHashCache struct {
	client caller

	lru *lru.Cache[uint64, [32]byte]

	mu            sync.Mutex
	lastBlockHash [32]byte
	haveLast      bool
}

// NewBlockHashCache constructs a cache with the given LRU capacity.
func NewBlockHashCache(client caller, capacity int) (*BlockHashCache, error) {
	if capacity <= 0 {
		capacity = 128
	}
	c, err := lru.New[uint64, [32]byte](capacity)
	if err != nil {
		return nil, fmt.Errorf("chain: block hash lru: %w", err)
	}
	return &BlockHashCache{client: client, lru: c}, nil
}

// CurrentBlock returns the chain head's block number.
func (b *BlockHashCache) CurrentBlock(ctx context.Context) (uint64, error) {
	raw, err := b.client.Call(ctx, "chain_getHeader", nil)
	if err != nil {
		return 0, fmt.Errorf("chain: chain_getHeader: %w", err)
	}
	var header struct {
		Number string `json:"number"`
	}
	if err := json.Unmarshal(raw, &header); err != nil {
		return 0, errs.NewDecode("chain_getHeader", err)
	}
	n, err := parseHexU64(header.Number)
	if err != nil {
		return 0, errs.NewDecode("chain_getHeader.number", err)
	}
	return n, nil
}

// BlockHash resolves a block number to its hash, or the finalized head's
// hash when number is nil, caching the former in the LRU.
func (b *BlockHashCache) BlockHash(ctx context.Context, number *uint64) ([32]byte, error) {
	if number == nil {
		raw, err := b.client.Call(ctx, "chain_getFinalizedHead", nil)
		if err != nil {
			return [32]byte{}, fmt.Errorf("chain: chain_getFinalizedHead: %w", err)
		}
		return decodeHashResult(raw)
	}

	if h, ok := b.lru.Get(*number); ok {
		return h, nil
	}
	raw, err := b.client.Call(ctx, "chain_getBlockHash", []interface{}{*number})
	if err != nil {
		return [32]byte{}, fmt.Errorf("chain: chain_getBlockHash(%d): %w", *number, err)
	}
	h, err := decodeHashResult(raw)
	if err != nil {
		return [32]byte{}, err
	}
	b.lru.Add(*number, h)
	return h, nil
}

// SetLastBlockHash records h as the value ReuseLast resolves to. Called by
// the storage layer after every "latest" resolution.
func (b *BlockHashCache) SetLastBlockHash(h [32]byte) {
	b.mu.Lock()
	b.lastBlockHash = h
	b.haveLast = true
	b.mu.Unlock()
}

func (b *BlockHashCache) lastHash() ([32]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastBlockHash, b.haveLast
}

// Resolve turns a BlockReference into a concrete 32-byte hash, or nil to
// mean "latest" (the caller issues the RPC with an absent `at` param).
// Resolving Latest additionally updates the ReuseLast cache.
func (b *BlockHashCache) Resolve(ctx context.Context, ref BlockReference) (*[32]byte, error) {
	switch ref.kind {
	case BlockRefHash:
		h := ref.hash
		return &h, nil
	case BlockRefNumber:
		h, err := b.BlockHash(ctx, &ref.number)
		if err != nil {
			return nil, err
		}
		return &h, nil
	case BlockRefReuseLast:
		h, ok := b.lastHash()
		if !ok {
			return nil, fmt.Errorf("chain: reuse_block requested before any block was resolved")
		}
		return &h, nil
	default: // Latest
		h, err := b.BlockHash(ctx, nil)
		if err != nil {
			return nil, err
		}
		b.SetLastBlockHash(h)
		return &h, nil
	}
}

func decodeHashResult(raw json.RawMessage) ([32]byte, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return [32]byte{}, errs.NewDecode("block hash", err)
	}
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil || len(b) != 32 {
		return [32]byte{}, errs.NewDecode("block hash", fmt.Errorf("malformed hash %q", s))
	}
	var out [32]byte
	copy(out[:], b)
	return out, nil
}

func parseHexU64(s string) (uint64, error) {
	s = strings.TrimPrefix(s, "0x")
	var v uint64
	if _, err := fmt.Sscanf(s, "%x", &v); err != nil {
		return 0, err
	}
	return v, nil
}

// hexParam renders a byte slice as a 0x-prefixed hex string for RPC params.
func hexParam(b []byte) string { return "0x" + hex.EncodeToString(b) }
