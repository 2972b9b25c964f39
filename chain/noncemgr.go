package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// NonceManager serializes nonce acquisition per signer address and
// reconciles a local monotonic counter against system_accountNextIndex:
// one in-flight acquisition per signer, backed by a counter that only
// ever advances.
type NonceManager struct {
	client caller

	mu      sync.Mutex
	perAddr map[string]*signerState
}

type signerState struct {
	mu   sync.Mutex // held for the duration of one extrinsic's nonce reservation
	next uint64
	have bool
}

// NewNonceManager constructs a manager bound to client.
func NewNonceManager(client caller) *NonceManager {
	return &NonceManager{client: client, perAddr: make(map[string]*signerState)}
}

func (n *NonceManager) stateFor(address string) *signerState {
	n.mu.Lock()
	defer n.mu.Unlock()
	s, ok := n.perAddr[address]
	if !ok {
		s = &signerState{}
		n.perAddr[address] = s
	}
	return s
}

// Reserve blocks until no other caller holds a reservation for address,
// then returns the next nonce to use and a release function the caller
// MUST invoke exactly once after the extrinsic has either been accepted
// (release(true) advances the counter) or definitively failed
// (release(false) keeps the same nonce for the next caller).
func (n *NonceManager) Reserve(ctx context.Context, address string) (uint64, func(accepted bool), error) {
	s := n.stateFor(address)
	s.mu.Lock()

	if !s.have {
		chainNext, err := n.fetchAccountNextIndex(ctx, address)
		if err != nil {
			s.mu.Unlock()
			return 0, nil, err
		}
		s.next = chainNext
		s.have = true
	}

	reserved := s.next
	released := false
	release := func(accepted bool) {
		if released {
			return
		}
		released = true
		if accepted {
			s.next = reserved + 1
		}
		// On rejection, leave s.next unchanged so the next caller retries
		// the same nonce rather than creating a gap.
		s.mu.Unlock()
	}
	return reserved, release, nil
}

// Reset forces the next Reserve for address to refetch from the chain,
// used after a gap is suspected (e.g. an extrinsic failed for a reason
// unrelated to its nonce after a long disconnect).
func (n *NonceManager) Reset(address string) {
	s := n.stateFor(address)
	s.mu.Lock()
	s.have = false
	s.mu.Unlock()
}

func (n *NonceManager) fetchAccountNextIndex(ctx context.Context, address string) (uint64, error) {
	raw, err := n.client.Call(ctx, "system_accountNextIndex", []interface{}{address})
	if err != nil {
		return 0, fmt.Errorf("chain: system_accountNextIndex: %w", err)
	}
	var n64 uint64
	if err := json.Unmarshal(raw, &n64); err != nil {
		return 0, fmt.Errorf("chain: system_accountNextIndex: malformed response: %w", err)
	}
	return n64, nil
}
