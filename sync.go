package subtensor

import (
	"context"

	"github.com/opentensor/subtensor-go/chain"
	"github.com/opentensor/subtensor-go/units"
)

// Every Client method already blocks synchronously on its context; there
// is no owned event loop to forward onto in this port. What follows are
// convenience wrappers for callers that would rather not construct a
// context for every call, matching the ergonomics of a synchronous client
// front-ending the same async core.

// GetBalanceSync is GetBalance against context.Background() and the
// latest block.
func (c *Client) GetBalanceSync(address string) (units.Balance, error) {
	return c.GetBalance(context.Background(), address, chain.BlockAtLatest())
}

// CurrentBlockSync is CurrentBlock against context.Background().
func (c *Client) CurrentBlockSync() (uint64, error) {
	return c.CurrentBlock(context.Background())
}

// TransferSync is Transfer against context.Background().
func (c *Client) TransferSync(w Wallet, dest string, amount units.Balance, waitForInclusion, waitForFinalization bool) (chain.SubmitResult, error) {
	return c.Transfer(context.Background(), w, dest, amount, waitForInclusion, waitForFinalization)
}

// SetWeightsSync is SetWeights against context.Background().
func (c *Client) SetWeightsSync(w Wallet, params SetWeightsParams) (chain.SubmitResult, error) {
	return c.SetWeights(context.Background(), w, params)
}
