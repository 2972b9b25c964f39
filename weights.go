package subtensor

import (
	"context"

	"github.com/opentensor/subtensor-go/chain"
)

// SetWeightsParams are the caller-supplied inputs to SetWeights; see
// chain.SetWeightsParams for field semantics.
type SetWeightsParams = chain.SetWeightsParams

// SetWeights sets hotkey's weights on netuid, driving a full commit-reveal
// cycle when the subnet has commit-reveal enabled, or a single legacy
// set_weights extrinsic otherwise. Only one commit may be in flight at a
// time for a given (netuid, hotkey) pair; a concurrent call for the same
// pair fails immediately rather than queuing.
func (c *Client) SetWeights(ctx context.Context, w Wallet, params SetWeightsParams) (chain.SubmitResult, error) {
	address, signer, err := w.resolveSigner(chain.SignWithHotkey)
	if err != nil {
		return chain.SubmitResult{}, err
	}
	return c.weight.SetWeights(ctx, address, signer, params)
}
