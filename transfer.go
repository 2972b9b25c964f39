package subtensor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/opentensor/subtensor-go/chain"
	"github.com/opentensor/subtensor-go/scale"
	"github.com/opentensor/subtensor-go/ss58"
	"github.com/opentensor/subtensor-go/units"
)

// fallbackTransferFee is returned by GetTransferFee when payment_queryInfo
// fails.
const fallbackTransferFee = 20_000_000

// Transfer moves amount from the wallet's coldkey to dest
// (Balances.transfer_allow_death).
func (c *Client) Transfer(ctx context.Context, w Wallet, dest string, amount units.Balance, waitForInclusion, waitForFinalization bool) (chain.SubmitResult, error) {
	destAddr, err := ss58.Parse(dest)
	if err != nil {
		return chain.SubmitResult{}, err
	}
	call, err := c.composeTransferCall(ctx, destAddr, amount)
	if err != nil {
		return chain.SubmitResult{}, err
	}

	address, signer, err := w.resolveSigner(chain.SignWithColdkey)
	if err != nil {
		return chain.SubmitResult{}, err
	}
	return c.engine.SignAndSend(ctx, call, address, signer, chain.SignWithColdkey, waitForInclusion, waitForFinalization)
}

func (c *Client) composeTransferCall(ctx context.Context, dest ss58.Address, amount units.Balance) (chain.Call, error) {
	md, err := c.engine.Metadata.Get(ctx)
	if err != nil {
		return chain.Call{}, err
	}
	_, entry, ok := md.Call("Balances", "transfer_allow_death")
	if !ok {
		return chain.Call{}, fmt.Errorf("subtensor: call Balances.transfer_allow_death not found")
	}
	var destType scale.TypeID
	for _, arg := range entry.Args {
		if arg.Name == "dest" {
			destType = arg.Type
		}
	}
	destVal, err := chain.BytesToValue(md.Registry, destType, dest.Bytes())
	if err != nil {
		return chain.Call{}, err
	}
	// MultiAddress::Id(AccountId32) -- variant index 0, single unnamed field "_0".
	multiAddress := scale.Value{
		Kind:         scale.KindVariant,
		VariantIndex: 0,
		VariantName:  "Id",
		Fields:       map[string]scale.Value{"_0": destVal},
	}

	return c.engine.ComposeCall(ctx, "Balances", "transfer_allow_death", map[string]scale.Value{
		"dest":  multiAddress,
		"value": chain.UintValue(uint64(amount.Rao())),
	})
}

// GetTransferFee estimates the fee of a transfer via payment_queryInfo,
// falling back to a fixed estimate on RPC failure.
// The call is encoded unsigned (sign_with=coldkeypub's contract: "allowed
// only for fee estimation paths") since only its length and weight, not a
// valid signature, matter to the fee calculation.
func (c *Client) GetTransferFee(ctx context.Context, dest string, amount units.Balance) (units.Balance, error) {
	destAddr, err := ss58.Parse(dest)
	if err != nil {
		return units.Balance{}, err
	}
	call, err := c.composeTransferCall(ctx, destAddr, amount)
	if err != nil {
		return units.Balance{}, err
	}

	encoded := chain.EncodeUnsignedExtrinsic(call)
	raw, err := c.engine.RPC.Call(ctx, "payment_queryInfo", []interface{}{"0x" + hexEncodeBytes(encoded)})
	if err != nil {
		return units.FromRao(fallbackTransferFee), nil
	}
	var info struct {
		PartialFee string `json:"partialFee"`
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return units.FromRao(fallbackTransferFee), nil
	}
	fee, err := parseDecimalUint64(info.PartialFee)
	if err != nil {
		return units.FromRao(fallbackTransferFee), nil
	}
	return units.FromRao(int64(fee)), nil
}
