package subtensor

import (
	"context"
	"fmt"

	"github.com/opentensor/subtensor-go/chain"
	"github.com/opentensor/subtensor-go/metadata"
	"github.com/opentensor/subtensor-go/scale"
	"github.com/opentensor/subtensor-go/ss58"
	"github.com/opentensor/subtensor-go/units"
)

// AddStake stakes amount from the coldkey onto hotkey on netuid
// (SubtensorModule.add_stake).
func (c *Client) AddStake(ctx context.Context, w Wallet, hotkey string, netuid uint16, amount units.Balance, waitForInclusion, waitForFinalization bool) (chain.SubmitResult, error) {
	hk, err := ss58.Parse(hotkey)
	if err != nil {
		return chain.SubmitResult{}, err
	}
	call, err := c.composeHotkeyAmountCall(ctx, "SubtensorModule", "add_stake", hk, netuid, amount)
	if err != nil {
		return chain.SubmitResult{}, err
	}
	address, signer, err := w.resolveSigner(chain.SignWithColdkey)
	if err != nil {
		return chain.SubmitResult{}, err
	}
	return c.engine.SignAndSend(ctx, call, address, signer, chain.SignWithColdkey, waitForInclusion, waitForFinalization)
}

// RemoveStake unstakes amount from hotkey on netuid back to the coldkey
// (SubtensorModule.remove_stake).
func (c *Client) RemoveStake(ctx context.Context, w Wallet, hotkey string, netuid uint16, amount units.Balance, waitForInclusion, waitForFinalization bool) (chain.SubmitResult, error) {
	hk, err := ss58.Parse(hotkey)
	if err != nil {
		return chain.SubmitResult{}, err
	}
	call, err := c.composeHotkeyAmountCall(ctx, "SubtensorModule", "remove_stake", hk, netuid, amount)
	if err != nil {
		return chain.SubmitResult{}, err
	}
	address, signer, err := w.resolveSigner(chain.SignWithColdkey)
	if err != nil {
		return chain.SubmitResult{}, err
	}
	return c.engine.SignAndSend(ctx, call, address, signer, chain.SignWithColdkey, waitForInclusion, waitForFinalization)
}

// UnstakeMultiple issues a batch of remove_stake calls across several
// hotkeys via Utility.batch_all, as the source's unstaking.py does for
// unstake-all/unstake-multiple.
func (c *Client) UnstakeMultiple(ctx context.Context, w Wallet, hotkeys []string, netuid uint16, amounts []units.Balance, waitForInclusion, waitForFinalization bool) (chain.SubmitResult, error) {
	if len(hotkeys) != len(amounts) {
		return chain.SubmitResult{}, fmt.Errorf("subtensor: hotkeys and amounts must have equal length")
	}
	md, err := c.engine.Metadata.Get(ctx)
	if err != nil {
		return chain.SubmitResult{}, err
	}

	calls := make([]scale.Value, len(hotkeys))
	for i, hotkey := range hotkeys {
		hk, err := ss58.Parse(hotkey)
		if err != nil {
			return chain.SubmitResult{}, err
		}
		inner, err := c.composeHotkeyAmountCall(ctx, "SubtensorModule", "remove_stake", hk, netuid, amounts[i])
		if err != nil {
			return chain.SubmitResult{}, err
		}
		// Each inner call rides inside the outer RuntimeCall enum as raw
		// pre-encoded bytes; this only round-trips correctly against a
		// runtime whose Vec<RuntimeCall> element type tolerates an opaque
		// byte passthrough rather than requiring the full call enum to be
		// reconstructed here.
		calls[i] = scale.Value{Kind: scale.KindPrimitive, Bytes: inner.Encode()}
	}

	if _, _, ok := md.Call("Utility", "batch_all"); !ok {
		return chain.SubmitResult{}, fmt.Errorf("subtensor: call Utility.batch_all not found")
	}

	batchCall, err := c.engine.ComposeCall(ctx, "Utility", "batch_all", map[string]scale.Value{
		"calls": scale.Value{Kind: scale.KindSequence, Seq: calls},
	})
	if err != nil {
		return chain.SubmitResult{}, err
	}

	address, signer, err := w.resolveSigner(chain.SignWithColdkey)
	if err != nil {
		return chain.SubmitResult{}, err
	}
	return c.engine.SignAndSend(ctx, batchCall, address, signer, chain.SignWithColdkey, waitForInclusion, waitForFinalization)
}

// MoveStake relocates a stake from one (hotkey, netuid) origin to another
// destination without passing through liquid balance, as
// asyncex/move_stake.py does.
func (c *Client) MoveStake(ctx context.Context, w Wallet, originHotkey string, originNetuid uint16, destHotkey string, destNetuid uint16, amount units.Balance, waitForInclusion, waitForFinalization bool) (chain.SubmitResult, error) {
	origin, err := ss58.Parse(originHotkey)
	if err != nil {
		return chain.SubmitResult{}, err
	}
	dest, err := ss58.Parse(destHotkey)
	if err != nil {
		return chain.SubmitResult{}, err
	}

	md, err := c.engine.Metadata.Get(ctx)
	if err != nil {
		return chain.SubmitResult{}, err
	}
	_, entry, ok := md.Call("SubtensorModule", "move_stake")
	if !ok {
		return chain.SubmitResult{}, fmt.Errorf("subtensor: call SubtensorModule.move_stake not found")
	}
	originVal, destVal, err := hotkeyPairValues(md, entry, origin, dest)
	if err != nil {
		return chain.SubmitResult{}, err
	}

	call, err := c.engine.ComposeCall(ctx, "SubtensorModule", "move_stake", map[string]scale.Value{
		"origin_hotkey":  originVal,
		"origin_netuid":  chain.UintValue(uint64(originNetuid)),
		"destination_hotkey": destVal,
		"destination_netuid": chain.UintValue(uint64(destNetuid)),
		"alpha_amount":   chain.UintValue(uint64(amount.Rao())),
	})
	if err != nil {
		return chain.SubmitResult{}, err
	}

	address, signer, err := w.resolveSigner(chain.SignWithColdkey)
	if err != nil {
		return chain.SubmitResult{}, err
	}
	return c.engine.SignAndSend(ctx, call, address, signer, chain.SignWithColdkey, waitForInclusion, waitForFinalization)
}

// TransferStake moves a stake to a different coldkey's ownership while
// keeping it on the same hotkey/netuid.
func (c *Client) TransferStake(ctx context.Context, w Wallet, destColdkey string, hotkey string, netuid uint16, amount units.Balance, waitForInclusion, waitForFinalization bool) (chain.SubmitResult, error) {
	destColdAddr, err := ss58.Parse(destColdkey)
	if err != nil {
		return chain.SubmitResult{}, err
	}
	hk, err := ss58.Parse(hotkey)
	if err != nil {
		return chain.SubmitResult{}, err
	}

	md, err := c.engine.Metadata.Get(ctx)
	if err != nil {
		return chain.SubmitResult{}, err
	}
	_, entry, ok := md.Call("SubtensorModule", "transfer_stake")
	if !ok {
		return chain.SubmitResult{}, fmt.Errorf("subtensor: call SubtensorModule.transfer_stake not found")
	}
	var destType, hotkeyType scale.TypeID
	for _, arg := range entry.Args {
		switch arg.Name {
		case "destination_coldkey":
			destType = arg.Type
		case "hotkey":
			hotkeyType = arg.Type
		}
	}
	destVal, err := chain.BytesToValue(md.Registry, destType, destColdAddr.Bytes())
	if err != nil {
		return chain.SubmitResult{}, err
	}
	hkVal, err := chain.BytesToValue(md.Registry, hotkeyType, hk.Bytes())
	if err != nil {
		return chain.SubmitResult{}, err
	}

	call, err := c.engine.ComposeCall(ctx, "SubtensorModule", "transfer_stake", map[string]scale.Value{
		"destination_coldkey": destVal,
		"hotkey":              hkVal,
		"origin_netuid":        chain.UintValue(uint64(netuid)),
		"destination_netuid":   chain.UintValue(uint64(netuid)),
		"alpha_amount":         chain.UintValue(uint64(amount.Rao())),
	})
	if err != nil {
		return chain.SubmitResult{}, err
	}

	address, signer, err := w.resolveSigner(chain.SignWithColdkey)
	if err != nil {
		return chain.SubmitResult{}, err
	}
	return c.engine.SignAndSend(ctx, call, address, signer, chain.SignWithColdkey, waitForInclusion, waitForFinalization)
}

func (c *Client) composeHotkeyAmountCall(ctx context.Context, pallet, callName string, hotkey ss58.Address, netuid uint16, amount units.Balance) (chain.Call, error) {
	md, err := c.engine.Metadata.Get(ctx)
	if err != nil {
		return chain.Call{}, err
	}
	_, entry, ok := md.Call(pallet, callName)
	if !ok {
		return chain.Call{}, fmt.Errorf("subtensor: call %s.%s not found", pallet, callName)
	}
	var hotkeyType scale.TypeID
	for _, arg := range entry.Args {
		if arg.Name == "hotkey" {
			hotkeyType = arg.Type
		}
	}
	hkVal, err := chain.BytesToValue(md.Registry, hotkeyType, hotkey.Bytes())
	if err != nil {
		return chain.Call{}, err
	}

	return c.engine.ComposeCall(ctx, pallet, callName, map[string]scale.Value{
		"hotkey":        hkVal,
		"netuid":        chain.UintValue(uint64(netuid)),
		"amount_staked": chain.UintValue(uint64(amount.Rao())),
	})
}

func hotkeyPairValues(md *metadata.Metadata, entry metadata.CallEntry, origin, dest ss58.Address) (scale.Value, scale.Value, error) {
	var originType, destType scale.TypeID
	for _, arg := range entry.Args {
		switch arg.Name {
		case "origin_hotkey":
			originType = arg.Type
		case "destination_hotkey":
			destType = arg.Type
		}
	}
	originVal, err := chain.BytesToValue(md.Registry, originType, origin.Bytes())
	if err != nil {
		return scale.Value{}, scale.Value{}, err
	}
	destVal, err := chain.BytesToValue(md.Registry, destType, dest.Bytes())
	if err != nil {
		return scale.Value{}, scale.Value{}, err
	}
	return originVal, destVal, nil
}
