package subtensor

import (
	"context"
	"fmt"
	"math/big"

	"github.com/opentensor/subtensor-go/chain"
	"github.com/opentensor/subtensor-go/metadata"
	"github.com/opentensor/subtensor-go/scale"
)

// PowSolution is the proof-of-work result fed to Register, produced by a
// caller-side miner loop; this package does not implement the mining loop
// itself, only the extrinsic that submits a solution.
type PowSolution struct {
	BlockNumber uint64
	Nonce       uint64
	Work        [32]byte
}

// Register submits a proof-of-work registration for hotkey on netuid
// (SubtensorModule.register).
func (c *Client) Register(ctx context.Context, w Wallet, netuid uint16, solution PowSolution, waitForInclusion, waitForFinalization bool) (chain.SubmitResult, error) {
	md, err := c.engine.Metadata.Get(ctx)
	if err != nil {
		return chain.SubmitResult{}, err
	}
	_, entry, ok := md.Call("SubtensorModule", "register")
	if !ok {
		return chain.SubmitResult{}, fmt.Errorf("subtensor: call SubtensorModule.register not found")
	}
	hotkeyType := argType(entry, "hotkey")
	coldkeyType := argType(entry, "coldkey")
	workType := argType(entry, "work")

	hotkeyAddr, err := w.HotkeyAddress()
	if err != nil {
		return chain.SubmitResult{}, err
	}
	coldkeyAddr, err := w.ColdkeyAddress()
	if err != nil {
		return chain.SubmitResult{}, err
	}
	hkVal, err := chain.BytesToValue(md.Registry, hotkeyType, hotkeyAddr.Bytes())
	if err != nil {
		return chain.SubmitResult{}, err
	}
	ckVal, err := chain.BytesToValue(md.Registry, coldkeyType, coldkeyAddr.Bytes())
	if err != nil {
		return chain.SubmitResult{}, err
	}
	workVal, err := chain.BytesToValue(md.Registry, workType, solution.Work[:])
	if err != nil {
		return chain.SubmitResult{}, err
	}

	call, err := c.engine.ComposeCall(ctx, "SubtensorModule", "register", map[string]scale.Value{
		"netuid":       chain.UintValue(uint64(netuid)),
		"block_number": chain.UintValue(solution.BlockNumber),
		"nonce":        chain.UintValue(solution.Nonce),
		"work":         workVal,
		"hotkey":       hkVal,
		"coldkey":      ckVal,
	})
	if err != nil {
		return chain.SubmitResult{}, err
	}

	address, signer, err := w.resolveSigner(chain.SignWithHotkey)
	if err != nil {
		return chain.SubmitResult{}, err
	}
	return c.engine.SignAndSend(ctx, call, address, signer, chain.SignWithHotkey, waitForInclusion, waitForFinalization)
}

// BurnedRegister registers hotkey on netuid by paying the subnet's burn
// cost instead of a proof-of-work solution (SubtensorModule.burned_register).
// Burn registration moves balance out of the coldkey, so it signs with the
// coldkey rather than the hotkey.
func (c *Client) BurnedRegister(ctx context.Context, w Wallet, netuid uint16, waitForInclusion, waitForFinalization bool) (chain.SubmitResult, error) {
	md, err := c.engine.Metadata.Get(ctx)
	if err != nil {
		return chain.SubmitResult{}, err
	}
	_, entry, ok := md.Call("SubtensorModule", "burned_register")
	if !ok {
		return chain.SubmitResult{}, fmt.Errorf("subtensor: call SubtensorModule.burned_register not found")
	}
	hotkeyAddr, err := w.HotkeyAddress()
	if err != nil {
		return chain.SubmitResult{}, err
	}
	hkVal, err := chain.BytesToValue(md.Registry, argType(entry, "hotkey"), hotkeyAddr.Bytes())
	if err != nil {
		return chain.SubmitResult{}, err
	}

	call, err := c.engine.ComposeCall(ctx, "SubtensorModule", "burned_register", map[string]scale.Value{
		"netuid": chain.UintValue(uint64(netuid)),
		"hotkey": hkVal,
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

// RootRegister registers the wallet's hotkey on the root network (netuid
// 0), needed before a hotkey can be granted root-level weight-setting
// permissions (SubtensorModule.root_register).
func (c *Client) RootRegister(ctx context.Context, w Wallet, waitForInclusion, waitForFinalization bool) (chain.SubmitResult, error) {
	md, err := c.engine.Metadata.Get(ctx)
	if err != nil {
		return chain.SubmitResult{}, err
	}
	_, entry, ok := md.Call("SubtensorModule", "root_register")
	if !ok {
		return chain.SubmitResult{}, fmt.Errorf("subtensor: call SubtensorModule.root_register not found")
	}
	hotkeyAddr, err := w.HotkeyAddress()
	if err != nil {
		return chain.SubmitResult{}, err
	}
	hkVal, err := chain.BytesToValue(md.Registry, argType(entry, "hotkey"), hotkeyAddr.Bytes())
	if err != nil {
		return chain.SubmitResult{}, err
	}

	call, err := c.engine.ComposeCall(ctx, "SubtensorModule", "root_register", map[string]scale.Value{
		"hotkey": hkVal,
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

// AxonInfo describes the network location a neuron's hotkey advertises to
// the rest of a subnet.
type AxonInfo struct {
	IP       [16]byte // IPv4 addresses are stored left-padded within the 16 bytes
	Port     uint16
	IPType   uint8 // 4 or 6
	Protocol uint8
}

// ServeAxon advertises hotkey's axon network location on netuid
// (SubtensorModule.serve_axon). The two placeholder fields are reserved by
// the pallet for future use and are always sent as zero.
func (c *Client) ServeAxon(ctx context.Context, w Wallet, netuid uint16, axon AxonInfo, waitForInclusion, waitForFinalization bool) (chain.SubmitResult, error) {
	call, err := c.engine.ComposeCall(ctx, "SubtensorModule", "serve_axon", map[string]scale.Value{
		"netuid":       chain.UintValue(uint64(netuid)),
		"version":      chain.UintValue(0),
		"ip":           scale.Value{Kind: scale.KindPrimitive, Int: ipToBigInt(axon.IP)},
		"port":         chain.UintValue(uint64(axon.Port)),
		"ip_type":      chain.UintValue(uint64(axon.IPType)),
		"protocol":     chain.UintValue(uint64(axon.Protocol)),
		"placeholder1": chain.UintValue(0),
		"placeholder2": chain.UintValue(0),
	})
	if err != nil {
		return chain.SubmitResult{}, err
	}

	address, signer, err := w.resolveSigner(chain.SignWithHotkey)
	if err != nil {
		return chain.SubmitResult{}, err
	}
	return c.engine.SignAndSend(ctx, call, address, signer, chain.SignWithHotkey, waitForInclusion, waitForFinalization)
}

// PublishMetadata commits an arbitrary data blob of dataType's shape
// (e.g. "Raw32", "Sha256", "Twitter") to the wallet's hotkey commitment on
// netuid. Newer runtimes expose this under a dedicated Commitments pallet;
// older ones keep it on SubtensorModule, so both names are tried in order.
func (c *Client) PublishMetadata(ctx context.Context, w Wallet, netuid uint16, dataType string, data []byte, waitForInclusion, waitForFinalization bool) (chain.SubmitResult, error) {
	md, err := c.engine.Metadata.Get(ctx)
	if err != nil {
		return chain.SubmitResult{}, err
	}
	pallet := "Commitments"
	if _, _, ok := md.Call(pallet, "publish_metadata"); !ok {
		pallet = "SubtensorModule"
		if _, _, ok := md.Call(pallet, "publish_metadata"); !ok {
			return chain.SubmitResult{}, fmt.Errorf("subtensor: call publish_metadata not found on Commitments or SubtensorModule")
		}
	}

	// Data::RawN(data) (and the other arms, e.g. Sha256) carry one unnamed
	// field "_0".
	dataField := scale.Value{
		Kind:        scale.KindVariant,
		VariantName: dataType,
		Fields:      map[string]scale.Value{"_0": {Kind: scale.KindPrimitive, Bytes: data}},
	}
	call, err := c.engine.ComposeCall(ctx, pallet, "publish_metadata", map[string]scale.Value{
		"netuid": chain.UintValue(uint64(netuid)),
		"data":   dataField,
	})
	if err != nil {
		return chain.SubmitResult{}, err
	}

	address, signer, err := w.resolveSigner(chain.SignWithHotkey)
	if err != nil {
		return chain.SubmitResult{}, err
	}
	return c.engine.SignAndSend(ctx, call, address, signer, chain.SignWithHotkey, waitForInclusion, waitForFinalization)
}

// argType resolves the declared type-id of a named call argument, leaving
// the zero TypeID (which chain.BytesToValue treats as an opaque byte blob)
// if the name is absent from this runtime's metadata.
func argType(entry metadata.CallEntry, name string) scale.TypeID {
	for _, arg := range entry.Args {
		if arg.Name == name {
			return arg.Type
		}
	}
	return 0
}

func ipToBigInt(ip [16]byte) *big.Int {
	return new(big.Int).SetBytes(ip[:])
}
