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

// GetBalance returns the free balance of address (System.Account), or
// Balance(0) for an address with no account entry -- never an error.
func (c *Client) GetBalance(ctx context.Context, address string, ref chain.BlockReference) (units.Balance, error) {
	addr, err := ss58.Parse(address)
	if err != nil {
		return units.Balance{}, err
	}
	md, err := c.engine.Metadata.Get(ctx)
	if err != nil {
		return units.Balance{}, err
	}
	_, entry, ok := md.StorageEntry("System", "Account")
	if !ok || len(entry.Keys) != 1 {
		return units.Balance{}, fmt.Errorf("subtensor: System.Account storage entry not found")
	}
	keyVal, err := chain.BytesToValue(md.Registry, entry.Keys[0].Type, addr.Bytes())
	if err != nil {
		return units.Balance{}, err
	}

	v, found, err := c.engine.Get(ctx, "System", "Account", []scale.Value{keyVal}, ref)
	if err != nil {
		return units.Balance{}, err
	}
	if !found {
		return units.Balance{}, nil
	}
	data, ok := v.Fields["data"]
	if !ok {
		return units.Balance{}, nil
	}
	free, ok := data.Fields["free"]
	if !ok {
		return units.Balance{}, nil
	}
	n, err := free.AsUint64()
	if err != nil {
		return units.Balance{}, err
	}
	return units.FromRao(int64(n)), nil
}

// GetNetuidsForHotkey returns the subnets a hotkey is registered on by
// scanning SubtensorModule.IsNetworkMember (a map keyed by
// (AccountId, netuid) -> bool) via query_map over the hotkey's prefix.
//
// It returns an error when the connected runtime has no IsNetworkMember map
// entry; no other storage item is consulted as a fallback. Callers needing
// the raw entries should use Engine().QueryMap directly.
func (c *Client) GetNetuidsForHotkey(ctx context.Context, hotkey string, ref chain.BlockReference) ([]uint16, error) {
	addr, err := ss58.Parse(hotkey)
	if err != nil {
		return nil, err
	}
	md, err := c.engine.Metadata.Get(ctx)
	if err != nil {
		return nil, err
	}
	_, entry, ok := md.StorageEntry("SubtensorModule", "IsNetworkMember")
	if !ok || len(entry.Keys) == 0 {
		return nil, fmt.Errorf("subtensor: SubtensorModule.IsNetworkMember storage entry not found")
	}
	keyVal, err := chain.BytesToValue(md.Registry, entry.Keys[0].Type, addr.Bytes())
	if err != nil {
		return nil, err
	}

	entries, err := c.engine.QueryMap(ctx, "SubtensorModule", "IsNetworkMember", []scale.Value{keyVal}, ref)
	if err != nil {
		return nil, err
	}

	var netuids []uint16
	for _, e := range entries {
		isMember := e.Value.Bool
		if !isMember || len(e.DecodedKey) == 0 {
			continue
		}
		n, err := e.DecodedKey[len(e.DecodedKey)-1].AsUint64()
		if err != nil {
			continue
		}
		netuids = append(netuids, uint16(n))
	}
	return netuids, nil
}

// BlocksSinceLastUpdate returns current_block - LastUpdate[netuid][uid].
func (c *Client) BlocksSinceLastUpdate(ctx context.Context, netuid, uid uint16) (uint64, error) {
	current, err := c.engine.Blocks.CurrentBlock(ctx)
	if err != nil {
		return 0, err
	}
	v, found, err := c.engine.Get(ctx, "SubtensorModule", "LastUpdate", []scale.Value{chain.UintValue(uint64(netuid))}, chain.BlockAtLatest())
	if err != nil {
		return 0, err
	}
	if !found || v.Kind != scale.KindSequence || int(uid) >= len(v.Seq) {
		return 0, fmt.Errorf("subtensor: no LastUpdate entry for netuid %d uid %d", netuid, uid)
	}
	lastUpdate, err := v.Seq[uid].AsUint64()
	if err != nil {
		return 0, err
	}
	return current - lastUpdate, nil
}

// HyperparamValue is one named subnet hyperparameter's decoded value.
type HyperparamValue struct {
	Name  string
	Value scale.Value
}

// subnetHyperparameterNames are the SubtensorModule storage items queried by
// GetSubnetHyperparameters; any entry missing in the connected runtime's
// metadata is skipped rather than failing the whole call.
var subnetHyperparameterNames = []string{
	"Rho", "Kappa", "ImmunityPeriod", "MinAllowedWeights", "MaxWeightsLimit",
	"Tempo", "MinDifficulty", "MaxDifficulty", "WeightsVersion",
	"WeightsSetRateLimit", "AdjustmentInterval", "Activity", "RegistrationsThisInterval",
	"TargetRegistrationsPerInterval", "MaxRegistrationsPerBlock", "CommitRevealWeightsEnabled",
	"RevealPeriodEpochs",
}

// GetSubnetHyperparameters reads the named hyperparameter storage items for
// netuid, returning an empty slice (not an error) for a non-existent netuid.
func (c *Client) GetSubnetHyperparameters(ctx context.Context, netuid uint16, ref chain.BlockReference) ([]HyperparamValue, error) {
	var out []HyperparamValue
	for _, name := range subnetHyperparameterNames {
		v, found, err := c.engine.Get(ctx, "SubtensorModule", name, []scale.Value{chain.UintValue(uint64(netuid))}, ref)
		if err != nil {
			continue
		}
		if !found {
			continue
		}
		out = append(out, HyperparamValue{Name: name, Value: v})
	}
	return out, nil
}

// ChainProperties reports the connected node's chain name and ss58/decimals
// properties via system_chain/system_properties, used to validate the
// hardcoded rao/tao unit assumption at runtime.
type ChainProperties struct {
	ChainName   string
	SS58Format  int
	TokenSymbol string
	TokenDecimals int
}

func (c *Client) ChainProperties(ctx context.Context) (ChainProperties, error) {
	var props ChainProperties

	nameRaw, err := c.engine.RPC.Call(ctx, "system_chain", nil)
	if err != nil {
		return props, fmt.Errorf("subtensor: system_chain: %w", err)
	}
	if err := json.Unmarshal(nameRaw, &props.ChainName); err != nil {
		return props, fmt.Errorf("subtensor: system_chain: malformed response: %w", err)
	}

	propsRaw, err := c.engine.RPC.Call(ctx, "system_properties", nil)
	if err != nil {
		return props, fmt.Errorf("subtensor: system_properties: %w", err)
	}
	var decoded struct {
		SS58Format    int      `json:"ss58Format"`
		TokenSymbol   []string `json:"tokenSymbol"`
		TokenDecimals []int    `json:"tokenDecimals"`
	}
	if err := json.Unmarshal(propsRaw, &decoded); err != nil {
		return props, fmt.Errorf("subtensor: system_properties: malformed response: %w", err)
	}
	props.SS58Format = decoded.SS58Format
	if len(decoded.TokenSymbol) > 0 {
		props.TokenSymbol = decoded.TokenSymbol[0]
	}
	if len(decoded.TokenDecimals) > 0 {
		props.TokenDecimals = decoded.TokenDecimals[0]
	}
	return props, nil
}

// GetDelegate fetches raw delegate info via the custom delegateInfo_getDelegate
// RPC method, returning the node's JSON verbatim -- the custom RPCs are not
// part of the SCALE-typed metadata surface, so callers decode the shape
// they expect.
func (c *Client) GetDelegate(ctx context.Context, hotkey string, ref chain.BlockReference) (json.RawMessage, error) {
	h, err := c.engine.Blocks.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	params := []interface{}{hotkey}
	if h != nil {
		params = append(params, fmt.Sprintf("0x%x", *h))
	}
	return c.engine.RPC.Call(ctx, "delegateInfo_getDelegate", params)
}

// GetDelegated fetches raw delegation info for a delegator's coldkey via
// delegateInfo_getDelegated.
func (c *Client) GetDelegated(ctx context.Context, coldkey string, ref chain.BlockReference) (json.RawMessage, error) {
	h, err := c.engine.Blocks.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	params := []interface{}{coldkey}
	if h != nil {
		params = append(params, fmt.Sprintf("0x%x", *h))
	}
	return c.engine.RPC.Call(ctx, "delegateInfo_getDelegated", params)
}

// GetNeuron fetches raw neuron info via neuronInfo_getNeuron.
func (c *Client) GetNeuron(ctx context.Context, netuid uint16, uid uint16, ref chain.BlockReference) (json.RawMessage, error) {
	h, err := c.engine.Blocks.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	params := []interface{}{netuid, uid}
	if h != nil {
		params = append(params, fmt.Sprintf("0x%x", *h))
	}
	return c.engine.RPC.Call(ctx, "neuronInfo_getNeuron", params)
}
