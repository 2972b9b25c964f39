package chain

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/opentensor/subtensor-go/errs"
	"github.com/opentensor/subtensor-go/metadata"
	"github.com/opentensor/subtensor-go/scale"
)

// atParam renders a resolved block hash as the optional trailing RPC
// parameter Substrate's state_* methods take; nil means "omit it" (current
// head).
func atParam(hash *[32]byte) []interface{} {
	if hash == nil {
		return nil
	}
	return []interface{}{hexParam(hash[:])}
}

// resolveAt resolves ref to a concrete hash via e.Blocks, honoring "latest"
// as an omitted `at` parameter rather than a resolved hash, so storage
// calls made without an explicit block always hit the node's current head.
func (e *Engine) resolveAt(ctx context.Context, ref BlockReference) (*[32]byte, error) {
	if ref.kind == BlockRefLatest {
		// Still resolve + cache for ReuseLast, but callers pass nil `at`.
		if _, err := e.Blocks.Resolve(ctx, ref); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return e.Blocks.Resolve(ctx, ref)
}

func storageHashers(entry metadata.StorageEntry) []metadata.Hasher {
	hs := make([]metadata.Hasher, len(entry.Keys))
	for i, k := range entry.Keys {
		hs[i] = k.Hasher
	}
	return hs
}

// Get issues state_getStorage for a (pallet, item) entry keyed by keys (one
// scale.Value per declared map key, empty for a plain value), decoding the
// result per the storage descriptor's value type. A null response with a
// Default-modifier entry returns the entry's declared default instead of
// the zero value; an Optional-modifier entry returns (zero, false, nil)
// for an absent key.
func (e *Engine) Get(ctx context.Context, pallet, item string, keys []scale.Value, ref BlockReference) (scale.Value, bool, error) {
	md, err := e.Metadata.Get(ctx)
	if err != nil {
		return scale.Value{}, false, err
	}
	p, entry, ok := md.StorageEntry(pallet, item)
	if !ok {
		return scale.Value{}, false, fmt.Errorf("chain: storage entry %s.%s not found", pallet, item)
	}
	if len(keys) != len(entry.Keys) {
		return scale.Value{}, false, fmt.Errorf("chain: %s.%s expects %d key(s), got %d", pallet, item, len(entry.Keys), len(keys))
	}

	encodedKeys := make([][]byte, len(keys))
	for i, k := range keys {
		b, err := scale.Encode(md.Registry, entry.Keys[i].Type, k)
		if err != nil {
			return scale.Value{}, false, errs.NewDecode(fmt.Sprintf("%s.%s key[%d]", pallet, item, i), err)
		}
		encodedKeys[i] = b
	}
	storageKey, err := ComposeStorageKey(p.Name, entry.Name, storageHashers(entry), encodedKeys)
	if err != nil {
		return scale.Value{}, false, err
	}

	at, err := e.resolveAt(ctx, ref)
	if err != nil {
		return scale.Value{}, false, err
	}

	raw, err := e.RPC.Call(ctx, "state_getStorage", append([]interface{}{hexParam(storageKey)}, atParam(at)...))
	if err != nil {
		return scale.Value{}, false, err
	}

	var hexVal *string
	if err := json.Unmarshal(raw, &hexVal); err != nil {
		return scale.Value{}, false, errs.NewDecode("state_getStorage", err)
	}
	if hexVal == nil {
		if entry.Modifier == metadata.ModifierDefault {
			v, _, err := scale.Decode(md.Registry, entry.Value, entry.Default)
			if err != nil {
				return scale.Value{}, false, errs.NewDecode(fmt.Sprintf("%s.%s default", pallet, item), err)
			}
			return v, true, nil
		}
		return scale.Value{}, false, nil
	}

	valBytes, err := hex.DecodeString(strings.TrimPrefix(*hexVal, "0x"))
	if err != nil {
		return scale.Value{}, false, errs.NewDecode("state_getStorage", err)
	}
	v, _, err := scale.Decode(md.Registry, entry.Value, valBytes)
	if err != nil {
		return scale.Value{}, false, errs.NewDecode(fmt.Sprintf("%s.%s", pallet, item), err)
	}
	return v, true, nil
}

// GetConstant decodes a pallet constant directly from cached metadata; it
// never touches the network.
func (e *Engine) GetConstant(ctx context.Context, pallet, name string) (scale.Value, error) {
	md, err := e.Metadata.Get(ctx)
	if err != nil {
		return scale.Value{}, err
	}
	c, ok := md.Constant(pallet, name)
	if !ok {
		return scale.Value{}, fmt.Errorf("chain: constant %s.%s not found", pallet, name)
	}
	v, _, err := scale.Decode(md.Registry, c.Type, c.Value)
	if err != nil {
		return scale.Value{}, errs.NewDecode(fmt.Sprintf("%s.%s", pallet, name), err)
	}
	return v, nil
}

// QueryMultiEntry pairs a raw storage key with an optional decoded value,
// the result shape of QueryMulti.
type QueryMultiEntry struct {
	Key   []byte
	Value scale.Value
	Found bool
}

// QueryMulti batches several storage reads (possibly against different
// entries, as long as they share one value type to decode against) into a
// single state_queryStorageAt call, preserving input order.
func (e *Engine) QueryMulti(ctx context.Context, keys [][]byte, valueType scale.TypeID, ref BlockReference) ([]QueryMultiEntry, error) {
	md, err := e.Metadata.Get(ctx)
	if err != nil {
		return nil, err
	}
	at, err := e.resolveAt(ctx, ref)
	if err != nil {
		return nil, err
	}

	hexKeys := make([]string, len(keys))
	for i, k := range keys {
		hexKeys[i] = hexParam(k)
	}
	params := []interface{}{hexKeys}
	if at != nil {
		params = append(params, hexParam(at[:]))
	}

	raw, err := e.RPC.Call(ctx, "state_queryStorageAt", params)
	if err != nil {
		return nil, err
	}

	var changeSets []struct {
		Block   string     `json:"block"`
		Changes [][]string `json:"changes"`
	}
	if err := json.Unmarshal(raw, &changeSets); err != nil {
		return nil, errs.NewDecode("state_queryStorageAt", err)
	}

	found := make(map[string]string)
	if len(changeSets) > 0 {
		for _, change := range changeSets[0].Changes {
			if len(change) != 2 {
				continue
			}
			found[change[0]] = change[1]
		}
	}

	out := make([]QueryMultiEntry, len(keys))
	for i, k := range keys {
		out[i].Key = k
		hv, ok := found[hexParam(k)]
		if !ok || hv == "" {
			continue
		}
		valBytes, err := hex.DecodeString(strings.TrimPrefix(hv, "0x"))
		if err != nil {
			return nil, errs.NewDecode("state_queryStorageAt value", err)
		}
		v, _, err := scale.Decode(md.Registry, valueType, valBytes)
		if err != nil {
			return nil, errs.NewDecode("state_queryStorageAt value", err)
		}
		out[i].Value = v
		out[i].Found = true
	}
	return out, nil
}

// QueryMapEntry is one (key-suffix, value) pair yielded by QueryMap.
// DecodedKey is only populated when the entry's hasher chain is fully
// concat-based.
type QueryMapEntry struct {
	RawKey     []byte
	DecodedKey []scale.Value
	Value      scale.Value
}

// QueryMap iterates every entry under a storage map, using
// state_getKeysPaged (page size 1000) then a batched state_queryStorageAt.
func (e *Engine) QueryMap(ctx context.Context, pallet, item string, partialKeys []scale.Value, ref BlockReference) ([]QueryMapEntry, error) {
	const pageSize = 1000

	md, err := e.Metadata.Get(ctx)
	if err != nil {
		return nil, err
	}
	p, entry, ok := md.StorageEntry(pallet, item)
	if !ok {
		return nil, fmt.Errorf("chain: storage entry %s.%s not found", pallet, item)
	}
	if len(entry.Keys) == 0 {
		return nil, fmt.Errorf("chain: %s.%s is not a map", pallet, item)
	}

	encodedPartial := make([][]byte, len(partialKeys))
	for i, k := range partialKeys {
		b, err := scale.Encode(md.Registry, entry.Keys[i].Type, k)
		if err != nil {
			return nil, errs.NewDecode(fmt.Sprintf("%s.%s partial key[%d]", pallet, item, i), err)
		}
		encodedPartial[i] = b
	}
	prefix, err := ComposeStorageKey(p.Name, entry.Name, storageHashers(entry)[:len(encodedPartial)], encodedPartial)
	if err != nil {
		return nil, err
	}

	at, err := e.resolveAt(ctx, ref)
	if err != nil {
		return nil, err
	}

	var allKeys []string
	startKey := ""
	for {
		params := []interface{}{hexParam(prefix), pageSize, startKey}
		if at != nil {
			params = append(params, hexParam(at[:]))
		}
		raw, err := e.RPC.Call(ctx, "state_getKeysPaged", params)
		if err != nil {
			return nil, err
		}
		var page []string
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, errs.NewDecode("state_getKeysPaged", err)
		}
		allKeys = append(allKeys, page...)
		if len(page) < pageSize {
			break
		}
		startKey = page[len(page)-1]
	}

	if len(allKeys) == 0 {
		return nil, nil //  boundary: empty map yields empty sequence
	}

	rawKeys := make([][]byte, len(allKeys))
	for i, k := range allKeys {
		b, err := hex.DecodeString(strings.TrimPrefix(k, "0x"))
		if err != nil {
			return nil, errs.NewDecode("state_getKeysPaged key", err)
		}
		rawKeys[i] = b
	}

	values, err := e.QueryMulti(ctx, rawKeys, entry.Value, ref)
	if err != nil {
		return nil, err
	}

	out := make([]QueryMapEntry, len(values))
	for i, qv := range values {
		out[i].RawKey = qv.Key
		out[i].Value = qv.Value
		suffix := qv.Key[len(StorageKeyPrefix(p.Name, entry.Name)):]
		if decoded, ok := decodeConcatKeySuffix(md.Registry, entry.Keys, suffix); ok {
			out[i].DecodedKey = decoded
		}
	}
	return out, nil
}

// decodeConcatKeySuffix recovers the plaintext map key from a storage key's
// hashed suffix, only possible when every hasher in the chain is a concat
// variant (Blake2_128Concat/Twox64Concat) that preserves the plaintext
// bytes after its fixed-size digest.
func decodeConcatKeySuffix(reg *scale.Registry, parts []metadata.StorageKeyPart, suffix []byte) ([]scale.Value, bool) {
	out := make([]scale.Value, 0, len(parts))
	for _, part := range parts {
		if !part.Hasher.IsConcat() {
			return nil, false
		}
		digestLen := concatDigestLen(part.Hasher)
		if len(suffix) < digestLen {
			return nil, false
		}
		suffix = suffix[digestLen:]
		v, n, err := scale.Decode(reg, part.Type, suffix)
		if err != nil {
			return nil, false
		}
		out = append(out, v)
		suffix = suffix[n:]
	}
	return out, true
}

func concatDigestLen(h metadata.Hasher) int {
	switch h {
	case metadata.HasherBlake2_128Concat:
		return 16
	case metadata.HasherTwox64Concat:
		return 8
	default:
		return 0
	}
}
