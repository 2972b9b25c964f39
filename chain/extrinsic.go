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

// Call is a composed, ready-to-sign pallet call.
type Call struct {
	PalletIndex uint8
	CallIndex   uint8
	Args        []byte
}

// Encode renders the call as `pallet_index || call_index || args`.
func (c Call) Encode() []byte {
	out := make([]byte, 0, 2+len(c.Args))
	out = append(out, c.PalletIndex, c.CallIndex)
	out = append(out, c.Args...)
	return out
}

// ComposeCall builds a Call by resolving pallet/callName against cached
// metadata and SCALE-encoding namedArgs in the declared field order.
func (e *Engine) ComposeCall(ctx context.Context, pallet, callName string, namedArgs map[string]scale.Value) (Call, error) {
	md, err := e.Metadata.Get(ctx)
	if err != nil {
		return Call{}, err
	}
	p, entry, ok := md.Call(pallet, callName)
	if !ok {
		return Call{}, fmt.Errorf("chain: call %s.%s not found", pallet, callName)
	}

	enc := scale.NewEncoder()
	for _, arg := range entry.Args {
		v, ok := namedArgs[arg.Name]
		if !ok {
			return Call{}, fmt.Errorf("%w: %s.%s arg %s", errs.ErrMissingParam, pallet, callName, arg.Name)
		}
		b, err := scale.Encode(md.Registry, arg.Type, v)
		if err != nil {
			return Call{}, errs.NewDecode(fmt.Sprintf("%s.%s arg %s", pallet, callName, arg.Name), err)
		}
		enc.Write(b)
	}

	return Call{PalletIndex: p.Index, CallIndex: entry.Index, Args: enc.Bytes()}, nil
}

// SignWith names which of the signer's keys should sign an extrinsic.
type SignWith int

const (
	SignWithColdkey SignWith = iota
	SignWithHotkey
	SignWithColdkeypub // unsigned; allowed only for fee-estimation paths
)

// SubmitResult is the outcome of SignAndSend.
type SubmitResult struct {
	Success       bool
	Message       string
	ExtrinsicHash [32]byte
	BlockHash     *[32]byte
}

const defaultMortalPeriod = 64

// SignAndSend composes, signs, submits and (optionally) tracks call through
// to inclusion/finalization. signer is nil only when
// signWith == SignWithColdkeypub, producing an unsigned extrinsic.
func (e *Engine) SignAndSend(
	ctx context.Context,
	call Call,
	signerAddress string,
	signer Signer,
	signWith SignWith,
	waitForInclusion, waitForFinalization bool,
) (SubmitResult, error) {
	if signWith == SignWithColdkeypub {
		return e.submitUnsigned(ctx, call)
	}
	if signer == nil {
		return SubmitResult{}, fmt.Errorf("chain: signWith requires a signer")
	}

	md, err := e.Metadata.Get(ctx)
	if err != nil {
		return SubmitResult{}, err
	}

	current, err := e.Blocks.CurrentBlock(ctx)
	if err != nil {
		return SubmitResult{}, err
	}
	era := NewMortalEra(defaultMortalPeriod, current)
	birth := era.BirthBlock(current)
	eraHash, err := e.Blocks.BlockHash(ctx, &birth)
	if err != nil {
		return SubmitResult{}, err
	}

	nonce, release, err := e.Nonces.Reserve(ctx, signerAddress)
	if err != nil {
		return SubmitResult{}, err
	}

	specVersion, txVersion, err := e.runtimeVersion(ctx)
	if err != nil {
		release(false)
		return SubmitResult{}, err
	}
	genesisHash, err := e.Blocks.BlockHash(ctx, uint64Ptr(0))
	if err != nil {
		release(false)
		return SubmitResult{}, err
	}

	const tip = uint64(0)
	extraEnc := scale.NewEncoder()
	extraEnc.Write(era.Encode())
	extraEnc.EncodeCompact(nonce)
	extraEnc.EncodeCompact(tip)

	payload := buildSignaturePayload(call, extraEnc.Bytes(), specVersion, txVersion, genesisHash, eraHash)
	sig, err := signer.Sign(payload)
	if err != nil {
		release(false)
		return SubmitResult{}, fmt.Errorf("%w: %v", errs.ErrSigningFailed, err)
	}

	encoded := encodeSignedExtrinsic(signer.PublicKey(), signer.Scheme(), sig, era, nonce, tip, call)
	extrinsicHash := blake2_256(encoded)

	if !waitForInclusion && !waitForFinalization {
		_, err := e.RPC.Call(ctx, "author_submitExtrinsic", []interface{}{hexParam(encoded)})
		release(err == nil)
		if err != nil {
			return SubmitResult{}, err
		}
		var hashArr [32]byte
		copy(hashArr[:], extrinsicHash)
		return SubmitResult{Success: true, Message: "submitted", ExtrinsicHash: hashArr}, nil
	}

	result, err := e.watchExtrinsic(ctx, md, encoded, extrinsicHash, waitForInclusion, waitForFinalization)
	// An extrinsic that made it into a block has used its nonce even when its
	// dispatch failed, so the counter advances whenever a block hash came back.
	release(err == nil && result.BlockHash != nil)
	return result, err
}

func uint64Ptr(v uint64) *uint64 { return &v }

// EncodeUnsignedExtrinsic renders call as an unsigned V4 extrinsic, used
// both for fire-and-forget unsigned submission and for fee estimation
// (payment_queryInfo accepts an unsigned extrinsic's encoding).
func EncodeUnsignedExtrinsic(call Call) []byte {
	return finishSignedExtrinsic(call.Encode(), 4)
}

func (e *Engine) submitUnsigned(ctx context.Context, call Call) (SubmitResult, error) {
	encoded := EncodeUnsignedExtrinsic(call)
	_, err := e.RPC.Call(ctx, "author_submitExtrinsic", []interface{}{hexParam(encoded)})
	if err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{Success: true, Message: "submitted unsigned"}, nil
}

// runtimeVersion fetches spec_version/transaction_version via
// state_getRuntimeVersion.
func (e *Engine) runtimeVersion(ctx context.Context) (uint32, uint32, error) {
	raw, err := e.RPC.Call(ctx, "state_getRuntimeVersion", nil)
	if err != nil {
		return 0, 0, fmt.Errorf("chain: state_getRuntimeVersion: %w", err)
	}
	var v struct {
		SpecVersion        uint32 `json:"specVersion"`
		TransactionVersion uint32 `json:"transactionVersion"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, 0, errs.NewDecode("state_getRuntimeVersion", err)
	}
	return v.SpecVersion, v.TransactionVersion, nil
}

// buildSignaturePayload assembles the bytes a Signer must sign: call || era || nonce || tip || spec_version || tx_version
// || genesis_hash || block_hash_for_era. Per Substrate convention, payloads
// longer than 256 bytes are blake2_256-hashed before signing so the
// signature length stays bounded.
func buildSignaturePayload(call Call, extra []byte, specVersion, txVersion uint32, genesisHash, eraHash [32]byte) []byte {
	enc := scale.NewEncoder()
	enc.Write(call.Encode())
	enc.Write(extra)
	enc.EncodeUint32(specVersion)
	enc.EncodeUint32(txVersion)
	enc.Write(genesisHash[:])
	enc.Write(eraHash[:])

	payload := enc.Bytes()
	if len(payload) > 256 {
		return blake2_256(payload)
	}
	return payload
}

// encodeSignedExtrinsic renders the final V4 UncheckedExtrinsic bytes:
// compact-length-prefixed (version byte | address | signature | extra |
// call).
func encodeSignedExtrinsic(pubkey [32]byte, scheme SignatureScheme, sig []byte, era Era, nonce, tip uint64, call Call) []byte {
	body := scale.NewEncoder()
	body.EncodeUint8(0) // MultiAddress::Id variant
	body.Write(pubkey[:])
	body.EncodeUint8(signatureDiscriminant(scheme))
	body.Write(sig)
	body.Write(era.Encode())
	body.EncodeCompact(nonce)
	body.EncodeCompact(tip)
	body.Write(call.Encode())

	const signedBit = 0x80
	const version = 4

	return finishSignedExtrinsic(body.Bytes(), signedBit|version)
}

func finishSignedExtrinsic(body []byte, versionByte byte) []byte {
	inner := make([]byte, 0, 1+len(body))
	inner = append(inner, versionByte)
	inner = append(inner, body...)

	out := scale.NewEncoder()
	out.EncodeCompact(uint64(len(inner)))
	out.Write(inner)
	return out.Bytes()
}

func signatureDiscriminant(scheme SignatureScheme) uint8 {
	if scheme == SchemeSr25519 {
		return 1
	}
	return 0
}

// watchExtrinsic submits via author_submitAndWatchExtrinsic and drives the
// status state machine.
func (e *Engine) watchExtrinsic(ctx context.Context, md *metadata.Metadata, encoded []byte, extrinsicHash []byte, waitForInclusion, waitForFinalization bool) (SubmitResult, error) {
	sub, err := e.RPC.Subscribe(ctx, "author_submitAndWatchExtrinsic", "author_unwatchExtrinsic", []interface{}{hexParam(encoded)})
	if err != nil {
		return SubmitResult{}, err
	}
	defer func() { _ = sub.Unsubscribe(context.Background()) }()

	var hashArr [32]byte
	copy(hashArr[:], extrinsicHash)

	for {
		select {
		case raw, ok := <-sub.Updates():
			if !ok {
				return SubmitResult{}, errs.ErrConnectionClosed
			}
			status, err := parseExtrinsicStatus(raw)
			if err != nil {
				return SubmitResult{}, err
			}
			switch status.Kind {
			case statusInBlock:
				if waitForFinalization {
					continue // keep watching for Finalized
				}
				return e.resolveInclusion(ctx, md, status.Hash, hashArr)
			case statusFinalized:
				return e.resolveInclusion(ctx, md, status.Hash, hashArr)
			case statusDropped, statusUsurped, statusInvalid, statusFinalityTimeout:
				return SubmitResult{Success: false, Message: fmt.Sprintf("extrinsic terminal status: %s", status.Kind), ExtrinsicHash: hashArr}, nil
			default:
				continue
			}
		case <-ctx.Done():
			return SubmitResult{}, ctx.Err()
		}
	}
}

func (e *Engine) resolveInclusion(ctx context.Context, md *metadata.Metadata, blockHash, extrinsicHash [32]byte) (SubmitResult, error) {
	idx, err := e.findExtrinsicIndex(ctx, blockHash, extrinsicHash)
	if err != nil {
		return SubmitResult{}, err
	}
	dispatchErr, err := e.FindDispatchError(ctx, blockHash, idx)
	if err != nil {
		return SubmitResult{}, err
	}
	bh := blockHash
	if dispatchErr != nil {
		return SubmitResult{Success: false, Message: dispatchErr.Error(), ExtrinsicHash: extrinsicHash, BlockHash: &bh}, nil
	}
	return SubmitResult{Success: true, Message: "included", ExtrinsicHash: extrinsicHash, BlockHash: &bh}, nil
}

// findExtrinsicIndex locates our extrinsic's position within the block's
// extrinsic list by hashing each and comparing, since chain_getBlock
// returns raw encoded extrinsics rather than their indices directly.
func (e *Engine) findExtrinsicIndex(ctx context.Context, blockHash, extrinsicHash [32]byte) (uint32, error) {
	raw, err := e.RPC.Call(ctx, "chain_getBlock", []interface{}{hexParam(blockHash[:])})
	if err != nil {
		return 0, fmt.Errorf("chain: chain_getBlock: %w", err)
	}
	var block struct {
		Block struct {
			Extrinsics []string `json:"extrinsics"`
		} `json:"block"`
	}
	if err := json.Unmarshal(raw, &block); err != nil {
		return 0, errs.NewDecode("chain_getBlock", err)
	}
	for i, hexExt := range block.Block.Extrinsics {
		b, err := hex.DecodeString(strings.TrimPrefix(hexExt, "0x"))
		if err != nil {
			continue
		}
		if string(blake2_256(b)) == string(extrinsicHash[:]) {
			return uint32(i), nil
		}
	}
	return 0, fmt.Errorf("chain: extrinsic not found in block %x", blockHash)
}

type extrinsicStatusKind int

const (
	statusFuture extrinsicStatusKind = iota
	statusReady
	statusBroadcast
	statusInBlock
	statusFinalized
	statusDropped
	statusUsurped
	statusInvalid
	statusFinalityTimeout
)

func (k extrinsicStatusKind) String() string {
	names := [...]string{"Future", "Ready", "Broadcast", "InBlock", "Finalized", "Dropped", "Usurped", "Invalid", "FinalityTimeout"}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

type extrinsicStatus struct {
	Kind extrinsicStatusKind
	Hash [32]byte
}

func parseExtrinsicStatus(raw json.RawMessage) (extrinsicStatus, error) {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		switch asString {
		case "future":
			return extrinsicStatus{Kind: statusFuture}, nil
		case "ready":
			return extrinsicStatus{Kind: statusReady}, nil
		default:
			return extrinsicStatus{Kind: statusInvalid}, nil
		}
	}

	var asMap map[string]json.RawMessage
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return extrinsicStatus{}, errs.NewDecode("extrinsic status", err)
	}
	for key, payload := range asMap {
		switch strings.ToLower(key) {
		case "broadcast":
			return extrinsicStatus{Kind: statusBroadcast}, nil
		case "inblock":
			h, err := decodeHashString(payload)
			return extrinsicStatus{Kind: statusInBlock, Hash: h}, err
		case "finalized":
			h, err := decodeHashString(payload)
			return extrinsicStatus{Kind: statusFinalized, Hash: h}, err
		case "dropped":
			return extrinsicStatus{Kind: statusDropped}, nil
		case "usurped":
			return extrinsicStatus{Kind: statusUsurped}, nil
		case "invalid":
			return extrinsicStatus{Kind: statusInvalid}, nil
		case "finalitytimeout":
			return extrinsicStatus{Kind: statusFinalityTimeout}, nil
		}
	}
	return extrinsicStatus{Kind: statusInvalid}, nil
}

func decodeHashString(raw json.RawMessage) ([32]byte, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return [32]byte{}, err
	}
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil || len(b) != 32 {
		return [32]byte{}, fmt.Errorf("malformed block hash %q", s)
	}
	var out [32]byte
	copy(out[:], b)
	return out, nil
}
