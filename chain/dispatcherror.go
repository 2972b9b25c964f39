package chain

import (
	"context"
	"fmt"

	"github.com/opentensor/subtensor-go/errs"
	"github.com/opentensor/subtensor-go/metadata"
	"github.com/opentensor/subtensor-go/scale"
)

// decodedEvent is one entry of System.Events after generic decode: phase
// plus the aggregated RuntimeEvent variant (pallet-indexed), whose sole
// field wraps that pallet's own event enum.
type decodedEvent struct {
	phase       scale.Value
	palletEvent scale.Value // Kind: KindVariant, VariantName == pallet name
}

// fetchEvents decodes the System.Events plain storage value at hash into
// one decodedEvent per record. System.Events'
// declared type is a Vec<EventRecord<RuntimeEvent, Hash>>; because the
// scale package's Value/Registry decode is fully generic over the
// metadata-declared type graph, no special-casing is needed beyond walking
// the resulting composite shape.
func (e *Engine) fetchEvents(ctx context.Context, hash [32]byte) ([]decodedEvent, error) {
	v, found, err := e.Get(ctx, "System", "Events", nil, BlockAtHash(hash))
	if err != nil {
		return nil, fmt.Errorf("chain: fetch System.Events: %w", err)
	}
	if !found || v.Kind != scale.KindSequence {
		return nil, nil
	}

	out := make([]decodedEvent, 0, len(v.Seq))
	for _, rec := range v.Seq {
		if rec.Kind != scale.KindComposite {
			continue
		}
		phase, ok := rec.Fields["phase"]
		if !ok {
			continue
		}
		ev, ok := rec.Fields["event"]
		if !ok {
			continue
		}
		out = append(out, decodedEvent{phase: phase, palletEvent: ev})
	}
	return out, nil
}

// applyExtrinsicIndex extracts the u32 index from a Phase::ApplyExtrinsic
// value, or (0, false) for any other phase.
func applyExtrinsicIndex(phase scale.Value) (uint32, bool) {
	if phase.Kind != scale.KindVariant || phase.VariantName != "ApplyExtrinsic" {
		return 0, false
	}
	for _, fv := range phase.Fields {
		n, err := fv.AsUint64()
		if err == nil {
			return uint32(n), true
		}
	}
	return 0, false
}

// innerEventVariant unwraps the single tuple-style field a RuntimeEvent
// variant carries (the wrapped pallet event enum).
func innerEventVariant(palletEvent scale.Value) (scale.Value, bool) {
	for _, fv := range palletEvent.Fields {
		if fv.Kind == scale.KindVariant {
			return fv, true
		}
	}
	return scale.Value{}, false
}

// FindDispatchError locates the System.ExtrinsicFailed event for
// extrinsicIndex within the block at hash and resolves its DispatchError
// against metadata, yielding a human-readable pallet/name pair; the Docs
// field of the result is left empty.
// Returns (nil, nil) if the extrinsic succeeded (no ExtrinsicFailed event
// was emitted for it).
func (e *Engine) FindDispatchError(ctx context.Context, hash [32]byte, extrinsicIndex uint32) (*errs.DispatchError, error) {
	md, err := e.Metadata.Get(ctx)
	if err != nil {
		return nil, err
	}
	events, err := e.fetchEvents(ctx, hash)
	if err != nil {
		return nil, err
	}

	for _, ev := range events {
		idx, ok := applyExtrinsicIndex(ev.phase)
		if !ok || idx != extrinsicIndex {
			continue
		}
		if ev.palletEvent.Kind != scale.KindVariant || ev.palletEvent.VariantName != "System" {
			continue
		}
		inner, ok := innerEventVariant(ev.palletEvent)
		if !ok || inner.VariantName != "ExtrinsicFailed" {
			continue
		}
		dispatchErrVal, ok := firstVariantField(inner)
		if !ok {
			return nil, fmt.Errorf("chain: ExtrinsicFailed event missing dispatch_error field")
		}
		return resolveDispatchError(md, dispatchErrVal)
	}
	return nil, nil
}

func firstVariantField(v scale.Value) (scale.Value, bool) {
	for _, name := range []string{"dispatch_error", "_0"} {
		if fv, ok := v.Fields[name]; ok {
			return fv, true
		}
	}
	for _, fv := range v.Fields {
		return fv, true
	}
	return scale.Value{}, false
}

// resolveDispatchError decodes a generic sp_runtime::DispatchError value.
// Only the Module arm is resolved against pallet metadata for a
// human-readable error name; every other arm gets its bare variant
// name (they carry no pallet-specific detail to look up). No docstring is
// attached: the metadata decoder does not keep error docs.
func resolveDispatchError(md *metadata.Metadata, v scale.Value) (*errs.DispatchError, error) {
	if v.Kind != scale.KindVariant {
		return &errs.DispatchError{Name: "Unknown"}, nil
	}
	if v.VariantName != "Module" {
		return &errs.DispatchError{Name: v.VariantName}, nil
	}

	moduleErr, ok := firstVariantField(v)
	if !ok {
		return &errs.DispatchError{Name: "Module"}, nil
	}
	palletIdx, errIdx, ok := moduleErrorIndices(moduleErr)
	if !ok {
		return &errs.DispatchError{Name: "Module"}, nil
	}

	pallet, ok := md.PalletByIndex(palletIdx)
	if !ok {
		return &errs.DispatchError{Pallet: fmt.Sprintf("pallet#%d", palletIdx), Name: fmt.Sprintf("error#%d", errIdx)}, nil
	}
	errEntry, ok := pallet.Errors[errIdx]
	if !ok {
		return &errs.DispatchError{Pallet: pallet.Name, Name: fmt.Sprintf("error#%d", errIdx)}, nil
	}
	return &errs.DispatchError{Pallet: pallet.Name, Name: errEntry.Name}, nil
}

// moduleErrorIndices extracts {index, error} from a ModuleError composite,
// where `error` is encoded as a 4-byte array whose first byte is the error
// variant's discriminant.
func moduleErrorIndices(v scale.Value) (uint8, uint8, bool) {
	if v.Kind != scale.KindComposite {
		return 0, 0, false
	}
	idxField, ok := v.Fields["index"]
	if !ok {
		return 0, 0, false
	}
	idxN, err := idxField.AsUint64()
	if err != nil {
		return 0, 0, false
	}
	errField, ok := v.Fields["error"]
	if !ok {
		return 0, 0, false
	}
	if len(errField.Bytes) == 0 && len(errField.Seq) == 0 {
		return 0, 0, false
	}
	var errByte uint8
	if len(errField.Bytes) > 0 {
		errByte = errField.Bytes[0]
	} else {
		n, err := errField.Seq[0].AsUint64()
		if err != nil {
			return 0, 0, false
		}
		errByte = uint8(n)
	}
	return uint8(idxN), errByte, true
}
