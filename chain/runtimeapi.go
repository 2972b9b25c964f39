package chain

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/opentensor/subtensor-go/errs"
	"github.com/opentensor/subtensor-go/scale"
)

// RuntimeAPIMethod describes one `state_call`-exposed Wasm runtime method,
// as loaded from the static runtime type registry.
type RuntimeAPIMethod struct {
	API    string
	Method string
	Params []RuntimeAPIParam
	Return scale.TypeID
}

type RuntimeAPIParam struct {
	Name string
	Type scale.TypeID
}

// RuntimeAPIRegistry maps "api_method" to its declared signature.
type RuntimeAPIRegistry struct {
	methods map[string]RuntimeAPIMethod
}

// NewRuntimeAPIRegistry builds a registry from a flat method list.
func NewRuntimeAPIRegistry(methods []RuntimeAPIMethod) *RuntimeAPIRegistry {
	r := &RuntimeAPIRegistry{methods: make(map[string]RuntimeAPIMethod, len(methods))}
	for _, m := range methods {
		r.methods[m.API+"_"+m.Method] = m
	}
	return r
}

func (r *RuntimeAPIRegistry) lookup(api, method string) (RuntimeAPIMethod, bool) {
	m, ok := r.methods[api+"_"+method]
	return m, ok
}

// RuntimeAPIParams is either a positional sequence (Seq) or a by-name
// mapping (Named) of call arguments.
type RuntimeAPIParams struct {
	Seq   []scale.Value
	Named map[string]scale.Value
}

// CallRuntimeAPI encodes params per the declared signature of api.method,
// issues state_call, and decodes the result per the declared return type.
// The wire sentinel 0x0400 (SCALE `Option::None` applied to an
// already-compact-prefixed value, as several runtime APIs return) is
// interpreted as "no value".
func (e *Engine) CallRuntimeAPI(ctx context.Context, reg *RuntimeAPIRegistry, api, method string, params RuntimeAPIParams, ref BlockReference) (*scale.Value, error) {
	md, err := e.Metadata.Get(ctx)
	if err != nil {
		return nil, err
	}
	sig, ok := reg.lookup(api, method)
	if !ok {
		return nil, fmt.Errorf("chain: unknown runtime API %s_%s", api, method)
	}

	enc := scale.NewEncoder()
	for _, p := range sig.Params {
		var v scale.Value
		if params.Named != nil {
			named, ok := params.Named[p.Name]
			if !ok {
				return nil, fmt.Errorf("%w: %s", errs.ErrMissingParam, p.Name)
			}
			v = named
		} else {
			idx := indexOfParam(sig.Params, p.Name)
			if idx < 0 || idx >= len(params.Seq) {
				return nil, fmt.Errorf("%w: %s", errs.ErrMissingParam, p.Name)
			}
			v = params.Seq[idx]
		}
		b, err := scale.Encode(md.Registry, p.Type, v)
		if err != nil {
			return nil, errs.NewDecode(fmt.Sprintf("%s_%s param %s", api, method, p.Name), err)
		}
		enc.Write(b)
	}

	at, err := e.resolveAt(ctx, ref)
	if err != nil {
		return nil, err
	}
	callParams := []interface{}{api + "_" + method, hexParam(enc.Bytes())}
	if at != nil {
		callParams = append(callParams, hexParam(at[:]))
	}

	raw, err := e.RPC.Call(ctx, "state_call", callParams)
	if err != nil {
		return nil, err
	}
	var hexResult string
	if err := json.Unmarshal(raw, &hexResult); err != nil {
		return nil, errs.NewDecode("state_call", err)
	}
	if hexResult == "0x0400" {
		return nil, nil
	}
	resultBytes, err := hex.DecodeString(strings.TrimPrefix(hexResult, "0x"))
	if err != nil {
		return nil, errs.NewDecode("state_call", err)
	}
	v, _, err := scale.Decode(md.Registry, sig.Return, resultBytes)
	if err != nil {
		return nil, errs.NewDecode(fmt.Sprintf("%s_%s result", api, method), err)
	}
	return &v, nil
}

func indexOfParam(params []RuntimeAPIParam, name string) int {
	for i, p := range params {
		if p.Name == name {
			return i
		}
	}
	return -1
}
