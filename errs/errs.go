// Package errs defines the error taxonomy shared by every layer of the
// chain client (transport, metadata, codec, storage, extrinsics, weights).
// Callers use errors.Is/errors.As against the sentinel and typed values
// below rather than matching on message text.
package errs

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel transport errors.
var (
	ErrConnectionRefused = errors.New("connection refused")
	ErrTLSHandshake      = errors.New("tls handshake failed")
	ErrConnectionClosed  = errors.New("connection closed")
	ErrReconnected       = errors.New("transport reconnected, retry the request")
	ErrAmbiguousBlockRef = errors.New("at most one of block, block_hash, reuse_block may be set")
	ErrSigningFailed     = errors.New("signing failed")
	ErrTooSoonToSetWeights = errors.New("too soon to set weights: rate limit not elapsed")
	ErrMissingParam      = errors.New("missing named runtime API parameter")
)

// Timeout reports that an RPC's soft deadline elapsed before a response
// arrived.
type Timeout struct {
	Deadline time.Duration
}

func (e *Timeout) Error() string { return fmt.Sprintf("rpc timeout after %s", e.Deadline) }

// RPCError mirrors a JSON-RPC error object returned by the node.
type RPCError struct {
	Code    int
	Message string
	Data    any
}

func (e *RPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("rpc error %d: %s (%v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Decode reports a SCALE/metadata decode failure. It is fatal only for the
// call that triggered it.
type Decode struct {
	Context string
	Err     error
}

func (e *Decode) Error() string { return fmt.Sprintf("decode %s: %v", e.Context, e.Err) }
func (e *Decode) Unwrap() error { return e.Err }

// NewDecode wraps err as a Decode error with the given context label.
func NewDecode(context string, err error) error {
	if err == nil {
		return nil
	}
	return &Decode{Context: context, Err: err}
}

// SubnetNotFound indicates an operation against a netuid that does not
// exist. Read paths return (zero-value, nil) rather than this error; only
// write paths surface it as a failure. It is exported so write paths can
// wrap it.
type SubnetNotFound struct {
	Netuid uint16
}

func (e *SubnetNotFound) Error() string { return fmt.Sprintf("subnet %d not found", e.Netuid) }

// DispatchError is the decoded form of a System.ExtrinsicFailed event,
// resolved against the pallet/error metadata.
type DispatchError struct {
	Pallet string
	Name   string
	Docs   string
}

func (e *DispatchError) Error() string {
	if e.Docs != "" {
		return fmt.Sprintf("%s.%s: %s", e.Pallet, e.Name, e.Docs)
	}
	return fmt.Sprintf("%s.%s", e.Pallet, e.Name)
}

// StakeError, NotRegistered and InsufficientBalance are specializations of
// DispatchError used by the stake/transfer extrinsic paths.
type StakeError struct{ *DispatchError }

type NotRegistered struct {
	Hotkey string
	Netuid uint16
}

func (e *NotRegistered) Error() string {
	return fmt.Sprintf("hotkey %s not registered on subnet %d", e.Hotkey, e.Netuid)
}

type InsufficientBalance struct {
	Have, Need uint64
}

func (e *InsufficientBalance) Error() string {
	return fmt.Sprintf("insufficient balance: have %d rao, need %d rao", e.Have, e.Need)
}
