package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// NetworkError is a transport or service failure talking to the RPC node.
type NetworkError struct {
	Op  string // RPC method
	Err error
	// RPC is true when the node answered with a JSON-RPC error object
	// instead of failing at the transport level.
	RPC bool
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("rpc %s failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Temporary reports whether the call may succeed if simply repeated.
// Failures caused by the caller's deadline or cancellation are not.
func (e *NetworkError) Temporary() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) || errors.Is(e.Err, context.Canceled) {
		return false
	}
	return !e.RPC
}

// RejectedError is returned when the node refuses a transaction,
// e.g. preflight simulation failed because of insufficient funds.
type RejectedError struct {
	Code   int
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("transaction rejected (code %d): %s", e.Code, e.Reason)
}

// wrapRPCError classifies an error from the rpc client.
func wrapRPCError(op string, err error) error {
	if err == nil {
		return nil
	}
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return &NetworkError{Op: op, Err: err, RPC: true}
	}
	return &NetworkError{Op: op, Err: err}
}

// wrapSendError maps node-side refusals of a broadcast to RejectedError.
func wrapSendError(err error) error {
	if err == nil {
		return nil
	}
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return &RejectedError{Code: rpcErr.Code, Reason: rpcErr.Message}
	}
	return &NetworkError{Op: "sendTransaction", Err: err}
}
