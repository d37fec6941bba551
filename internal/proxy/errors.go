package proxy

import (
	"errors"
	"fmt"
)

// Standard errors returned by the proxy.
var (
	// ErrShutdown indicates the transport has been shut down.
	ErrShutdown = errors.New("proxy transport shut down")

	// ErrStaleReply indicates a reply arrived after the state it was
	// issued against no longer exists. The reply carries no usable data.
	ErrStaleReply = errors.New("stale reply discarded")

	// ErrUnknownDocument indicates a wire identity that no session owns.
	ErrUnknownDocument = errors.New("unknown document identity")

	// ErrNoBackend indicates an operation that requires an attached
	// backend. Most proxy operations degrade to no-ops instead of
	// returning this; it is reserved for callers that asked explicitly.
	ErrNoBackend = errors.New("no backend attached")

	// ErrInvalidEdit indicates a backend edit that cannot be applied,
	// typically a range outside the target content.
	ErrInvalidEdit = errors.New("invalid text edit")
)

// RPCError represents a JSON-RPC error from the backend.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Standard JSON-RPC error codes.
const (
	CodeParseError       = -32700
	CodeInvalidRequest   = -32600
	CodeMethodNotFound   = -32601
	CodeInvalidParams    = -32602
	CodeInternalError    = -32603
	CodeRequestCancelled = -32800
	CodeContentModified  = -32801
)
