package solana

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAddress is returned when a string is not a base58 encoded 32 byte public key.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidSignature is returned when a string is not a base58 encoded 64 byte signature.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrNoSamples is returned when every recent prioritization fee was zero (or none were returned).
	ErrNoSamples = errors.New("no valid prioritization fees found")

	// ErrNotFound is returned when the RPC node has no record of the requested entity.
	ErrNotFound = errors.New("not found")

	// ErrUnknownNetwork is returned when a request names a network with no configured RPC endpoint.
	ErrUnknownNetwork = errors.New("unknown network")

	errEmptyResult = errors.New("empty result")
)

// RemoteQueryError wraps any failure of a call to the RPC node: transport,
// decoding, or an error reported by the node itself.
type RemoteQueryError struct {
	Method string
	Err    error
}

func (e *RemoteQueryError) Error() string {
	return fmt.Sprintf("rpc %s failed: %v", e.Method, e.Err)
}

func (e *RemoteQueryError) Unwrap() error {
	return e.Err
}

// IsRemoteQueryError reports whether err (or anything it wraps) is a RemoteQueryError.
func IsRemoteQueryError(err error) bool {
	var rqe *RemoteQueryError
	return errors.As(err, &rqe)
}
