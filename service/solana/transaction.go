package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// MaxSupportedTransactionVersion lets versioned (v0) transactions through.
const MaxSupportedTransactionVersion uint64 = 0

// GetTransaction fetches a transaction at confirmed commitment with JSON
// encoding. The node's result is returned untouched.
func (c *Client) GetTransaction(ctx context.Context, signature solana.Signature) (json.RawMessage, error) {
	maxVersion := MaxSupportedTransactionVersion
	opts := &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingJSON,
		Commitment:                     CommitmentConfirmed.Resolve(),
		MaxSupportedTransactionVersion: &maxVersion,
	}

	var out json.RawMessage
	err := c.call(ctx, "GetTransaction", func(ctx context.Context) error {
		var err error
		out, err = c.rpc.GetTransaction(ctx, signature, opts)
		return err
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if isNullResult(out) {
		c.logger.DebugContext(ctx, "transaction not found",
			"signature", signature.String(),
			"network", c.network,
		)
		return nil, ErrNotFound
	}

	return out, nil
}

func isNullResult(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
