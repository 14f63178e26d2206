package solana

import (
	"context"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// DefaultMemoMarker tags memos written by our own applications.
const DefaultMemoMarker = "arrow-api"

// FilterByMemo keeps the entries whose memo is present and contains marker.
// Order is preserved.
func FilterByMemo(sigs []*rpc.TransactionSignature, marker string) []*rpc.TransactionSignature {
	out := make([]*rpc.TransactionSignature, 0, len(sigs))
	for _, sig := range sigs {
		if sig == nil || sig.Memo == nil {
			continue
		}
		if strings.Contains(*sig.Memo, marker) {
			out = append(out, sig)
		}
	}
	return out
}

// ListSignatures returns the signature history of address at confirmed
// commitment, newest first as the node returns it, keeping only entries with
// our memo marker. A nil limit lets the node apply its default page size; the
// memo filter runs after the limit, so limit=1 yields zero or one entry.
func (c *Client) ListSignatures(ctx context.Context, address solana.PublicKey, limit *int) ([]*rpc.TransactionSignature, error) {
	opts := &rpc.GetSignaturesForAddressOpts{
		Limit:      limit,
		Commitment: CommitmentConfirmed.Resolve(),
	}

	var sigs []*rpc.TransactionSignature
	err := c.call(ctx, "GetSignaturesForAddress", func(ctx context.Context) error {
		var err error
		sigs, err = c.rpc.GetSignaturesForAddress(ctx, address, opts)
		return err
	})
	if err != nil {
		return nil, err
	}

	filtered := FilterByMemo(sigs, c.memoMarker)

	c.logger.DebugContext(ctx, "fetched signature history",
		"address", address.String(),
		"network", c.network,
		"fetched", len(sigs),
		"kept", len(filtered),
	)
	if c.metrics != nil {
		c.metrics.RecordSignaturesFiltered(c.network, len(sigs), len(filtered))
	}

	return filtered, nil
}
