package solana

import (
	"context"
	"log/slog"
	"math/big"
	"slices"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
)

const (
	// FeePercentile is the percentile of non-zero recent fees we recommend.
	FeePercentile = 50

	// FeeCostScale converts a micro-lamport fee into display units.
	FeeCostScale = 100_000
)

// FeeRecommendation is a priority fee suggestion derived from recent fees.
type FeeRecommendation struct {
	Fee     uint64  `json:"fee"`   // micro-lamports per compute unit
	Cost    float64 `json:"cents"` // Fee / FeeCostScale
	Samples int     `json:"-"`     // non-zero samples considered
}

// FeeWatchList is the set of accounts whose recent prioritization fees are
// sampled: the token program, the memo program, and a busy reference mint.
func FeeWatchList(referenceMint solana.PublicKey) solana.PublicKeySlice {
	return solana.PublicKeySlice{
		TokenProgramID,
		MemoProgramID,
		referenceMint,
	}
}

// RecommendFromSamples drops zero fees, sorts the rest ascending and picks
// the value at index n*FeePercentile/100 (integer division).
func RecommendFromSamples(samples []uint64) (*FeeRecommendation, error) {
	fees := make([]uint64, 0, len(samples))
	for _, fee := range samples {
		if fee > 0 {
			fees = append(fees, fee)
		}
	}
	if len(fees) == 0 {
		return nil, ErrNoSamples
	}
	slices.Sort(fees)

	fee := fees[len(fees)*FeePercentile/100]
	return &FeeRecommendation{
		Fee:     fee,
		Cost:    NormalizeFee(fee),
		Samples: len(fees),
	}, nil
}

// NormalizeFee scales a fee down by FeeCostScale.
func NormalizeFee(fee uint64) float64 {
	cost, _ := decimal.NewFromBigInt(new(big.Int).SetUint64(fee), 0).
		Div(decimal.NewFromInt(FeeCostScale)).
		Float64()
	return cost
}

// RecommendFee samples recent prioritization fees for the watch list and
// returns the recommendation. RPC failures and empty samples are reported as
// errors; the fee is never defaulted to zero.
func (c *Client) RecommendFee(ctx context.Context) (*FeeRecommendation, error) {
	var out []rpc.PriorizationFeeResult
	err := c.call(ctx, "GetRecentPrioritizationFees", func(ctx context.Context) error {
		var err error
		out, err = c.rpc.GetRecentPrioritizationFees(ctx, c.feeWatchList)
		return err
	})
	if err != nil {
		return nil, err
	}

	samples := make([]uint64, len(out))
	for i, f := range out {
		samples[i] = f.PrioritizationFee
	}

	rec, err := RecommendFromSamples(samples)
	if err != nil {
		c.logger.WarnContext(ctx, "no usable prioritization fees",
			"network", c.network,
			"samples", len(samples),
		)
		return nil, err
	}

	if c.logger.Enabled(ctx, slog.LevelDebug) {
		scaled := make([]uint64, 0, len(samples))
		for _, fee := range samples {
			if fee > 0 {
				scaled = append(scaled, fee/FeeCostScale)
			}
		}
		slices.Sort(scaled)
		c.logger.DebugContext(ctx, "recent prioritization fees",
			"network", c.network,
			"scaled_fees", scaled,
		)
	}

	if c.metrics != nil {
		c.metrics.RecordFeeRecommendation(c.network, rec.Fee, rec.Samples)
	}

	return rec, nil
}
