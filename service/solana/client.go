package solana

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/brojonat/yatori/service/metrics"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// DefaultTimeout bounds a single RPC call when Options.Timeout is unset.
const DefaultTimeout = 15 * time.Second

// RPCClient is an interface for the Solana RPC operations we need.
// This allows us to mock the RPC layer in tests without hitting real Solana nodes.
type RPCClient interface {
	GetBalance(
		ctx context.Context,
		account solana.PublicKey,
		commitment rpc.CommitmentType,
	) (*rpc.GetBalanceResult, error)

	GetTokenAccountBalance(
		ctx context.Context,
		account solana.PublicKey,
		commitment rpc.CommitmentType,
	) (*rpc.GetTokenAccountBalanceResult, error)

	GetLatestBlockhash(
		ctx context.Context,
		commitment rpc.CommitmentType,
	) (*rpc.GetLatestBlockhashResult, error)

	GetSignaturesForAddress(
		ctx context.Context,
		address solana.PublicKey,
		opts *rpc.GetSignaturesForAddressOpts,
	) ([]*rpc.TransactionSignature, error)

	GetRecentPrioritizationFees(
		ctx context.Context,
		accounts solana.PublicKeySlice,
	) ([]rpc.PriorizationFeeResult, error)

	// GetTransaction returns the raw JSON result of getTransaction
	// ("null" when the node does not know the signature).
	GetTransaction(
		ctx context.Context,
		signature solana.Signature,
		opts *rpc.GetTransactionOpts,
	) (json.RawMessage, error)
}

// Options tunes a Client. Zero values fall back to defaults.
type Options struct {
	// Timeout bounds each RPC call.
	Timeout time.Duration

	// MemoMarker is the substring that identifies our own traffic in memos.
	MemoMarker string

	// FeeReferenceMint is the third account of the fee watch list.
	FeeReferenceMint solana.PublicKey
}

// Client exposes the gateway's query operations against one Solana network.
// It holds no per-request state and is safe for concurrent use.
type Client struct {
	rpc          RPCClient
	network      string
	timeout      time.Duration
	memoMarker   string
	feeWatchList solana.PublicKeySlice
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// NewClient creates a new Solana client.
// The network parameter is used for metrics labeling (e.g., "mainnet-beta", "devnet").
// If metrics is nil, no metrics will be recorded.
func NewClient(rpcClient RPCClient, network string, opts Options, m *metrics.Metrics, logger *slog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MemoMarker == "" {
		opts.MemoMarker = DefaultMemoMarker
	}
	if opts.FeeReferenceMint.IsZero() {
		opts.FeeReferenceMint = USDCMainnetMint
	}

	return &Client{
		rpc:          rpcClient,
		network:      network,
		timeout:      opts.Timeout,
		memoMarker:   opts.MemoMarker,
		feeWatchList: FeeWatchList(opts.FeeReferenceMint),
		metrics:      m,
		logger:       logger,
	}
}

// Network returns the network this client queries.
func (c *Client) Network() string {
	return c.network
}

// call runs one RPC method under the client timeout, records its duration and
// outcome, and wraps any failure in a RemoteQueryError. Nothing is retried.
func (c *Client) call(ctx context.Context, method string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
		c.logger.ErrorContext(ctx, "rpc call failed",
			"method", method,
			"network", c.network,
			"error", err,
		)
	}
	if c.metrics != nil {
		c.metrics.RecordRPCCall(method, status, c.network, duration)
	}

	if err != nil {
		return &RemoteQueryError{Method: method, Err: err}
	}
	return nil
}

// GetLatestBlockhash returns the most recent finalized blockhash.
func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	var out *rpc.GetLatestBlockhashResult
	err := c.call(ctx, "GetLatestBlockhash", func(ctx context.Context) error {
		var err error
		out, err = c.rpc.GetLatestBlockhash(ctx, CommitmentFinalized.Resolve())
		return err
	})
	if err != nil {
		return solana.Hash{}, err
	}
	if out == nil || out.Value == nil {
		return solana.Hash{}, &RemoteQueryError{Method: "GetLatestBlockhash", Err: errEmptyResult}
	}
	return out.Value.Blockhash, nil
}
