package solana

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// realRPCClient adapts the actual solana-go RPC client to our RPCClient interface.
// This adapter allows us to control the interface and makes testing easier.
type realRPCClient struct {
	client *rpc.Client
}

// NewRPCClient creates a new RPCClient that wraps the solana-go RPC client.
// If httpClient is nil the solana-go default HTTP client is used.
// For premium RPC endpoints that require API keys, include the key in the URL:
// - Helius: https://mainnet.helius-rpc.com/?api-key=YOUR-KEY
// - QuickNode: https://YOUR-ENDPOINT.quiknode.pro/YOUR-KEY/
func NewRPCClient(rpcURL string, httpClient *http.Client) RPCClient {
	if httpClient == nil {
		return &realRPCClient{client: rpc.New(rpcURL)}
	}
	rpcClient := jsonrpc.NewClientWithOpts(rpcURL, &jsonrpc.RPCClientOpts{
		HTTPClient: httpClient,
	})
	return &realRPCClient{client: rpc.NewWithCustomRPCClient(rpcClient)}
}

func (r *realRPCClient) GetBalance(
	ctx context.Context,
	account solana.PublicKey,
	commitment rpc.CommitmentType,
) (*rpc.GetBalanceResult, error) {
	return r.client.GetBalance(ctx, account, commitment)
}

func (r *realRPCClient) GetTokenAccountBalance(
	ctx context.Context,
	account solana.PublicKey,
	commitment rpc.CommitmentType,
) (*rpc.GetTokenAccountBalanceResult, error) {
	return r.client.GetTokenAccountBalance(ctx, account, commitment)
}

func (r *realRPCClient) GetLatestBlockhash(
	ctx context.Context,
	commitment rpc.CommitmentType,
) (*rpc.GetLatestBlockhashResult, error) {
	return r.client.GetLatestBlockhash(ctx, commitment)
}

func (r *realRPCClient) GetSignaturesForAddress(
	ctx context.Context,
	address solana.PublicKey,
	opts *rpc.GetSignaturesForAddressOpts,
) ([]*rpc.TransactionSignature, error) {
	return r.client.GetSignaturesForAddressWithOpts(ctx, address, opts)
}

func (r *realRPCClient) GetRecentPrioritizationFees(
	ctx context.Context,
	accounts solana.PublicKeySlice,
) ([]rpc.PriorizationFeeResult, error) {
	return r.client.GetRecentPrioritizationFees(ctx, accounts)
}

// GetTransaction issues getTransaction as a raw call so the node's response
// reaches the caller byte for byte instead of being decoded and re-encoded.
func (r *realRPCClient) GetTransaction(
	ctx context.Context,
	signature solana.Signature,
	opts *rpc.GetTransactionOpts,
) (json.RawMessage, error) {
	params := []interface{}{signature.String()}
	if opts != nil {
		cfg := map[string]interface{}{}
		if opts.Encoding != "" {
			cfg["encoding"] = opts.Encoding
		}
		if opts.Commitment != "" {
			cfg["commitment"] = opts.Commitment
		}
		if opts.MaxSupportedTransactionVersion != nil {
			cfg["maxSupportedTransactionVersion"] = *opts.MaxSupportedTransactionVersion
		}
		if len(cfg) > 0 {
			params = append(params, cfg)
		}
	}

	var out json.RawMessage
	if err := r.client.RPCCallForInto(ctx, &out, "getTransaction", params); err != nil {
		return nil, err
	}
	return out, nil
}
