package solana

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// MockRPCCall records one call made against a MockRPCClient.
type MockRPCCall struct {
	Method     string
	Account    string
	Commitment rpc.CommitmentType
	Limit      *int
	Encoding   solana.EncodingType
	MaxVersion *uint64
	Accounts   solana.PublicKeySlice
}

// MockRPCClient is an in-memory RPCClient for tests. It is behavior-focused:
// set what it should return, then inspect Calls only where the request shape
// matters (commitment, limit, watch list).
type MockRPCClient struct {
	mu sync.Mutex

	// Balances maps an account address to its lamport balance. Unknown
	// accounts have a balance of zero, as on chain.
	Balances map[string]uint64

	// TokenBalances maps a token account address to its balance. Unknown
	// token accounts produce the node's "could not find account" error.
	TokenBalances map[string]*rpc.UiTokenAmount

	Blockhash solana.Hash

	// Transactions maps a signature to its raw getTransaction result.
	// Unknown signatures produce a null result.
	Transactions map[string]json.RawMessage

	Signatures         []*rpc.TransactionSignature
	PrioritizationFees []rpc.PriorizationFeeResult

	// Err, when set, is returned from every method.
	Err error

	calls []MockRPCCall
}

// NewMockRPCClient returns an empty mock.
func NewMockRPCClient() *MockRPCClient {
	return &MockRPCClient{
		Balances:      make(map[string]uint64),
		TokenBalances: make(map[string]*rpc.UiTokenAmount),
		Transactions:  make(map[string]json.RawMessage),
	}
}

func (m *MockRPCClient) record(call MockRPCCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

// Calls returns a copy of every call made so far.
func (m *MockRPCClient) Calls() []MockRPCCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockRPCCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of calls made so far.
func (m *MockRPCClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *MockRPCClient) GetBalance(
	ctx context.Context,
	account solana.PublicKey,
	commitment rpc.CommitmentType,
) (*rpc.GetBalanceResult, error) {
	m.record(MockRPCCall{Method: "GetBalance", Account: account.String(), Commitment: commitment})
	if m.Err != nil {
		return nil, m.Err
	}
	return &rpc.GetBalanceResult{Value: m.Balances[account.String()]}, nil
}

func (m *MockRPCClient) GetTokenAccountBalance(
	ctx context.Context,
	account solana.PublicKey,
	commitment rpc.CommitmentType,
) (*rpc.GetTokenAccountBalanceResult, error) {
	m.record(MockRPCCall{Method: "GetTokenAccountBalance", Account: account.String(), Commitment: commitment})
	if m.Err != nil {
		return nil, m.Err
	}
	amount, ok := m.TokenBalances[account.String()]
	if !ok {
		return nil, &jsonrpc.RPCError{
			Code:    -32602,
			Message: "Invalid param: could not find account",
		}
	}
	return &rpc.GetTokenAccountBalanceResult{Value: amount}, nil
}

func (m *MockRPCClient) GetLatestBlockhash(
	ctx context.Context,
	commitment rpc.CommitmentType,
) (*rpc.GetLatestBlockhashResult, error) {
	m.record(MockRPCCall{Method: "GetLatestBlockhash", Commitment: commitment})
	if m.Err != nil {
		return nil, m.Err
	}
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{Blockhash: m.Blockhash},
	}, nil
}

func (m *MockRPCClient) GetSignaturesForAddress(
	ctx context.Context,
	address solana.PublicKey,
	opts *rpc.GetSignaturesForAddressOpts,
) ([]*rpc.TransactionSignature, error) {
	call := MockRPCCall{Method: "GetSignaturesForAddress", Account: address.String()}
	if opts != nil {
		call.Commitment = opts.Commitment
		call.Limit = opts.Limit
	}
	m.record(call)
	if m.Err != nil {
		return nil, m.Err
	}

	sigs := m.Signatures
	if opts != nil && opts.Limit != nil && *opts.Limit < len(sigs) {
		sigs = sigs[:*opts.Limit]
	}
	return sigs, nil
}

func (m *MockRPCClient) GetRecentPrioritizationFees(
	ctx context.Context,
	accounts solana.PublicKeySlice,
) ([]rpc.PriorizationFeeResult, error) {
	m.record(MockRPCCall{Method: "GetRecentPrioritizationFees", Accounts: accounts})
	if m.Err != nil {
		return nil, m.Err
	}
	return m.PrioritizationFees, nil
}

func (m *MockRPCClient) GetTransaction(
	ctx context.Context,
	signature solana.Signature,
	opts *rpc.GetTransactionOpts,
) (json.RawMessage, error) {
	call := MockRPCCall{Method: "GetTransaction", Account: signature.String()}
	if opts != nil {
		call.Commitment = opts.Commitment
		call.Encoding = opts.Encoding
		call.MaxVersion = opts.MaxSupportedTransactionVersion
	}
	m.record(call)
	if m.Err != nil {
		return nil, m.Err
	}
	raw, ok := m.Transactions[signature.String()]
	if !ok {
		return json.RawMessage("null"), nil
	}
	return raw, nil
}
