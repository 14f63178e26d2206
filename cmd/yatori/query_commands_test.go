package main

import (
	"bytes"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brojonat/yatori/service/config"
	"github.com/brojonat/yatori/service/server"
	"github.com/brojonat/yatori/service/solana"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestGateway serves the real gateway handler over a mock RPC node.
func newTestGateway(t *testing.T) (*httptest.Server, *solana.MockRPCClient) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mock := solana.NewMockRPCClient()

	networks, err := solana.NewNetworks(solana.NetworkMainnet, map[string]*solana.Client{
		solana.NetworkMainnet: solana.NewClient(mock, solana.NetworkMainnet, solana.Options{}, nil, logger),
	})
	require.NoError(t, err)

	cfg := &config.Config{RPCTimeout: time.Second}
	srv := httptest.NewServer(server.New(cfg, networks, nil, nil, logger).Handler())
	t.Cleanup(srv.Close)

	return srv, mock
}

// runCLI runs the app against serverURL and returns what it printed.
func runCLI(t *testing.T, serverURL string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard

	argv := append([]string{"yatori", "--server-url", serverURL}, args...)
	err := app.Run(argv)
	return out.String(), err
}

func TestBalanceCommand(t *testing.T) {
	srv, mock := newTestGateway(t)
	owner := solanago.NewWallet().PublicKey()
	mock.Balances[owner.String()] = 1_500_000_000

	out, err := runCLI(t, srv.URL, "balance", "--commitment", "confirmed", owner.String())
	require.NoError(t, err)

	assert.Contains(t, out, "Commitment:  confirmed")
	assert.Contains(t, out, "Balance:     1.5 SOL (1500000000 lamports)")

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, rpc.CommitmentConfirmed, calls[0].Commitment)
}

func TestBalanceCommand_JQ(t *testing.T) {
	srv, mock := newTestGateway(t)
	owner := solanago.NewWallet().PublicKey()
	mock.Balances[owner.String()] = 2_039_280

	out, err := runCLI(t, srv.URL, "--jq", ".sol", "balance", owner.String())
	require.NoError(t, err)
	assert.Equal(t, "\"0.00203928\"\n", out)
}

func TestBalanceCommand_JSON(t *testing.T) {
	srv, mock := newTestGateway(t)
	owner := solanago.NewWallet().PublicKey()
	mock.Balances[owner.String()] = 0

	out, err := runCLI(t, srv.URL, "--json", "balance", owner.String())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"address": "`+owner.String()+`",
		"commitment": "finalized",
		"lamports": 0,
		"sol": "0"
	}`, out)
}

func TestBalanceCommand_InvalidCommitment(t *testing.T) {
	srv, mock := newTestGateway(t)

	_, err := runCLI(t, srv.URL, "balance", "--commitment", "eventual", solanago.NewWallet().PublicKey().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid commitment")
	assert.Equal(t, 0, mock.CallCount())
}

func TestBalanceCommand_GatewayError(t *testing.T) {
	srv, mock := newTestGateway(t)

	_, err := runCLI(t, srv.URL, "balance", "not-an-address")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid wallet address")
	assert.Equal(t, 0, mock.CallCount())
}

func TestBalanceCommand_MissingArgument(t *testing.T) {
	srv, _ := newTestGateway(t)

	_, err := runCLI(t, srv.URL, "balance")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address is required")
}

func TestTokenBalanceCommand(t *testing.T) {
	srv, mock := newTestGateway(t)
	owner := solanago.NewWallet().PublicKey()
	ata, err := solana.DeriveAssociatedTokenAccount(owner, solana.USDCMainnetMint)
	require.NoError(t, err)
	mock.TokenBalances[ata.String()] = &rpc.UiTokenAmount{
		Amount:         "2500000",
		Decimals:       6,
		UiAmountString: "2.5",
	}

	out, err := runCLI(t, srv.URL, "token-balance", owner.String(), solana.USDCMainnetMint.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Balance:     2.5 (2500000 base units, 6 decimals)")
}

func TestActivatedCommand(t *testing.T) {
	tests := []struct {
		name    string
		balance uint64
		want    string
	}{
		{name: "at rent exempt minimum", balance: solana.RentExemptMinimum, want: "true\n"},
		{name: "below rent exempt minimum", balance: solana.RentExemptMinimum - 1, want: "false\n"},
		{name: "no account", balance: 0, want: "false\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, mock := newTestGateway(t)
			owner := solanago.NewWallet().PublicKey()
			ata, err := solana.DeriveAssociatedTokenAccount(owner, solana.USDCMainnetMint)
			require.NoError(t, err)
			mock.Balances[ata.String()] = tt.balance

			out, err := runCLI(t, srv.URL, "--jq", ".isActivated", "activated", owner.String())
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestTransactionCommand(t *testing.T) {
	srv, mock := newTestGateway(t)
	sig := solanago.Signature{7}
	mock.Transactions[sig.String()] = []byte(`{"slot":99,"meta":{"fee":5000}}`)

	out, err := runCLI(t, srv.URL, "--jq", ".meta.fee", "tx", sig.String())
	require.NoError(t, err)
	assert.Equal(t, "5000\n", out)
}

func TestTransactionCommand_NotFound(t *testing.T) {
	srv, _ := newTestGateway(t)

	_, err := runCLI(t, srv.URL, "tx", solanago.Signature{8}.String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestSignaturesCommand(t *testing.T) {
	memo := func(s string) *string { return &s }

	t.Run("all", func(t *testing.T) {
		srv, mock := newTestGateway(t)
		mock.Signatures = []*rpc.TransactionSignature{
			{Signature: solanago.Signature{1}, Slot: 30, Memo: memo("[3] arrow-api payment")},
			{Signature: solanago.Signature{2}, Slot: 20},
			{Signature: solanago.Signature{3}, Slot: 10, Memo: memo("[5] arrow-api refund")},
		}

		out, err := runCLI(t, srv.URL, "--jq", "map(.slot)", "signatures", solanago.NewWallet().PublicKey().String())
		require.NoError(t, err)
		assert.Equal(t, "[30,10]\n", out)

		calls := mock.Calls()
		require.Len(t, calls, 1)
		assert.Nil(t, calls[0].Limit)
	})

	t.Run("latest without memo", func(t *testing.T) {
		srv, mock := newTestGateway(t)
		mock.Signatures = []*rpc.TransactionSignature{
			{Signature: solanago.Signature{2}, Slot: 20},
			{Signature: solanago.Signature{3}, Slot: 10, Memo: memo("[5] arrow-api refund")},
		}

		out, err := runCLI(t, srv.URL, "signatures", "--latest", solanago.NewWallet().PublicKey().String())
		require.NoError(t, err)
		assert.Equal(t, "No signatures found.\n", out)

		calls := mock.Calls()
		require.Len(t, calls, 1)
		require.NotNil(t, calls[0].Limit)
		assert.Equal(t, 1, *calls[0].Limit)
	})
}

func TestBlockhashCommand(t *testing.T) {
	srv, mock := newTestGateway(t)
	mock.Blockhash = solanago.Hash{9}

	out, err := runCLI(t, srv.URL, "blockhash")
	require.NoError(t, err)
	assert.Equal(t, solanago.Hash{9}.String()+"\n", out)
}

func TestFeeCommand(t *testing.T) {
	srv, mock := newTestGateway(t)
	mock.PrioritizationFees = []rpc.PriorizationFeeResult{
		{Slot: 1, PrioritizationFee: 0},
		{Slot: 2, PrioritizationFee: 20},
		{Slot: 3, PrioritizationFee: 5},
		{Slot: 4, PrioritizationFee: 15},
		{Slot: 5, PrioritizationFee: 10},
	}

	out, err := runCLI(t, srv.URL, "--json", "fee")
	require.NoError(t, err)
	assert.JSONEq(t, `{"fee": 15, "cents": 0.00015}`, out)
}

func TestFeeCommand_NoSamples(t *testing.T) {
	srv, mock := newTestGateway(t)
	mock.PrioritizationFees = []rpc.PriorizationFeeResult{
		{Slot: 1, PrioritizationFee: 0},
	}

	_, err := runCLI(t, srv.URL, "fee")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No valid fees found")
}
