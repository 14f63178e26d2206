package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envelopeServer answers every request with the given status and body and
// hands the decoded request body to check.
func envelopeServer(t *testing.T, status int, body string, check func(r *http.Request, payload map[string]string)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		if r.Method == http.MethodPost {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		}
		if check != nil {
			check(r, payload)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNativeBalance(t *testing.T) {
	server := envelopeServer(t, http.StatusOK, `{"data":1500000000,"status":"Successful solana balance request"}`,
		func(r *http.Request, payload map[string]string) {
			assert.Equal(t, "/sol-balance-finalized", r.URL.Path)
			assert.Equal(t, "wallet123", payload["address"])
			assert.Equal(t, "devnet", payload["network"])
		})

	client := NewClient(server.URL, nil, nil)
	lamports, err := client.NativeBalance(context.Background(), "devnet", "wallet123", "finalized")
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000_000), lamports)
}

func TestTokenBalance(t *testing.T) {
	server := envelopeServer(t, http.StatusOK, `{"data":{"baseAmount":"12500000","displayAmount":"12.5","decimals":6},"status":"Successful balance request"}`,
		func(r *http.Request, payload map[string]string) {
			assert.Equal(t, "/token-balance-processed", r.URL.Path)
			assert.Equal(t, "mint456", payload["token_mint_address"])
		})

	client := NewClient(server.URL, nil, nil)
	balance, err := client.TokenBalance(context.Background(), "", "wallet123", "mint456", "processed")
	require.NoError(t, err)
	assert.Equal(t, &TokenBalance{BaseAmount: "12500000", DisplayAmount: "12.5", Decimals: 6}, balance)
}

func TestIsActivated(t *testing.T) {
	server := envelopeServer(t, http.StatusOK, `{"data":{"balance":2039280,"isActivated":true},"status":"Token account activation query successful"}`,
		func(r *http.Request, payload map[string]string) {
			assert.Equal(t, "/is-usdc-acct-activated", r.URL.Path)
			assert.Equal(t, "mint456", payload["mint_address"])
		})

	client := NewClient(server.URL, nil, nil)
	activation, err := client.IsActivated(context.Background(), "", "wallet123", "mint456")
	require.NoError(t, err)
	assert.Equal(t, &Activation{Balance: 2_039_280, Activated: true}, activation)
}

func TestTransaction(t *testing.T) {
	server := envelopeServer(t, http.StatusOK, `{"data":{"slot":7,"meta":{"fee":5000}},"status":"Successful transaction confirmed"}`,
		func(r *http.Request, payload map[string]string) {
			assert.Equal(t, "/get-transaction-confirmed", r.URL.Path)
			assert.Equal(t, "sig789", payload["transaction"])
		})

	client := NewClient(server.URL, nil, nil)
	tx, err := client.Transaction(context.Background(), "", "sig789")
	require.NoError(t, err)
	assert.JSONEq(t, `{"slot":7,"meta":{"fee":5000}}`, string(tx))
}

func TestSignatures(t *testing.T) {
	server := envelopeServer(t, http.StatusOK, `{"data":[{"signature":"abc","slot":10,"err":null,"memo":"[9] arrow-api","blockTime":1700000000,"confirmationStatus":"confirmed"}],"status":"ok"}`,
		func(r *http.Request, payload map[string]string) {
			assert.Equal(t, "/get-arrow-acc-sigs", r.URL.Path)
		})

	client := NewClient(server.URL, nil, nil)
	sigs, err := client.Signatures(context.Background(), "", "wallet123")
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Equal(t, "abc", sigs[0].Signature)
	assert.Equal(t, uint64(10), sigs[0].Slot)
	require.NotNil(t, sigs[0].Memo)
	assert.Equal(t, "[9] arrow-api", *sigs[0].Memo)
	assert.Equal(t, "confirmed", sigs[0].ConfirmationStatus)
}

func TestLatestSignature_Empty(t *testing.T) {
	server := envelopeServer(t, http.StatusOK, `{"data":[],"status":"ok"}`,
		func(r *http.Request, payload map[string]string) {
			assert.Equal(t, "/get-latest-sig", r.URL.Path)
		})

	client := NewClient(server.URL, nil, nil)
	sigs, err := client.LatestSignature(context.Background(), "", "wallet123")
	require.NoError(t, err)
	assert.NotNil(t, sigs)
	assert.Empty(t, sigs)
}

func TestRecommendedFee(t *testing.T) {
	server := envelopeServer(t, http.StatusOK, `{"data":{"fee":15,"cents":0.00015},"status":"ok"}`,
		func(r *http.Request, payload map[string]string) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/get-rec-fee", r.URL.Path)
			assert.Equal(t, "devnet", r.URL.Query().Get("network"))
		})

	client := NewClient(server.URL, nil, nil)
	rec, err := client.RecommendedFee(context.Background(), "devnet")
	require.NoError(t, err)
	assert.Equal(t, &FeeRecommendation{Fee: 15, Cost: 0.00015}, rec)
}

func TestBlockhash(t *testing.T) {
	server := envelopeServer(t, http.StatusOK, `{"data":"GHtXQBsoZHVnNFa9YevAzFr17DJjgHXk3ycTKD5xD3Zi","status":"Successful blockhash"}`, nil)

	client := NewClient(server.URL, nil, nil)
	hash, err := client.Blockhash(context.Background(), "mainnet-beta")
	require.NoError(t, err)
	assert.Equal(t, "GHtXQBsoZHVnNFa9YevAzFr17DJjgHXk3ycTKD5xD3Zi", hash)
}

func TestFailureEnvelope(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"mapped status", http.StatusBadRequest},
		{"always ok", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := envelopeServer(t, tt.status, `{"error":"Invalid wallet address"}`, nil)

			client := NewClient(server.URL, nil, nil)
			_, err := client.NativeBalance(context.Background(), "", "bad", "confirmed")
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "Invalid wallet address", apiErr.Message)
		})
	}
}

func TestNonEnvelopeResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	_, err := client.RecommendedFee(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestPingAndHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Write([]byte("Yatori"))
		case "/health":
			w.Write([]byte("OK"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)

	text, err := client.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Yatori", text)

	assert.NoError(t, client.Health(context.Background()))
}
