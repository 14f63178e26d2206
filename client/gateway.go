package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// TokenBalance is the balance of an associated token account.
type TokenBalance struct {
	BaseAmount    string `json:"baseAmount"`
	DisplayAmount string `json:"displayAmount"`
	Decimals      uint8  `json:"decimals"`
}

// Activation reports whether an associated token account is rent exempt.
type Activation struct {
	Balance   uint64 `json:"balance"`
	Activated bool   `json:"isActivated"`
}

// FeeRecommendation is a priority fee suggestion.
type FeeRecommendation struct {
	Fee  uint64  `json:"fee"`   // micro-lamports per compute unit
	Cost float64 `json:"cents"` // fee scaled for display
}

// SignatureEntry is one entry of an address's signature history.
type SignatureEntry struct {
	Signature          string          `json:"signature"`
	Slot               uint64          `json:"slot"`
	Err                json.RawMessage `json:"err,omitempty"`
	Memo               *string         `json:"memo,omitempty"`
	BlockTime          *int64          `json:"blockTime,omitempty"`
	ConfirmationStatus string          `json:"confirmationStatus,omitempty"`
}

// APIError is a failure envelope returned by the gateway.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed (status %d): %s", e.StatusCode, e.Message)
}

// envelope is the wire shape of every gateway query response.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Status string          `json:"status"`
	Error  string          `json:"error"`
}

// Client is the HTTP client for the yatori gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new gateway client.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Ping calls the liveness root and returns its text.
func (c *Client) Ping(ctx context.Context) (string, error) {
	body, err := c.plain(ctx, "/")
	if err != nil {
		return "", err
	}
	return body, nil
}

// Health calls the health endpoint.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.plain(ctx, "/health")
	return err
}

// Blockhash returns the latest finalized blockhash of network.
func (c *Client) Blockhash(ctx context.Context, network string) (string, error) {
	var hash string
	err := c.post(ctx, "/blockhash", map[string]string{"network": network}, &hash)
	return hash, err
}

// NativeBalance returns the lamport balance of address at commitment.
func (c *Client) NativeBalance(ctx context.Context, network, address, commitment string) (uint64, error) {
	var lamports uint64
	err := c.post(ctx, "/sol-balance-"+commitment, map[string]string{
		"network": network,
		"address": address,
	}, &lamports)
	return lamports, err
}

// TokenBalance returns the balance of owner's associated token account for mint.
func (c *Client) TokenBalance(ctx context.Context, network, owner, mint, commitment string) (*TokenBalance, error) {
	var balance TokenBalance
	err := c.post(ctx, "/token-balance-"+commitment, map[string]string{
		"network":            network,
		"address":            owner,
		"token_mint_address": mint,
	}, &balance)
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

// IsActivated checks whether owner's associated token account for mint is rent exempt.
func (c *Client) IsActivated(ctx context.Context, network, owner, mint string) (*Activation, error) {
	var activation Activation
	err := c.post(ctx, "/is-usdc-acct-activated", map[string]string{
		"network":      network,
		"address":      owner,
		"mint_address": mint,
	}, &activation)
	if err != nil {
		return nil, err
	}
	return &activation, nil
}

// Transaction returns a transaction as reported by the node.
func (c *Client) Transaction(ctx context.Context, network, signature string) (json.RawMessage, error) {
	var tx json.RawMessage
	err := c.post(ctx, "/get-transaction-confirmed", map[string]string{
		"network":     network,
		"transaction": signature,
	}, &tx)
	return tx, err
}

// Signatures returns the memo-tagged signature history of address.
func (c *Client) Signatures(ctx context.Context, network, address string) ([]SignatureEntry, error) {
	return c.signatures(ctx, "/get-arrow-acc-sigs", network, address)
}

// LatestSignature returns the newest signature of address if it carries the
// memo tag, or an empty slice otherwise.
func (c *Client) LatestSignature(ctx context.Context, network, address string) ([]SignatureEntry, error) {
	return c.signatures(ctx, "/get-latest-sig", network, address)
}

func (c *Client) signatures(ctx context.Context, path, network, address string) ([]SignatureEntry, error) {
	sigs := []SignatureEntry{}
	err := c.post(ctx, path, map[string]string{
		"network": network,
		"address": address,
	}, &sigs)
	if err != nil {
		return nil, err
	}
	return sigs, nil
}

// RecommendedFee returns the current priority fee recommendation of network.
func (c *Client) RecommendedFee(ctx context.Context, network string) (*FeeRecommendation, error) {
	path := "/get-rec-fee"
	if network != "" {
		path += "?" + url.Values{"network": {network}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var rec FeeRecommendation
	if err := c.do(req, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// post sends payload as JSON to path and decodes the envelope data into out.
func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

// do executes req and unwraps the envelope. A failure envelope becomes an
// *APIError even when the gateway answered 200.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(raw))
	}
	if env.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Error}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("gateway request succeeded",
		"path", req.URL.Path,
		"status", env.Status,
	)
	return nil
}

// plain fetches a non-enveloped text endpoint.
func (c *Client) plain(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}
	return string(body), nil
}
