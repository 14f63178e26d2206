package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvVars = []string{
	"SERVER_ADDR",
	"LOG_LEVEL",
	"SHUTDOWN_TIMEOUT",
	"ENVELOPE_ALWAYS_OK",
	"SOLANA_MAINNET_RPC_URL",
	"SOLANA_DEVNET_RPC_URL",
	"SOLANA_TESTNET_RPC_URL",
	"DEFAULT_NETWORK",
	"RPC_TIMEOUT",
	"RPC_RATE_LIMIT",
	"FEE_REFERENCE_MINT",
	"MEMO_MARKER",
	"NATS_URL",
	"FEE_EVENTS_SUBJECT",
}

// clearEnv blanks every variable Load reads; empty values count as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		t.Setenv(key, "")
	}
}

func validConfig() *Config {
	return &Config{
		ServerAddr:          ":8080",
		LogLevel:            "info",
		ShutdownTimeout:     30 * time.Second,
		SolanaMainnetRPCURL: "https://api.mainnet-beta.solana.com",
		DefaultNetwork:      "mainnet-beta",
		RPCTimeout:          15 * time.Second,
		FeeReferenceMint:    "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		MemoMarker:          "arrow-api",
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.EnvelopeAlwaysOK)
	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.SolanaMainnetRPCURL)
	assert.Equal(t, "https://api.devnet.solana.com", cfg.SolanaDevnetRPCURL)
	assert.Equal(t, "https://api.testnet.solana.com", cfg.SolanaTestnetRPCURL)
	assert.Equal(t, "mainnet-beta", cfg.DefaultNetwork)
	assert.Equal(t, 15*time.Second, cfg.RPCTimeout)
	assert.Equal(t, 0.0, cfg.RPCRateLimit)
	assert.Equal(t, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", cfg.FeeReferenceMint)
	assert.Equal(t, "arrow-api", cfg.MemoMarker)
	assert.Empty(t, cfg.NATSURL)
	assert.Equal(t, "fees.recommended", cfg.FeeEventsSubject)
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ENVELOPE_ALWAYS_OK", "true")
	t.Setenv("SOLANA_DEVNET_RPC_URL", "https://devnet.helius-rpc.com/?api-key=abc")
	t.Setenv("DEFAULT_NETWORK", "devnet")
	t.Setenv("RPC_TIMEOUT", "5s")
	t.Setenv("RPC_RATE_LIMIT", "2.5")
	t.Setenv("MEMO_MARKER", "shop")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.EnvelopeAlwaysOK)
	assert.Equal(t, "devnet", cfg.DefaultNetwork)
	assert.Equal(t, 5*time.Second, cfg.RPCTimeout)
	assert.Equal(t, 2.5, cfg.RPCRateLimit)
	assert.Equal(t, "shop", cfg.MemoMarker)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
	assert.Equal(t, "https://devnet.helius-rpc.com/?api-key=abc", cfg.RPCURLs()["devnet"])
}

func TestLoad_MainnetAlias(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEFAULT_NETWORK", "mainnet")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mainnet-beta", cfg.DefaultNetwork)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr string
	}{
		{"RPC_TIMEOUT", "soon", "invalid duration"},
		{"SHUTDOWN_TIMEOUT", "later", "invalid duration"},
		{"RPC_RATE_LIMIT", "fast", "invalid number"},
		{"RPC_RATE_LIMIT", "-1", "RPCRateLimit cannot be negative"},
		{"ENVELOPE_ALWAYS_OK", "maybe", "invalid boolean"},
		{"FEE_REFERENCE_MINT", "not-a-mint", "FeeReferenceMint"},
		{"DEFAULT_NETWORK", "localnet", "has no RPC URL configured"},
		{"LOG_LEVEL", "verbose", "LogLevel must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_CollectsAllErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("RPC_TIMEOUT", "soon")
	t.Setenv("ENVELOPE_ALWAYS_OK", "maybe")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RPC_TIMEOUT")
	assert.Contains(t, err.Error(), "ENVELOPE_ALWAYS_OK")
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_DefaultNetworkWithoutURL(t *testing.T) {
	cfg := validConfig()
	cfg.DefaultNetwork = "devnet"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `DefaultNetwork "devnet" has no RPC URL configured`)
}

func TestValidate_NATSWithoutSubject(t *testing.T) {
	cfg := validConfig()
	cfg.NATSURL = "nats://localhost:4222"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FeeEventsSubject is required")
}

func TestValidate_NonPositiveTimeouts(t *testing.T) {
	cfg := validConfig()
	cfg.RPCTimeout = 0
	cfg.ShutdownTimeout = -time.Second

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RPCTimeout must be positive")
	assert.Contains(t, err.Error(), "ShutdownTimeout must be positive")
}

func TestRPCURLs(t *testing.T) {
	cfg := validConfig()
	cfg.SolanaTestnetRPCURL = "https://api.testnet.solana.com"

	assert.Equal(t, map[string]string{
		"mainnet-beta": "https://api.mainnet-beta.solana.com",
		"testnet":      "https://api.testnet.solana.com",
	}, cfg.RPCURLs())
}

func TestMustLoad_Panics(t *testing.T) {
	clearEnv(t)
	t.Setenv("RPC_TIMEOUT", "soon")

	assert.Panics(t, func() {
		MustLoad()
	})
}

func TestMustLoad_Success(t *testing.T) {
	clearEnv(t)

	assert.NotPanics(t, func() {
		cfg := MustLoad()
		assert.NotNil(t, cfg)
	})
}
