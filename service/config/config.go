package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/brojonat/yatori/service/solana"
)

// Config holds all application configuration loaded from environment variables.
// All fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Server configuration
	ServerAddr      string
	LogLevel        string
	ShutdownTimeout time.Duration

	// EnvelopeAlwaysOK answers every request with HTTP 200 and lets the
	// envelope alone carry success or failure.
	EnvelopeAlwaysOK bool

	// Solana configuration, one RPC endpoint per network
	SolanaMainnetRPCURL string
	SolanaDevnetRPCURL  string
	SolanaTestnetRPCURL string
	DefaultNetwork      string

	// RPC client tuning
	RPCTimeout   time.Duration
	RPCRateLimit float64 // requests per second per network, 0 disables pacing

	// Query configuration
	FeeReferenceMint string
	MemoMarker       string

	// NATS configuration, empty URL disables fee events
	NATSURL          string
	FeeEventsSubject string
}

// Load reads configuration from environment variables and validates all fields.
// Returns an error listing every missing or invalid setting.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	// Server configuration
	cfg.ServerAddr = getEnvOrDefault("SERVER_ADDR", ":8080")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "30s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ShutdownTimeout = shutdownTimeout
	}

	alwaysOK, err := parseBool("ENVELOPE_ALWAYS_OK", false)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.EnvelopeAlwaysOK = alwaysOK
	}

	// Solana configuration
	cfg.SolanaMainnetRPCURL = getEnvOrDefault("SOLANA_MAINNET_RPC_URL", "https://api.mainnet-beta.solana.com")
	cfg.SolanaDevnetRPCURL = getEnvOrDefault("SOLANA_DEVNET_RPC_URL", "https://api.devnet.solana.com")
	cfg.SolanaTestnetRPCURL = getEnvOrDefault("SOLANA_TESTNET_RPC_URL", "https://api.testnet.solana.com")
	cfg.DefaultNetwork = solana.NormalizeNetwork(getEnvOrDefault("DEFAULT_NETWORK", solana.NetworkMainnet))

	rpcTimeout, err := parseDuration("RPC_TIMEOUT", "15s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.RPCTimeout = rpcTimeout
	}

	rateLimit, err := parseFloat("RPC_RATE_LIMIT", 0)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.RPCRateLimit = rateLimit
	}

	// Query configuration
	cfg.FeeReferenceMint = getEnvOrDefault("FEE_REFERENCE_MINT", solana.USDCMainnetMint.String())
	cfg.MemoMarker = getEnvOrDefault("MEMO_MARKER", solana.DefaultMemoMarker)

	// NATS configuration
	cfg.NATSURL = os.Getenv("NATS_URL")
	cfg.FeeEventsSubject = getEnvOrDefault("FEE_EVENTS_SUBJECT", "fees.recommended")

	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for server initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if _, ok := c.RPCURLs()[solana.NormalizeNetwork(c.DefaultNetwork)]; !ok {
		errs = append(errs, fmt.Errorf("DefaultNetwork %q has no RPC URL configured", c.DefaultNetwork))
	}

	if c.RPCTimeout <= 0 {
		errs = append(errs, fmt.Errorf("RPCTimeout must be positive"))
	}

	if c.RPCRateLimit < 0 {
		errs = append(errs, fmt.Errorf("RPCRateLimit cannot be negative"))
	}

	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ShutdownTimeout must be positive"))
	}

	if _, err := solana.ParseAddress(c.FeeReferenceMint); err != nil {
		errs = append(errs, fmt.Errorf("FeeReferenceMint: %w", err))
	}

	if c.MemoMarker == "" {
		errs = append(errs, fmt.Errorf("MemoMarker is required"))
	}

	if c.NATSURL != "" && c.FeeEventsSubject == "" {
		errs = append(errs, fmt.Errorf("FeeEventsSubject is required when NATS is enabled"))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LogLevel must be one of debug, info, warn, error (got %q)", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// RPCURLs returns the RPC endpoint of every network that has one configured.
func (c *Config) RPCURLs() map[string]string {
	urls := make(map[string]string, 3)
	if c.SolanaMainnetRPCURL != "" {
		urls[solana.NetworkMainnet] = c.SolanaMainnetRPCURL
	}
	if c.SolanaDevnetRPCURL != "" {
		urls[solana.NetworkDevnet] = c.SolanaDevnetRPCURL
	}
	if c.SolanaTestnetRPCURL != "" {
		urls[solana.NetworkTestnet] = c.SolanaTestnetRPCURL
	}
	return urls
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseFloat parses a float from an environment variable or uses a default.
func parseFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q: %w", key, value, err)
	}
	return result, nil
}

// parseBool parses a boolean from an environment variable or uses a default.
func parseBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q: %w", key, value, err)
	}
	return result, nil
}
