package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"paper-registry/internal/domain"
)

// Ledger backends
const (
	LedgerEthereum = "ethereum"
	LedgerLocal    = "local"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort  string
	MaxFileSize int64
	LogLevel    string

	LedgerBackend   string
	RPCURL          string
	InfuraProjectID string
	Network         string
	ContractAddress string
	PrivateKey      string
	LedgerTimeout   time.Duration
	LocalLedgerPath string
	LocalSigner     string

	SupabaseURL             string
	SupabaseKey             string
	AllowedOrigins          []string
	ValidationRatePerMinute int
	PreviewTTL              time.Duration
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:  getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		MaxFileSize: getEnvInt64OrDefault("MAX_FILE_SIZE", 50*1024*1024), // 50MB default
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),

		LedgerBackend:   strings.ToLower(getEnvOrDefault("LEDGER_BACKEND", LedgerEthereum)),
		RPCURL:          getEnvOrDefault("ETH_RPC_URL", ""),
		InfuraProjectID: getEnvOrDefault("INFURA_PROJECT_ID", ""),
		Network:         getEnvOrDefault("ETH_NETWORK", "sepolia"),
		ContractAddress: getEnvOrDefault("CONTRACT_ADDRESS", ""),
		PrivateKey:      getEnvOrDefault("PRIVATE_KEY", ""),
		LedgerTimeout:   getEnvDurationOrDefault("LEDGER_TIMEOUT", 2*time.Minute),
		LocalLedgerPath: getEnvOrDefault("LOCAL_LEDGER_PATH", "./data/ledger"),
		LocalSigner:     getEnvOrDefault("LOCAL_SIGNER", "local-signer"),

		SupabaseURL:             getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey:             getEnvOrDefault("SUPABASE_ANON_KEY", ""),
		AllowedOrigins:          getEnvListOrDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		ValidationRatePerMinute: int(getEnvInt64OrDefault("VALIDATION_RATE_PER_MINUTE", 30)),
		PreviewTTL:              getEnvDurationOrDefault("PREVIEW_TTL", 15*time.Minute),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetMaxFileSize returns the maximum allowed file size
func (c *AppConfig) GetMaxFileSize() int64 {
	return c.MaxFileSize
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetLedgerBackend returns "ethereum" or "local"
func (c *AppConfig) GetLedgerBackend() string {
	return c.LedgerBackend
}

// GetRPCURL resolves the ledger endpoint: an explicit ETH_RPC_URL wins, then a
// configured Infura project for the selected network. There is no built-in
// fallback endpoint.
func (c *AppConfig) GetRPCURL() (string, error) {
	if c.RPCURL != "" {
		return c.RPCURL, nil
	}
	if c.InfuraProjectID != "" {
		return fmt.Sprintf("https://%s.infura.io/v3/%s", c.Network, c.InfuraProjectID), nil
	}
	return "", fmt.Errorf("no ledger endpoint configured: set ETH_RPC_URL or INFURA_PROJECT_ID")
}

// GetNetworkName returns the network display name
func (c *AppConfig) GetNetworkName() string {
	return c.Network
}

// GetContractAddress returns the registry contract address
func (c *AppConfig) GetContractAddress() string {
	return c.ContractAddress
}

// GetPrivateKey returns the hex signer key, empty for a read-only session
func (c *AppConfig) GetPrivateKey() string {
	return c.PrivateKey
}

// GetLedgerTimeout bounds a single ledger call including receipt waiting
func (c *AppConfig) GetLedgerTimeout() time.Duration {
	return c.LedgerTimeout
}

// GetLocalLedgerPath returns the pebble directory for the local ledger
func (c *AppConfig) GetLocalLedgerPath() string {
	return c.LocalLedgerPath
}

// GetLocalSigner returns the identity used by the local ledger
func (c *AppConfig) GetLocalSigner() string {
	return c.LocalSigner
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase anon key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

// GetAllowedOrigins returns the CORS origins
func (c *AppConfig) GetAllowedOrigins() []string {
	return c.AllowedOrigins
}

// GetValidationRatePerMinute returns how many submissions per minute are accepted
func (c *AppConfig) GetValidationRatePerMinute() int {
	return c.ValidationRatePerMinute
}

// GetPreviewTTL returns how long an idle preview is kept
func (c *AppConfig) GetPreviewTTL() time.Duration {
	return c.PreviewTTL
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
