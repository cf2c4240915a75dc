package config

import (
	"testing"
	"time"
)

const defaultMaxFileSize int64 = 50 * 1024 * 1024

var configKeys = []string{
	"PORT", "SERVER_PORT", "MAX_FILE_SIZE", "LOG_LEVEL",
	"LEDGER_BACKEND", "ETH_RPC_URL", "INFURA_PROJECT_ID", "ETH_NETWORK",
	"CONTRACT_ADDRESS", "PRIVATE_KEY", "LEDGER_TIMEOUT", "LOCAL_LEDGER_PATH", "LOCAL_SIGNER",
	"SUPABASE_URL", "SUPABASE_ANON_KEY", "CORS_ALLOWED_ORIGINS",
	"VALIDATION_RATE_PER_MINUTE", "PREVIEW_TTL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestNewConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := NewConfig()

	if cfg.GetServerPort() != "8080" {
		t.Fatalf("expected default server port 8080, got %s", cfg.GetServerPort())
	}
	if cfg.GetMaxFileSize() != defaultMaxFileSize {
		t.Fatalf("expected default max file size %d, got %d", defaultMaxFileSize, cfg.GetMaxFileSize())
	}
	if cfg.GetLogLevel() != "info" {
		t.Fatalf("expected default log level info, got %s", cfg.GetLogLevel())
	}
	if cfg.GetLedgerBackend() != LedgerEthereum {
		t.Fatalf("expected default ledger backend ethereum, got %s", cfg.GetLedgerBackend())
	}
	if cfg.GetNetworkName() != "sepolia" {
		t.Fatalf("expected default network sepolia, got %s", cfg.GetNetworkName())
	}
	if cfg.GetLedgerTimeout() != 2*time.Minute {
		t.Fatalf("expected default ledger timeout 2m, got %s", cfg.GetLedgerTimeout())
	}
	if cfg.GetPrivateKey() != "" {
		t.Fatalf("expected no default private key")
	}
	if cfg.GetValidationRatePerMinute() != 30 {
		t.Fatalf("expected default rate 30, got %d", cfg.GetValidationRatePerMinute())
	}
	if len(cfg.GetAllowedOrigins()) != 2 {
		t.Fatalf("expected 2 default origins, got %v", cfg.GetAllowedOrigins())
	}
}

func TestNewConfig_NoEmbeddedEndpoint(t *testing.T) {
	clearEnv(t)

	cfg := NewConfig()

	if url, err := cfg.GetRPCURL(); err == nil {
		t.Fatalf("expected an error without endpoint configuration, got %s", url)
	}
}

func TestNewConfig_EndpointFallbackChain(t *testing.T) {
	clearEnv(t)
	t.Setenv("INFURA_PROJECT_ID", "abc123")
	t.Setenv("ETH_NETWORK", "holesky")

	url, err := NewConfig().GetRPCURL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://holesky.infura.io/v3/abc123" {
		t.Fatalf("unexpected infura url %s", url)
	}

	t.Setenv("ETH_RPC_URL", "http://127.0.0.1:8545")
	url, err = NewConfig().GetRPCURL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "http://127.0.0.1:8545" {
		t.Fatalf("expected explicit endpoint to win, got %s", url)
	}
}

func TestNewConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("MAX_FILE_SIZE", "12345")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LEDGER_BACKEND", "LOCAL")
	t.Setenv("LEDGER_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PREVIEW_TTL", "1m")

	cfg := NewConfig()

	if cfg.GetServerPort() != "9090" {
		t.Fatalf("expected server port 9090, got %s", cfg.GetServerPort())
	}
	if cfg.GetMaxFileSize() != 12345 {
		t.Fatalf("expected max file size 12345, got %d", cfg.GetMaxFileSize())
	}
	if cfg.GetLogLevel() != "debug" {
		t.Fatalf("expected log level debug, got %s", cfg.GetLogLevel())
	}
	if cfg.GetLedgerBackend() != LedgerLocal {
		t.Fatalf("expected ledger backend local, got %s", cfg.GetLedgerBackend())
	}
	if cfg.GetLedgerTimeout() != 5*time.Second {
		t.Fatalf("expected ledger timeout 5s, got %s", cfg.GetLedgerTimeout())
	}
	origins := cfg.GetAllowedOrigins()
	if len(origins) != 2 || origins[0] != "https://a.example" || origins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", origins)
	}
	if cfg.GetPreviewTTL() != time.Minute {
		t.Fatalf("expected preview ttl 1m, got %s", cfg.GetPreviewTTL())
	}
}

func TestNewConfig_Fallbacks(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9091")
	t.Setenv("MAX_FILE_SIZE", "not-a-number")
	t.Setenv("LEDGER_TIMEOUT", "soon")

	cfg := NewConfig()

	if cfg.GetServerPort() != "9091" {
		t.Fatalf("expected server port 9091, got %s", cfg.GetServerPort())
	}
	if cfg.GetMaxFileSize() != defaultMaxFileSize {
		t.Fatalf("expected default max file size %d, got %d", defaultMaxFileSize, cfg.GetMaxFileSize())
	}
	if cfg.GetLedgerTimeout() != 2*time.Minute {
		t.Fatalf("expected default ledger timeout, got %s", cfg.GetLedgerTimeout())
	}
}
