package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Defaults().Validate() = %v, want nil", err)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "turbo"
	cfg.LogLevel = "loud"
	cfg.Oracle.BaseURL = ""
	cfg.Book.FallbackPrice = "-5"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, want := range []string{"unknown mode", "unknown log_level", "oracle: base_url", "fallback_price"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestValidateRouterNeedsAddress(t *testing.T) {
	cfg := Defaults()
	cfg.Router.RPCURL = "https://rpc.example.com"
	cfg.Router.Address = ""
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "router: address") {
		t.Errorf("Validate() = %v, want router address error", err)
	}
}

func TestValidateS3NeedsPostgres(t *testing.T) {
	cfg := Defaults()
	cfg.S3.Enabled = true
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "requires postgres") {
		t.Errorf("Validate() = %v, want s3/postgres coupling error", err)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	data := `
mode = "full"

[server]
port = 9090

[oracle]
refresh_interval = "1m"

[[tokens.extra]]
symbol = "PEPE"
name = "Pepe"
address = "0x6982508145454ce325ddbe47a25d4ec3d2311933"
decimals = 18
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != "full" {
		t.Errorf("Mode = %q, want full", cfg.Mode)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Oracle.RefreshInterval.Duration != time.Minute {
		t.Errorf("RefreshInterval = %v, want 1m", cfg.Oracle.RefreshInterval.Duration)
	}
	// Untouched defaults survive the merge.
	if cfg.Oracle.BaseURL == "" {
		t.Error("Oracle.BaseURL default lost")
	}
	if len(cfg.Tokens.Extra) != 1 || cfg.Tokens.Extra[0].Symbol != "PEPE" {
		t.Errorf("Tokens.Extra = %+v, want PEPE entry", cfg.Tokens.Extra)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DEXQUOTE_SERVER_PORT", "7070")
	t.Setenv("DEXQUOTE_MODE", "monitor")
	t.Setenv("DEXQUOTE_REDIS_ENABLED", "true")
	t.Setenv("DEXQUOTE_ORACLE_REFRESH_INTERVAL", "45s")
	t.Setenv("DEXQUOTE_SERVER_CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Mode != "monitor" {
		t.Errorf("Mode = %q, want monitor", cfg.Mode)
	}
	if !cfg.Redis.Enabled {
		t.Error("Redis.Enabled = false, want true")
	}
	if cfg.Oracle.RefreshInterval.Duration != 45*time.Second {
		t.Errorf("RefreshInterval = %v, want 45s", cfg.Oracle.RefreshInterval.Duration)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example.com" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
}
