package config

import (
	"strings"
	"testing"
	"time"
)

const testMasterKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// setRequired sets the variables without which Load refuses to start.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("MASTER_KEY", testMasterKey)
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.GinMode != "release" || cfg.LogLevel != "info" {
		t.Errorf("server defaults: %+v", cfg)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Errorf("base path = %q", cfg.APIBasePath)
	}
	if cfg.Generation.Model != "gemini-2.5-flash" ||
		cfg.Generation.MaxJDWords != 1500 ||
		cfg.Generation.MinQuestions != 15 ||
		cfg.Generation.Timeout != 120*time.Second {
		t.Errorf("generation defaults: %+v", cfg.Generation)
	}
	if cfg.IdempotencyTTL != 24*time.Hour {
		t.Errorf("idempotency ttl = %v", cfg.IdempotencyTTL)
	}
	if cfg.OTEL.Enabled {
		t.Errorf("otel enabled by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "warning") // normalized to warn
	t.Setenv("GIN_MODE", "weird")    // normalized to release
	t.Setenv("GEMINI_MODEL", "gemini-2.0-pro")
	t.Setenv("MAX_JD_WORDS", "500")
	t.Setenv("GENERATE_TIMEOUT", "30s")
	t.Setenv("API_BASE_PATH", "v2/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" || cfg.LogLevel != "warn" || cfg.GinMode != "release" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Generation.Model != "gemini-2.0-pro" || cfg.Generation.MaxJDWords != 500 || cfg.Generation.Timeout != 30*time.Second {
		t.Errorf("generation overrides: %+v", cfg.Generation)
	}
	if cfg.APIBasePath != "/v2" {
		t.Errorf("base path = %q; want normalized /v2", cfg.APIBasePath)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("cors = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoad_OTELEndpointAliasAndInsecure(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OTEL.Endpoint != "localhost:4317" || !cfg.OTEL.Insecure {
		t.Errorf("otel defaults: %+v", cfg.OTEL)
	}

	// The legacy alias is honored when the canonical variable is unset.
	t.Setenv("OTEL_ENDPOINT", "otel-alias:4317")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OTEL.Endpoint != "otel-alias:4317" {
		t.Errorf("alias endpoint = %q", cfg.OTEL.Endpoint)
	}

	// The canonical variable wins over the alias.
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "off")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OTEL.Endpoint != "otel:4317" {
		t.Errorf("endpoint = %q", cfg.OTEL.Endpoint)
	}
	if cfg.OTEL.Insecure {
		t.Errorf("insecure should be false for %q", "off")
	}
}

func TestLoad_MasterKeyValidation(t *testing.T) {
	cases := map[string]string{
		"missing":   "",
		"not hex":   "zz" + testMasterKey[2:],
		"too short": "00010203",
	}
	for name, val := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "test-secret")
			t.Setenv("MASTER_KEY", val)
			if _, err := Load(); err == nil || !strings.Contains(err.Error(), "MASTER_KEY") {
				t.Fatalf("err = %v; want MASTER_KEY error", err)
			}
		})
	}
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("MASTER_KEY", testMasterKey)
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("err = %v; want JWT_SECRET error", err)
	}
}

func TestLoad_RejectsBadNumbers(t *testing.T) {
	setRequired(t)
	t.Setenv("MIN_QUESTIONS", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("MIN_QUESTIONS=0 accepted")
	}
	t.Setenv("MIN_QUESTIONS", "15")
	t.Setenv("RATE_BURST", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("RATE_BURST=0 accepted")
	}
}

func TestMustLoad_PanicsOnInvalid(t *testing.T) {
	t.Setenv("MASTER_KEY", "")
	t.Setenv("JWT_SECRET", "s")
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	MustLoad()
}
