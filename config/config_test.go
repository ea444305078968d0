package config

import (
	"os"
	"testing"
	"time"
)

// unsetenv removes key for the duration of the test.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "") // registers restore on cleanup
	os.Unsetenv(key)
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "TICK_INTERVAL", "REDIS_ADDR", "QUOTE_ENABLED", "INDICATORS", "CACHE_TTL"} {
		unsetenv(t, k)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.TickInterval != time.Second {
		t.Errorf("TickInterval = %s", cfg.TickInterval)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %s", cfg.CacheTTL)
	}
	if cfg.RedisAddr != "" || cfg.QuoteEnabled {
		t.Errorf("optional integrations should default off: %+v", cfg)
	}
	if len(cfg.IndicatorSpecs()) != 3 {
		t.Errorf("expected 3 default indicator specs, got %v", cfg.IndicatorSpecs())
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TICK_INTERVAL", "250ms")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("QUOTE_ENABLED", "true")
	t.Setenv("INDICATORS", "EMA:50,BAD")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TickInterval != 250*time.Millisecond {
		t.Errorf("TickInterval = %s", cfg.TickInterval)
	}
	if cfg.RedisAddr != "localhost:6379" || !cfg.QuoteEnabled {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	specs := cfg.IndicatorSpecs()
	if len(specs) != 1 || specs[0].Type != "EMA" || specs[0].Period != 50 {
		t.Errorf("unexpected specs %v", specs)
	}
}

func TestLoad_InvalidInterval(t *testing.T) {
	t.Setenv("TICK_INTERVAL", "-1s")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative interval")
	}
}

func TestLoad_Malformed(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-integer REDIS_DB")
	}
}
