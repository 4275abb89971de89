package config

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("BASE_URL", "http://localhost:8080")
}

// TestLoad_Defaults は必須項目のみ設定した場合のデフォルト値を検証する。
func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.CatalogBaseURL != "https://fakestoreapi.com" {
		t.Errorf("CatalogBaseURL = %q", cfg.CatalogBaseURL)
	}
	if cfg.CatalogTimeout != 10*time.Second {
		t.Errorf("CatalogTimeout = %v", cfg.CatalogTimeout)
	}
	if cfg.SessionMaxAge != 604800 {
		t.Errorf("SessionMaxAge = %d", cfg.SessionMaxAge)
	}
	if cfg.StateRetention != 720*time.Hour {
		t.Errorf("StateRetention = %v", cfg.StateRetention)
	}
	if !cfg.FreeShippingThreshold.Equal(decimal.NewFromInt(50)) {
		t.Errorf("FreeShippingThreshold = %s", cfg.FreeShippingThreshold)
	}
	if !cfg.ShippingFee.Equal(decimal.NewFromInt(5)) {
		t.Errorf("ShippingFee = %s", cfg.ShippingFee)
	}
	if !cfg.TaxRate.Equal(decimal.NewFromFloat(0.08)) {
		t.Errorf("TaxRate = %s", cfg.TaxRate)
	}
	if cfg.RateLimitGeneral != 120 || cfg.RateLimitLogin != 10 {
		t.Errorf("rate limits = %d/%d", cfg.RateLimitGeneral, cfg.RateLimitLogin)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q", cfg.ServerPort)
	}
	if cfg.CookieSecure {
		t.Error("expected CookieSecure false for http BASE_URL")
	}
	if cfg.CORSAllowedOrigin != "http://localhost:3000" {
		t.Errorf("CORSAllowedOrigin = %q", cfg.CORSAllowedOrigin)
	}
}

// TestLoad_MissingRequired は必須環境変数の欠落がエラーになることを検証する。
func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("BASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "SESSION_SECRET") || !strings.Contains(err.Error(), "BASE_URL") {
		t.Errorf("expected error to name missing variables, got %v", err)
	}
}

// TestLoad_Overrides は環境変数による上書きを検証する。
func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BASE_URL", "https://store.example.com")
	t.Setenv("CATALOG_TIMEOUT", "3s")
	t.Setenv("FREE_SHIPPING_THRESHOLD", "100")
	t.Setenv("TAX_RATE", "0.1")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("SERVER_PORT", "9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.CatalogTimeout != 3*time.Second {
		t.Errorf("CatalogTimeout = %v", cfg.CatalogTimeout)
	}
	if !cfg.FreeShippingThreshold.Equal(decimal.NewFromInt(100)) {
		t.Errorf("FreeShippingThreshold = %s", cfg.FreeShippingThreshold)
	}
	if !cfg.TaxRate.Equal(decimal.NewFromFloat(0.1)) {
		t.Errorf("TaxRate = %s", cfg.TaxRate)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
	if cfg.ServerPort != "9000" {
		t.Errorf("ServerPort = %q", cfg.ServerPort)
	}
	if !cfg.CookieSecure {
		t.Error("expected CookieSecure true for https BASE_URL")
	}
}

// TestLoad_InvalidValuesFallBack は解析できない値がデフォルトへ
// フォールバックすることを検証する。
func TestLoad_InvalidValuesFallBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CATALOG_TIMEOUT", "not-a-duration")
	t.Setenv("SESSION_MAX_AGE", "not-a-number")
	t.Setenv("TAX_RATE", "not-a-decimal")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.CatalogTimeout != 10*time.Second {
		t.Errorf("CatalogTimeout = %v, want default", cfg.CatalogTimeout)
	}
	if cfg.SessionMaxAge != 604800 {
		t.Errorf("SessionMaxAge = %d, want default", cfg.SessionMaxAge)
	}
	if !cfg.TaxRate.Equal(decimal.NewFromFloat(0.08)) {
		t.Errorf("TaxRate = %s, want default", cfg.TaxRate)
	}
}
