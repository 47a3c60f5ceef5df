package config

import (
	"testing"
	"time"
)

func TestLoadRequiresBaseURL(t *testing.T) {
	_, err := LoadForTests(map[string]string{"API_BASE_URL": ""})
	if err == nil {
		t.Fatal("expected error when API_BASE_URL is missing")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"API_BASE_URL":             "https://api.example.com/api/v1/",
		"CART_DEBOUNCE_WINDOW":     "",
		"CART_POLICY_MAX_QUANTITY": "",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBaseURL != "https://api.example.com/api/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.APIBaseURL)
	}
	if cfg.DebounceWindow != 400*time.Millisecond {
		t.Fatalf("expected 400ms debounce default, got %s", cfg.DebounceWindow)
	}
	if cfg.PolicyMaxQuantity != 5 {
		t.Fatalf("expected policy max 5, got %d", cfg.PolicyMaxQuantity)
	}
	if !cfg.MetricsEnabled {
		t.Fatal("metrics should default on")
	}
}

func TestLoadRejectsBadPolicyMax(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"API_BASE_URL":             "https://api.example.com",
		"CART_POLICY_MAX_QUANTITY": "0",
	})
	if err == nil {
		t.Fatal("expected error for zero policy max")
	}
}
