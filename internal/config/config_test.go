package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("WORKER_COUNT", "")
	t.Setenv("RANGE_TIMEOUT", "")
	t.Setenv("MAX_CONCURRENT_RANGES", "-3")

	cfg := Load()
	if cfg.WorkerCount != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.WorkerCount)
	}
	if cfg.RangeTimeout != 30*time.Second {
		t.Errorf("expected 30s range timeout, got %s", cfg.RangeTimeout)
	}
	if cfg.MaxConcurrentRanges != 8 {
		t.Errorf("expected non-positive value to fall back to 8, got %d", cfg.MaxConcurrentRanges)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("RANGE_TIMEOUT", "250ms")
	t.Setenv("MAX_TREE_NODES", "500")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")

	cfg := Load()
	if cfg.Port != "9999" {
		t.Errorf("expected port %q, got %q", "9999", cfg.Port)
	}
	if cfg.RangeTimeout != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %s", cfg.RangeTimeout)
	}
	if cfg.MaxTreeNodes != 500 {
		t.Errorf("expected 500, got %d", cfg.MaxTreeNodes)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback disabled")
	}
}

func TestValidate_RequiresAPIKey(t *testing.T) {
	if err := (Config{}).Validate(); err == nil {
		t.Error("expected error without API key")
	}
	if err := (Config{DocrangeAPIKey: "k"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
