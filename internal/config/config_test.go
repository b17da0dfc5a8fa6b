package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultWhenMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.TokenNamespace != "mp" {
		t.Errorf("TokenNamespace = %q, want %q", cfg.TokenNamespace, "mp")
	}
	if cfg.TokenBytes != 16 {
		t.Errorf("TokenBytes = %d, want 16", cfg.TokenBytes)
	}
	if cfg.DefaultTTL() != 720*time.Hour {
		t.Errorf("DefaultTTL = %v, want 720h", cfg.DefaultTTL())
	}
	if cfg.StoreTimeout() != 5*time.Second {
		t.Errorf("StoreTimeout = %v, want 5s", cfg.StoreTimeout())
	}
}

func TestLoad_FromFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `{"token_namespace": "acme", "default_ttl_hours": 24, "user_id": "u-1"}`
	if err := os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.TokenNamespace != "acme" {
		t.Errorf("TokenNamespace = %q, want %q", cfg.TokenNamespace, "acme")
	}
	if cfg.DefaultTTLHours != 24 {
		t.Errorf("DefaultTTLHours = %d, want 24", cfg.DefaultTTLHours)
	}
	if cfg.UserID != "u-1" {
		t.Errorf("UserID = %q, want %q", cfg.UserID, "u-1")
	}
	// Unset values fall back to defaults.
	if cfg.TokenBytes != 16 {
		t.Errorf("TokenBytes = %d, want default 16", cfg.TokenBytes)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte("{nope"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Error("Load should fail on invalid JSON")
	}
}

func TestMerge_OverlayWins(t *testing.T) {
	base := DefaultConfig()
	overlay := &Config{TokenBytes: 32}

	merged := Merge(base, overlay)

	if merged.TokenBytes != 32 {
		t.Errorf("TokenBytes = %d, want 32", merged.TokenBytes)
	}
	if merged.TokenNamespace != "mp" {
		t.Errorf("TokenNamespace = %q, want base default", merged.TokenNamespace)
	}
}
