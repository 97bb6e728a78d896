package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should yield defaults, got %v", err)
	}
	if cfg.Runtime.Device != "cpu" {
		t.Fatalf("expected default device cpu, got %q", cfg.Runtime.Device)
	}
	if cfg.Runtime.Sessions != 1 {
		t.Fatalf("expected default sessions 1, got %d", cfg.Runtime.Sessions)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.Logging.Level)
	}
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labelbatch.yaml")
	body := "runtime:\n  device: cuda\n  intra_op_threads: 8\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Runtime.Device != "cuda" {
		t.Fatalf("expected device cuda, got %q", cfg.Runtime.Device)
	}
	if cfg.Runtime.IntraOpThreads != 8 {
		t.Fatalf("expected intra_op_threads 8, got %d", cfg.Runtime.IntraOpThreads)
	}
	if cfg.Runtime.Sessions != 1 {
		t.Fatalf("expected defaulted sessions 1, got %d", cfg.Runtime.Sessions)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("expected defaulted log level info, got %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labelbatch.yaml")
	if err := os.WriteFile(path, []byte("runtime: [not-a-map"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for malformed yaml")
	}
}
