package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFrom(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("missing config file should not error: %v", err)
	}
	if cfg.Prompt.Timeout != DefaultPromptTimeout.String() {
		t.Errorf("Prompt.Timeout = %q", cfg.Prompt.Timeout)
	}
}

func TestLoadFromMalformedFileErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("audit: [this is not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected malformed config to error")
	}
}

func TestLoadFromOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "audit:\n  enabled: false\nprompt:\n  model: haiku\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Audit.Enabled {
		t.Error("Audit.Enabled should be false")
	}
	if cfg.Prompt.Model != "haiku" {
		t.Errorf("Prompt.Model = %q", cfg.Prompt.Model)
	}
}

func TestPromptTimeoutDurationFallsBackToDefault(t *testing.T) {
	p := &PromptConfig{}
	if p.TimeoutDuration() != DefaultPromptTimeout {
		t.Errorf("TimeoutDuration() = %v, want default", p.TimeoutDuration())
	}
	p.Timeout = "10s"
	if p.TimeoutDuration().String() != "10s" {
		t.Errorf("TimeoutDuration() = %v, want 10s", p.TimeoutDuration())
	}
}
