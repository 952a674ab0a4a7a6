package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cssprune/common"
)

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if cfg.Output.Style != common.OutputStylePretty {
		t.Errorf("Output.Style = %v, want pretty", cfg.Output.Style)
	}
	if cfg.Fetch.Timeout != 30*time.Second {
		t.Errorf("Fetch.Timeout = %v, want 30s", cfg.Fetch.Timeout)
	}
	if len(cfg.Filter.Ignore) != 0 {
		t.Errorf("Filter.Ignore = %v, want empty", cfg.Filter.Ignore)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `version: 1
filter:
  ignore: ["#never-rendered", "/^\\.js-/"]
  workers: 2
  references:
    keyframes: ["-ms-animation-name"]
fetch:
  timeout: 5s
  headers:
    Authorization: "Bearer token-value"
output:
  style: compact
logging:
  console:
    level: none
  file:
    level: none
reporting:
  destination: ` + filepath.Join(tmpDir, "report.zip") + `
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfiguration(configPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if len(cfg.Filter.Ignore) != 2 || cfg.Filter.Ignore[0] != "#never-rendered" {
		t.Errorf("Filter.Ignore = %v", cfg.Filter.Ignore)
	}
	if cfg.Filter.Workers != 2 {
		t.Errorf("Filter.Workers = %d, want 2", cfg.Filter.Workers)
	}
	if got := cfg.Filter.References["keyframes"]; len(got) != 1 || got[0] != "-ms-animation-name" {
		t.Errorf("Filter.References[keyframes] = %v", got)
	}
	if cfg.Fetch.Timeout != 5*time.Second {
		t.Errorf("Fetch.Timeout = %v, want 5s", cfg.Fetch.Timeout)
	}
	// not mentioned in file - comes from defaults
	if cfg.Fetch.UserAgent != "cssprune" {
		t.Errorf("Fetch.UserAgent = %q, want default", cfg.Fetch.UserAgent)
	}
	if cfg.Output.Style != common.OutputStyleCompact {
		t.Errorf("Output.Style = %v, want compact", cfg.Output.Style)
	}
	if cfg.Fetch.Headers["Authorization"].Reveal() != "Bearer token-value" {
		t.Errorf("Authorization header was not loaded")
	}
}

func TestLoadConfiguration_UnknownField(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("version: 1\nfilter:\n  ignroe: []\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	if _, err := LoadConfiguration(configPath); err == nil {
		t.Error("LoadConfiguration() expected error for unknown field")
	}
}

func TestLoadConfiguration_InvalidVersion(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("version: 2\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	if _, err := LoadConfiguration(configPath); err == nil {
		t.Error("LoadConfiguration() expected validation error for version 2")
	}
}

func TestLoadConfiguration_MissingFile(t *testing.T) {
	if _, err := LoadConfiguration(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadConfiguration() expected error for missing file")
	}
}

func TestDump_MasksSecrets(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	cfg.Fetch.Headers = map[string]SecretString{"Authorization": "Bearer very-secret"}

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	out := string(data)
	if strings.Contains(out, "very-secret") {
		t.Error("Dump() leaked secret header value")
	}
	if !strings.Contains(out, SecretStringValue) {
		t.Errorf("Dump() output does not contain mask:\n%s", out)
	}
	if !strings.Contains(out, "style: pretty") {
		t.Errorf("Dump() output does not contain output style:\n%s", out)
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if !strings.Contains(string(data), "version: 1") {
		t.Errorf("Prepare() output does not look like configuration:\n%s", data)
	}
}
