package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validConfig = `
name: cagefs
version: 1.0.0
description: sandboxed filesystem server
sandbox_path: ./sandbox
max_file_size: 1048576
allowed_extensions: [".txt", ".md", ".json"]
read_only: false
`

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "cagefs" || cfg.MaxFileSize != 1048576 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(cfg.AllowedExtensions) != 3 {
		t.Fatalf("expected 3 extensions, got %v", cfg.AllowedExtensions)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
		t.Fatalf("expected logging defaults, got %q %q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoadJSONConfig(t *testing.T) {
	// YAML is a JSON superset, so a config.json written for the original
	// deployment still parses.
	cfg, err := Load(writeConfig(t, `{"name":"cagefs","version":"1.0.0","description":"d","sandbox_path":"./sandbox","max_file_size":10,"allowed_extensions":[".txt"],"read_only":true}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.ReadOnly || cfg.MaxFileSize != 10 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidationFailures(t *testing.T) {
	cases := map[string]string{
		"missing name":       strings.Replace(validConfig, "name: cagefs", "", 1),
		"missing version":    strings.Replace(validConfig, "version: 1.0.0", "", 1),
		"missing sandbox":    strings.Replace(validConfig, "sandbox_path: ./sandbox", "", 1),
		"zero max size":      strings.Replace(validConfig, "max_file_size: 1048576", "max_file_size: 0", 1),
		"extension sans dot": strings.Replace(validConfig, `".txt"`, `"txt"`, 1),
		"unknown field":      validConfig + "unexpected_field: 1\n",
	}
	for name, content := range cases {
		if _, err := Load(writeConfig(t, content)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CAGEFS_SANDBOX_PATH", "/tmp/override")
	t.Setenv("CAGEFS_LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SandboxPath != "/tmp/override" {
		t.Fatalf("expected sandbox override, got %q", cfg.SandboxPath)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log level override, got %q", cfg.LogLevel)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("CAGEFS_CONFIG", "")
	if got := DefaultPath(); got != "config.yaml" {
		t.Fatalf("expected config.yaml, got %q", got)
	}
	t.Setenv("CAGEFS_CONFIG", "/etc/cagefs.yaml")
	if got := DefaultPath(); got != "/etc/cagefs.yaml" {
		t.Fatalf("expected env path, got %q", got)
	}
}
