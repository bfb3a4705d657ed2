package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigFromBytesLayersOverDefaults(t *testing.T) {
	cfg, err := LoadConfigFromBytes([]byte("backend:\n  url: https://agent.example.com\n"))
	if err != nil {
		t.Fatalf("expected config to parse, got %v", err)
	}

	if cfg.Backend.URL != "https://agent.example.com" {
		t.Fatalf("expected overridden backend url, got %q", cfg.Backend.URL)
	}
	if cfg.Backend.TimeoutSeconds != 60 {
		t.Fatalf("expected default timeout to survive partial override, got %d", cfg.Backend.TimeoutSeconds)
	}
	if cfg.Audio.Backend != "miniaudio" {
		t.Fatalf("expected default audio backend, got %q", cfg.Audio.Backend)
	}
}

func TestLoadConfigFromBytesRejectsInvalidYAML(t *testing.T) {
	if _, err := LoadConfigFromBytes([]byte("backend: [unclosed")); err == nil {
		t.Fatalf("expected invalid YAML to error")
	}
}

func TestLoadConfigReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parley.yaml")
	content := "backend:\n  url: https://agent.example.com\n  timeout_seconds: 10\naudio:\n  backend: portaudio\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}
	if cfg.Backend.TimeoutSeconds != 10 {
		t.Fatalf("expected timeout 10, got %d", cfg.Backend.TimeoutSeconds)
	}
	if cfg.Audio.Backend != "portaudio" {
		t.Fatalf("expected portaudio backend, got %q", cfg.Audio.Backend)
	}
}

func TestLoadConfigMissingFileErrs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatalf("expected missing config file to error")
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to name the file, got %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "empty url", mutate: func(cfg *Config) { cfg.Backend.URL = "" }, wantErr: true},
		{name: "relative url", mutate: func(cfg *Config) { cfg.Backend.URL = "agent.example.com/api" }, wantErr: true},
		{name: "negative timeout", mutate: func(cfg *Config) { cfg.Backend.TimeoutSeconds = -1 }, wantErr: true},
		{name: "unknown audio backend", mutate: func(cfg *Config) { cfg.Audio.Backend = "coreaudio" }, wantErr: true},
		{name: "portaudio backend", mutate: func(cfg *Config) { cfg.Audio.Backend = "portaudio" }},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			cfg := DefaultConfig()
			testCase.mutate(cfg)

			err := ValidateConfig(cfg)
			if testCase.wantErr && err == nil {
				t.Fatalf("expected validation to fail")
			}
			if !testCase.wantErr && err != nil {
				t.Fatalf("expected validation to pass, got %v", err)
			}
		})
	}
}

func TestSessionFilePrefersConfiguredPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.File = "/tmp/parley-session"

	path, err := cfg.SessionFile()
	if err != nil {
		t.Fatalf("expected session file to resolve, got %v", err)
	}
	if path != "/tmp/parley-session" {
		t.Fatalf("expected configured path, got %q", path)
	}
}

func TestSessionFileDefaultsUnderUserConfigDir(t *testing.T) {
	cfg := DefaultConfig()

	path, err := cfg.SessionFile()
	if err != nil {
		t.Skipf("no user config dir available: %v", err)
	}
	if !strings.HasSuffix(path, filepath.Join("parley", "session")) {
		t.Fatalf("expected default path under the parley config dir, got %q", path)
	}
}
