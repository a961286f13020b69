package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fieldsync/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadWithoutFileRequiresRemoteBaseURL(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, _, _, err := config.Load("")
	if err == nil {
		t.Fatal("expected error when remote.base_url is unset")
	}
	if !strings.Contains(err.Error(), "remote.base_url") {
		t.Fatalf("expected base_url guidance, got: %v", err)
	}
	if !strings.Contains(err.Error(), "fieldsync config init") {
		t.Fatalf("expected init hint, got: %v", err)
	}
}

func TestLoadParsesFileAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := writeConfig(t, `
[paths]
data_dir = "~/fieldsync-data"

[remote]
base_url = "https://api.example.com/"
api_token = "file-token"

[sync]
interval = 120
max_attempts = 5

[logging]
level = "DEBUG"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatalf("expected file at resolved path, got exists=%v path=%q", exists, resolved)
	}

	if want := filepath.Join(tempHome, "fieldsync-data"); cfg.Paths.DataDir != want {
		t.Fatalf("data dir not expanded: got %q want %q", cfg.Paths.DataDir, want)
	}
	if cfg.Remote.BaseURL != "https://api.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Remote.BaseURL)
	}
	if cfg.Remote.APIToken != "file-token" {
		t.Fatalf("unexpected api token: %q", cfg.Remote.APIToken)
	}
	if cfg.Sync.Interval != 120 || cfg.Sync.MaxAttempts != 5 {
		t.Fatalf("sync section not applied: %+v", cfg.Sync)
	}
	if cfg.Sync.RetryDelay != config.Default().Sync.RetryDelay {
		t.Fatalf("expected default retry delay, got %d", cfg.Sync.RetryDelay)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected lowercased level, got %q", cfg.Logging.Level)
	}

	if cfg.SocketPath() != filepath.Join(cfg.Paths.DataDir, "fieldsyncd.sock") {
		t.Fatalf("unexpected socket path: %q", cfg.SocketPath())
	}
	if cfg.QueueDatabasePath() != filepath.Join(cfg.Paths.DataDir, "queue.db") {
		t.Fatalf("unexpected queue db path: %q", cfg.QueueDatabasePath())
	}
}

func TestLoadUsesEnvAPITokenWhenFileOmitsIt(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FIELDSYNC_API_TOKEN", "env-token")

	path := writeConfig(t, `
[remote]
base_url = "https://api.example.com"
`)
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Remote.APIToken != "env-token" {
		t.Fatalf("expected token from env, got %q", cfg.Remote.APIToken)
	}
}

func TestLoadPrefersFileTokenOverEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FIELDSYNC_API_TOKEN", "env-token")

	path := writeConfig(t, `
[remote]
base_url = "https://api.example.com"
api_token = "file-token"
`)
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Remote.APIToken != "file-token" {
		t.Fatalf("expected file token to win, got %q", cfg.Remote.APIToken)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"empty data dir", func(c *config.Config) { c.Paths.DataDir = "" }},
		{"relative base url", func(c *config.Config) { c.Remote.BaseURL = "api.example.com" }},
		{"negative sync interval", func(c *config.Config) { c.Sync.Interval = -1 }},
		{"negative max attempts", func(c *config.Config) { c.Sync.MaxAttempts = -1 }},
		{"negative retry delay", func(c *config.Config) { c.Sync.RetryDelay = -5 }},
		{"bad probe url", func(c *config.Config) { c.Network.ProbeURL = "not a url" }},
		{"zero probe interval", func(c *config.Config) { c.Network.ProbeInterval = 0 }},
		{"zero probe timeout", func(c *config.Config) { c.Network.ProbeTimeout = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Remote.BaseURL = "https://api.example.com"
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
