package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  host: news.example.com
  port: 563
  username: reader
  password: secret
  timeout: 5s
log:
  level: debug
store:
  driver: pgx
  dsn: postgres://localhost/news
api:
  listen: 127.0.0.1:9000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Host != "news.example.com" || cfg.Server.Port != 563 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.Username != "reader" || cfg.Server.Password != "secret" {
		t.Errorf("credentials not loaded: %+v", cfg.Server)
	}
	if cfg.Server.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", cfg.Server.Timeout)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if cfg.Store.Driver != "pgx" || cfg.Store.DSN != "postgres://localhost/news" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Store.BlobDir != "./data/bodies" {
		t.Errorf("blob dir default not applied: %q", cfg.Store.BlobDir)
	}
	if cfg.API.Listen != "127.0.0.1:9000" {
		t.Errorf("api listen = %q", cfg.API.Listen)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NNTPSERVER", "")
	t.Setenv("GONEWS_SERVER_HOST", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 119 {
		t.Errorf("port = %d, want 119", cfg.Server.Port)
	}
	if cfg.Server.Timeout != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", cfg.Server.Timeout)
	}
	if cfg.Store.Driver != "sqlite" {
		t.Errorf("driver = %q, want sqlite", cfg.Store.Driver)
	}
	if err := cfg.RequireHost(); err == nil {
		t.Error("expected RequireHost to fail without a host")
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestHostResolution(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		env      map[string]string
		expected string
	}{
		{
			name:     "NNTPSERVER fallback",
			env:      map[string]string{"NNTPSERVER": "news.fallback.org"},
			expected: "news.fallback.org",
		},
		{
			name: "prefixed variable wins over NNTPSERVER",
			env: map[string]string{
				"NNTPSERVER":         "news.fallback.org",
				"GONEWS_SERVER_HOST": "news.primary.org",
			},
			expected: "news.primary.org",
		},
		{
			name:     "environment overrides file",
			file:     "server:\n  host: news.file.org\n",
			env:      map[string]string{"GONEWS_SERVER_HOST": "news.env.org"},
			expected: "news.env.org",
		},
		{
			name:     "file used when environment empty",
			file:     "server:\n  host: news.file.org\n",
			expected: "news.file.org",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NNTPSERVER", "")
			t.Setenv("GONEWS_SERVER_HOST", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			} else {
				t.Chdir(t.TempDir())
			}

			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Server.Host != tt.expected {
				t.Errorf("host = %q, want %q", cfg.Server.Host, tt.expected)
			}
		})
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{"password without user", "server:\n  host: h\n  password: x\n"},
		{"bad port", "server:\n  host: h\n  port: 70000\n"},
		{"unknown driver", "store:\n  driver: mysql\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.file)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
