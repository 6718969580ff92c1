package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/keyline-core/internal/backend"
	"github.com/nerrad567/keyline-core/internal/fleet"
)

// TestRun_InvalidConfig verifies run fails with an invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	originalEnv := os.Getenv("KEYLINE_CONFIG")
	defer os.Setenv("KEYLINE_CONFIG", originalEnv)

	os.Setenv("KEYLINE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingDatabasePath verifies run fails when config validation
// rejects an empty database path.
func TestRun_MissingDatabasePath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `
backend:
  base_url: "https://api.example.com"
  api_key: "test-key"
  brand: "august"
  identifier: "user@example.com"
  password: "secret"
  install_id: "test-install"
  timeout: 10

push:
  broker:
    host: "127.0.0.1"
    port: 1883
    client_id: "test-client"
    tls: false
  qos: 1
  reconnect:
    initial_delay: 1
    max_delay: 60

sync:
  detail_refresh_interval: 900
  house_refresh_debounce: 10
  setup_retry_interval: 30

database:
  path: ""
  wal_mode: true
  busy_timeout: 5

influxdb:
  enabled: false

logging:
  level: info
  format: text
  output: stdout

api:
  host: "127.0.0.1"
  port: 8100
  timeouts:
    read: 30
    write: 60
    idle: 120
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("KEYLINE_CONFIG")
	defer os.Setenv("KEYLINE_CONFIG", originalEnv)
	os.Setenv("KEYLINE_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with empty database path")
	}
}

func TestGetConfigPath_Default(t *testing.T) {
	originalEnv := os.Getenv("KEYLINE_CONFIG")
	defer os.Setenv("KEYLINE_CONFIG", originalEnv)
	os.Unsetenv("KEYLINE_CONFIG")

	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}
}

func TestGetConfigPath_EnvOverride(t *testing.T) {
	originalEnv := os.Getenv("KEYLINE_CONFIG")
	defer os.Setenv("KEYLINE_CONFIG", originalEnv)
	os.Setenv("KEYLINE_CONFIG", "/custom/config.yaml")

	if got := getConfigPath(); got != "/custom/config.yaml" {
		t.Errorf("getConfigPath() = %q, want /custom/config.yaml", got)
	}
}

func TestRetryableSetupError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unreachable cloud", backend.ErrUnavailable, true},
		{"bad credentials", backend.ErrAuthRequired, false},
		{"needs 2fa", backend.ErrValidationRequired, false},
		{"already started", fleet.ErrAlreadyStarted, false},
		{"cancelled", context.Canceled, false},
		{"api error", &backend.APIError{StatusCode: 500, Message: "boom"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryableSetupError(tt.err); got != tt.want {
				t.Errorf("retryableSetupError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryableSetupError_Wrapped(t *testing.T) {
	err := errors.Join(errors.New("refreshing details"), backend.ErrAuthRequired)
	if retryableSetupError(err) {
		t.Error("wrapped auth error should not be retryable")
	}
}
