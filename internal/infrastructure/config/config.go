package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Keyline Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Backend   BackendConfig   `yaml:"backend"`
	Push      PushConfig      `yaml:"push"`
	Sync      SyncConfig      `yaml:"sync"`
	Database  DatabaseConfig  `yaml:"database"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// BackendConfig contains cloud REST API settings and account credentials.
type BackendConfig struct {
	// BaseURL is the root of the vendor REST API.
	BaseURL string `yaml:"base_url"`

	// APIKey identifies this client to the vendor API.
	APIKey string `yaml:"api_key"`

	// Brand selects the vendor platform variant (affects push channel naming).
	Brand string `yaml:"brand"`

	// Identifier is the account login (email or phone in E.164 form).
	Identifier string `yaml:"identifier"`

	// Password is the account password. Prefer KEYLINE_BACKEND_PASSWORD.
	Password string `yaml:"password"`

	// InstallID is a stable per-installation identifier sent during
	// authentication. Generated once and persisted by the operator.
	InstallID string `yaml:"install_id"`

	// Timeout is the per-request timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// PushConfig contains push channel broker connection settings.
type PushConfig struct {
	Broker    PushBrokerConfig    `yaml:"broker"`
	Auth      PushAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect PushReconnectConfig `yaml:"reconnect"`
}

// PushBrokerConfig contains push broker connection details.
type PushBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// PushAuthConfig contains push broker authentication credentials.
type PushAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// PushReconnectConfig contains push broker reconnection settings (seconds).
type PushReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// SyncConfig contains device synchronisation timing settings (seconds unless noted).
type SyncConfig struct {
	// DetailRefreshInterval is the minimum time between scheduled detail
	// refreshes of a device.
	DetailRefreshInterval int `yaml:"detail_refresh_interval"`

	// HouseRefreshDebounce is how long to coalesce push-triggered house
	// activity refreshes before polling the activity log.
	HouseRefreshDebounce int `yaml:"house_refresh_debounce"`

	// SetupRetryInterval is how long the host waits before retrying setup
	// after a connectivity failure.
	SetupRetryInterval int `yaml:"setup_retry_interval"`

	// ActivityRetentionDays is how long recorded activities are kept.
	ActivityRetentionDays int `yaml:"activity_retention_days"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: KEYLINE_SECTION_KEY
// For example: KEYLINE_BACKEND_PASSWORD, KEYLINE_DATABASE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL: "https://api.keyline.example.com",
			Brand:   "default",
			Timeout: 30,
		},
		Push: PushConfig{
			Broker: PushBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "keyline-core",
			},
			QoS: 1,
			Reconnect: PushReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Sync: SyncConfig{
			DetailRefreshInterval: 1800,
			HouseRefreshDebounce:  10,
			SetupRetryInterval:    60,
			ActivityRetentionDays: 30,
		},
		Database: DatabaseConfig{
			Path:        "./data/keyline.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: KEYLINE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Backend credentials (prefer env over file for secrets)
	if v := os.Getenv("KEYLINE_BACKEND_IDENTIFIER"); v != "" {
		cfg.Backend.Identifier = v
	}
	if v := os.Getenv("KEYLINE_BACKEND_PASSWORD"); v != "" {
		cfg.Backend.Password = v
	}
	if v := os.Getenv("KEYLINE_BACKEND_API_KEY"); v != "" {
		cfg.Backend.APIKey = v
	}
	if v := os.Getenv("KEYLINE_BACKEND_BASE_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}

	// Push broker
	if v := os.Getenv("KEYLINE_PUSH_HOST"); v != "" {
		cfg.Push.Broker.Host = v
	}
	if v := os.Getenv("KEYLINE_PUSH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Push.Broker.Port = port
		}
	}
	if v := os.Getenv("KEYLINE_PUSH_USERNAME"); v != "" {
		cfg.Push.Auth.Username = v
	}
	if v := os.Getenv("KEYLINE_PUSH_PASSWORD"); v != "" {
		cfg.Push.Auth.Password = v
	}

	// Database
	if v := os.Getenv("KEYLINE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// API
	if v := os.Getenv("KEYLINE_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("KEYLINE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Backend validation
	if c.Backend.BaseURL == "" {
		errs = append(errs, "backend.base_url is required")
	}
	if c.Backend.Identifier == "" {
		errs = append(errs, "backend.identifier is required")
	}
	if c.Backend.Password == "" {
		errs = append(errs, "backend.password is required (set KEYLINE_BACKEND_PASSWORD)")
	}
	if c.Backend.Timeout <= 0 {
		errs = append(errs, "backend.timeout must be positive")
	}

	// Push validation
	if c.Push.QoS < 0 || c.Push.QoS > 2 {
		errs = append(errs, "push.qos must be 0, 1, or 2")
	}
	if c.Push.Broker.Host == "" {
		errs = append(errs, "push.broker.host is required")
	}

	// Sync validation
	if c.Sync.DetailRefreshInterval <= 0 {
		errs = append(errs, "sync.detail_refresh_interval must be positive")
	}
	if c.Sync.HouseRefreshDebounce <= 0 {
		errs = append(errs, "sync.house_refresh_debounce must be positive")
	}
	if c.Sync.SetupRetryInterval <= 0 {
		errs = append(errs, "sync.setup_retry_interval must be positive")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.API.TLS.Enabled {
		if c.API.TLS.CertFile == "" || c.API.TLS.KeyFile == "" {
			errs = append(errs, "api.tls.cert_file and api.tls.key_file are required when TLS is enabled")
		}
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when enabled (set KEYLINE_INFLUXDB_TOKEN)")
		}
	}

	// Logging validation
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
