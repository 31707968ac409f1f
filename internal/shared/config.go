package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Engine   EngineConfig   `toml:"engine"`
	Matching MatchingConfig `toml:"matching"`
	Callback CallbackConfig `toml:"callback"`
	Database DatabaseConfig `toml:"database"`
}

// EngineConfig contains settings for the remote migration engine.
type EngineConfig struct {
	BaseURL        string  `toml:"base_url"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RateLimit      float64 `toml:"rate_limit"`
	PollIntervalMS int     `toml:"poll_interval_ms"`
}

// Timeout returns the per-request timeout as a [time.Duration].
func (e EngineConfig) Timeout() time.Duration {
	if e.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// PollInterval returns the status poll cadence as a [time.Duration].
func (e EngineConfig) PollInterval() time.Duration {
	if e.PollIntervalMS <= 0 {
		return time.Second
	}
	return time.Duration(e.PollIntervalMS) * time.Millisecond
}

// MatchingConfig contains the match thresholds forwarded to the engine on migration start.
type MatchingConfig struct {
	HardThreshold   float64 `toml:"hard_threshold"`
	RejectThreshold float64 `toml:"reject_threshold"`
	MaxCandidates   int     `toml:"max_candidates"`
	DryRun          bool    `toml:"dry_run"`
}

// CallbackConfig contains settings for the local handshake callback endpoint.
type CallbackConfig struct {
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	AllowedOrigin string `toml:"allowed_origin"`
}

// Addr returns the listen address for the callback endpoint.
func (c CallbackConfig) Addr() string {
	host := c.Host
	if host == "" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("%s:%d", host, c.Port)
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
