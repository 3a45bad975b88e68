package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// TokenEnvVar overrides [APIConfig.Token] when set.
const TokenEnvVar = "SIGNX_API_TOKEN"

// DefaultTimeout applies when no HTTP timeout is configured.
const DefaultTimeout = 30 * time.Second

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
	Events   EventsConfig   `toml:"events"`
}

// APIConfig contains connection settings for the signage management API.
type APIConfig struct {
	BaseURL        string  `toml:"base_url"`
	Token          string  `toml:"token"`
	Network        string  `toml:"network"` // Network code; "FW" enables split device names
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RateLimit      float64 `toml:"rate_limit"` // Requests per second
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// EventsConfig selects where planning outcomes and tag edits are published. Both sinks are optional.
type EventsConfig struct {
	MQTT   MQTTConfig   `toml:"mqtt"`
	Influx InfluxConfig `toml:"influx"`
}

// MQTTConfig configures the MQTT event sink. An empty Broker disables it.
type MQTTConfig struct {
	Broker      string `toml:"broker"` // e.g. "tcp://localhost:1883"
	ClientID    string `toml:"client_id"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
	QoS         int    `toml:"qos"`
	TopicPrefix string `toml:"topic_prefix"`
}

// InfluxConfig configures the InfluxDB v2 event sink. An empty URL disables it.
type InfluxConfig struct {
	URL    string `toml:"url"`
	Token  string `toml:"token"`
	Org    string `toml:"org"`
	Bucket string `toml:"bucket"`
}

// Validate checks the enabled sinks.
func (c EventsConfig) Validate() error {
	if c.MQTT.Broker != "" && (c.MQTT.QoS < 0 || c.MQTT.QoS > 2) {
		return fmt.Errorf("%w: events.mqtt.qos must be 0, 1, or 2", ErrInvalidConfig)
	}
	if c.Influx.URL != "" && (c.Influx.Org == "" || c.Influx.Bucket == "") {
		return fmt.Errorf("%w: events.influx needs org and bucket", ErrInvalidConfig)
	}
	return nil
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Timeout returns the configured HTTP timeout, or 30 seconds when unset.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate checks that the API section can be used to build a client.
func (c APIConfig) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("%w: api.base_url is empty", ErrInvalidConfig)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: api.rate_limit must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep their defaults, and [TokenEnvVar] takes precedence over the file's token.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyEnv()
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
	return &config
}

func (c *Config) applyEnv() {
	if token := os.Getenv(TokenEnvVar); token != "" {
		c.API.Token = token
	}
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
