package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		t.Setenv(TokenEnvVar, "")
		config := DefaultConfig()

		if config.Database.Path != "./signx.db" {
			t.Errorf("expected database path ./signx.db, got %s", config.Database.Path)
		}

		if config.API.BaseURL != "http://localhost:8090/api" {
			t.Errorf("expected base URL http://localhost:8090/api, got %s", config.API.BaseURL)
		}

		if config.API.RateLimit != 5.0 {
			t.Errorf("expected rate limit 5, got %v", config.API.RateLimit)
		}

		if config.Log.Level != "info" {
			t.Errorf("expected log level info, got %s", config.Log.Level)
		}

		if config.Events.MQTT.Broker != "" || config.Events.Influx.URL != "" {
			t.Error("expected event sinks to be disabled by default")
		}
		if config.Events.MQTT.TopicPrefix != "signx" || config.Events.MQTT.QoS != 1 {
			t.Errorf("unexpected mqtt defaults %+v", config.Events.MQTT)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		t.Setenv(TokenEnvVar, "")
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[api]
base_url = "https://signage.example.com/api"
token = "file-token"
network = "FW"
timeout_seconds = 5

[database]
path = "/custom/path.db"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.BaseURL != "https://signage.example.com/api" {
			t.Errorf("expected custom base URL, got %s", config.API.BaseURL)
		}
		if config.API.Network != "FW" {
			t.Errorf("expected network FW, got %s", config.API.Network)
		}
		if config.API.Timeout() != 5*time.Second {
			t.Errorf("expected 5s timeout, got %v", config.API.Timeout())
		}
		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
		if config.API.RateLimit != 5.0 {
			t.Errorf("expected default rate limit to survive partial file, got %v", config.API.RateLimit)
		}
		if config.API.Token != "file-token" {
			t.Errorf("expected token from file, got %s", config.API.Token)
		}
	})

	t.Run("Token From Environment", func(t *testing.T) {
		t.Setenv(TokenEnvVar, "env-token")
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := os.WriteFile(configPath, []byte("[api]\ntoken = \"file-token\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}
		if config.API.Token != "env-token" {
			t.Errorf("expected env token to win, got %s", config.API.Token)
		}
	})

	t.Run("Invalid TOML", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")
		if err := os.WriteFile(configPath, []byte("[api\nbase_url ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestAPIConfig(t *testing.T) {
	t.Run("Timeout Defaults", func(t *testing.T) {
		if got := (APIConfig{}).Timeout(); got != 30*time.Second {
			t.Errorf("expected 30s default timeout, got %v", got)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name    string
			config  APIConfig
			wantErr bool
		}{
			{name: "valid", config: APIConfig{BaseURL: "http://x"}},
			{name: "empty base url", config: APIConfig{BaseURL: "  "}, wantErr: true},
			{name: "negative rate", config: APIConfig{BaseURL: "http://x", RateLimit: -1}, wantErr: true},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.config.Validate()
				if (err != nil) != tt.wantErr {
					t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				}
			})
		}
	})
}

func TestParseLogLevel(t *testing.T) {
	tc := []struct {
		in   string
		want string
	}{
		{"debug", "debug"},
		{"WARN", "warn"},
		{"error", "error"},
		{"", "info"},
		{"verbose", "info"},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLogLevel(tt.in).String(); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestEventsConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  EventsConfig
		wantErr bool
	}{
		{"disabled", EventsConfig{}, false},
		{"mqtt", EventsConfig{MQTT: MQTTConfig{Broker: "tcp://localhost:1883", QoS: 1}}, false},
		{"mqtt bad qos", EventsConfig{MQTT: MQTTConfig{Broker: "tcp://localhost:1883", QoS: 3}}, true},
		{"bad qos ignored when disabled", EventsConfig{MQTT: MQTTConfig{QoS: 3}}, false},
		{"influx", EventsConfig{Influx: InfluxConfig{URL: "http://localhost:8086", Org: "ops", Bucket: "signx"}}, false},
		{"influx without bucket", EventsConfig{Influx: InfluxConfig{URL: "http://localhost:8086", Org: "ops"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
