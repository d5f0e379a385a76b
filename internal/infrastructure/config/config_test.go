package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
device:
  name: "bench-unit"
database:
  path: "/tmp/edge-test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "edge-test"
  qos: 1
registration:
  topic_prefix: "graylogic/dm"
  timeout: 10
pattern:
  mode: "blocking"
  default: "100:100"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.Name != "bench-unit" {
		t.Errorf("Device.Name = %q, want %q", cfg.Device.Name, "bench-unit")
	}

	if cfg.Database.Path != "/tmp/edge-test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/edge-test.db")
	}

	if cfg.MQTT.Broker.ClientID != "edge-test" {
		t.Errorf("MQTT.Broker.ClientID = %q, want %q", cfg.MQTT.Broker.ClientID, "edge-test")
	}

	if cfg.Pattern.Mode != "blocking" {
		t.Errorf("Pattern.Mode = %q, want %q", cfg.Pattern.Mode, "blocking")
	}

	// Unset sections keep their defaults
	if cfg.Registration.ConnectAttempts != 3 {
		t.Errorf("Registration.ConnectAttempts = %d, want 3", cfg.Registration.ConnectAttempts)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	configPath := writeConfig(t, `
pattern:
  mode: "turbo"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for unknown pattern mode, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "invalid broker port",
			mutate:  func(c *Config) { c.MQTT.Broker.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "missing client ID",
			mutate:  func(c *Config) { c.MQTT.Broker.ClientID = "" },
			wantErr: true,
		},
		{
			name:    "zero connect attempts",
			mutate:  func(c *Config) { c.Registration.ConnectAttempts = 0 },
			wantErr: true,
		},
		{
			name:    "zero notify queue",
			mutate:  func(c *Config) { c.Registration.NotifyQueueSize = 0 },
			wantErr: true,
		},
		{
			name:    "negative event queue capacity",
			mutate:  func(c *Config) { c.EventQueue.Capacity = -1 },
			wantErr: true,
		},
		{
			name:    "sysfs LED without path",
			mutate:  func(c *Config) { c.Hardware.LED.Driver = "sysfs" },
			wantErr: true,
		},
		{
			name: "sysfs LED with path",
			mutate: func(c *Config) {
				c.Hardware.LED.Driver = "sysfs"
				c.Hardware.LED.Path = "/sys/class/leds/led0/brightness"
			},
			wantErr: false,
		},
		{
			name:    "influxdb enabled without URL",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true; c.InfluxDB.Bucket = "edge" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetDurations(t *testing.T) {
	cfg := &Config{
		Device: DeviceConfig{StartupDelay: 2000},
		Registration: RegistrationConfig{
			Timeout:           30,
			WaitTimeout:       5,
			ConnectRetryDelay: 250,
		},
		Hardware: HardwareConfig{Button: ButtonConfig{SimulateInterval: 5000}},
	}

	if got := cfg.GetRegistrationTimeout(); got != 30*time.Second {
		t.Errorf("GetRegistrationTimeout() = %v, want 30s", got)
	}
	if got := cfg.GetWaitTimeout(); got != 5*time.Second {
		t.Errorf("GetWaitTimeout() = %v, want 5s", got)
	}
	if got := cfg.GetConnectRetryDelay(); got != 250*time.Millisecond {
		t.Errorf("GetConnectRetryDelay() = %v, want 250ms", got)
	}
	if got := cfg.GetStartupDelay(); got != 2*time.Second {
		t.Errorf("GetStartupDelay() = %v, want 2s", got)
	}
	if got := cfg.GetSimulateInterval(); got != 5*time.Second {
		t.Errorf("GetSimulateInterval() = %v, want 5s", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("GRAYLOGIC_EDGE_DATABASE_PATH", "/custom/path.db")
	t.Setenv("GRAYLOGIC_EDGE_MQTT_HOST", "mqtt.example.com")
	t.Setenv("GRAYLOGIC_EDGE_MQTT_PORT", "8883")
	t.Setenv("GRAYLOGIC_EDGE_MQTT_USERNAME", "testuser")
	t.Setenv("GRAYLOGIC_EDGE_MQTT_PASSWORD", "testpass")
	t.Setenv("GRAYLOGIC_EDGE_ENDPOINT_NAME", "edge-0001")
	t.Setenv("GRAYLOGIC_EDGE_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("GRAYLOGIC_EDGE_LOG_LEVEL", "debug")

	applyEnvOverrides(cfg)

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker.Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.Provisioning.EndpointName != "edge-0001" {
		t.Errorf("Provisioning.EndpointName = %q, want %q", cfg.Provisioning.EndpointName, "edge-0001")
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestApplyEnvOverrides_InvalidPortIgnored(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("GRAYLOGIC_EDGE_MQTT_PORT", "not-a-port")

	applyEnvOverrides(cfg)

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.Pattern.Mode != "scheduled" {
		t.Errorf("defaultConfig Pattern.Mode = %q, want %q", cfg.Pattern.Mode, "scheduled")
	}

	if cfg.Pattern.Default != "500:500:500:500" {
		t.Errorf("defaultConfig Pattern.Default = %q, want %q", cfg.Pattern.Default, "500:500:500:500")
	}
}
