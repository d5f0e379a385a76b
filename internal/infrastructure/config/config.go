package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Gray Logic Edge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device       DeviceConfig       `yaml:"device"`
	Database     DatabaseConfig     `yaml:"database"`
	MQTT         MQTTConfig         `yaml:"mqtt"`
	Registration RegistrationConfig `yaml:"registration"`
	EventQueue   EventQueueConfig   `yaml:"event_queue"`
	Pattern      PatternConfig      `yaml:"pattern"`
	Hardware     HardwareConfig     `yaml:"hardware"`
	Provisioning ProvisioningConfig `yaml:"provisioning"`
	InfluxDB     InfluxDBConfig     `yaml:"influxdb"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// DeviceConfig contains device identity settings.
type DeviceConfig struct {
	// Name is a human-readable label used in logs only.
	Name string `yaml:"name"`

	// StartupDelay is how long to wait before touching storage (milliseconds).
	// Gives a flashing tool time to finish replacing the binary.
	StartupDelay int `yaml:"startup_delay"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// RegistrationConfig contains device-management session settings.
type RegistrationConfig struct {
	// TopicPrefix is the root of the device-management topic tree.
	TopicPrefix string `yaml:"topic_prefix"`

	// Timeout is how long to wait for the server to answer a registration (seconds).
	Timeout int `yaml:"timeout"`

	// ConnectAttempts is the number of network reachability attempts before giving up.
	ConnectAttempts int `yaml:"connect_attempts"`

	// ConnectRetryDelay is the pause between network attempts (milliseconds).
	ConnectRetryDelay int `yaml:"connect_retry_delay"`

	// NotifyQueueSize bounds the outbound notification queue.
	// A full queue reports ResendQueueFull for the rejected update.
	NotifyQueueSize int `yaml:"notify_queue_size"`

	// WaitTimeout bounds the optional blocking wait for registration (seconds).
	// Zero disables the wait; registration completes asynchronously.
	WaitTimeout int `yaml:"wait_timeout"`
}

// EventQueueConfig contains event bridge settings.
type EventQueueConfig struct {
	// Capacity bounds the number of pending actions. Zero means unbounded.
	Capacity int `yaml:"capacity"`
}

// PatternConfig contains LED pattern playback settings.
type PatternConfig struct {
	// Mode is "scheduled" (non-blocking, default) or "blocking".
	Mode string `yaml:"mode"`

	// Default is the initial value of the pattern resource.
	Default string `yaml:"default"`
}

// HardwareConfig contains actuator and input settings.
type HardwareConfig struct {
	LED    LEDConfig    `yaml:"led"`
	Button ButtonConfig `yaml:"button"`
}

// LEDConfig configures the pattern LED.
type LEDConfig struct {
	// Driver is "log" (default) or "sysfs".
	Driver string `yaml:"driver"`

	// Path is the sysfs brightness file, e.g. /sys/class/leds/led0/brightness.
	Path string `yaml:"path"`

	// ActiveLow inverts the written level (LED lit when the pin is low).
	ActiveLow bool `yaml:"active_low"`
}

// ButtonConfig configures the button input.
type ButtonConfig struct {
	// Signal enables SIGUSR1 as the button press source.
	Signal bool `yaml:"signal"`

	// SimulateInterval posts a simulated press every N milliseconds. Zero disables.
	SimulateInterval int `yaml:"simulate_interval"`
}

// ProvisioningConfig contains developer credentials seeded on first boot.
type ProvisioningConfig struct {
	EndpointName      string `yaml:"endpoint_name"`
	Username          string `yaml:"username"`
	Password          string `yaml:"password"`
	FirmwareDir       string `yaml:"firmware_dir"`
	ReformatOnFailure bool   `yaml:"reformat_on_failure"`
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
// Environment variables follow the pattern: GRAYLOGIC_EDGE_SECTION_KEY
// For example: GRAYLOGIC_EDGE_DATABASE_PATH, GRAYLOGIC_EDGE_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Name:         "graylogic-edge",
			StartupDelay: 0,
		},
		Database: DatabaseConfig{
			Path:        "./data/edge.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-edge",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Registration: RegistrationConfig{
			TopicPrefix:       "graylogic/dm",
			Timeout:           30,
			ConnectAttempts:   3,
			ConnectRetryDelay: 1000,
			NotifyQueueSize:   16,
		},
		Pattern: PatternConfig{
			Mode:    "scheduled",
			Default: "500:500:500:500",
		},
		Hardware: HardwareConfig{
			LED: LEDConfig{
				Driver: "log",
			},
			Button: ButtonConfig{
				Signal: true,
			},
		},
		Provisioning: ProvisioningConfig{
			FirmwareDir:       "./data/firmware",
			ReformatOnFailure: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAYLOGIC_EDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("GRAYLOGIC_EDGE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("GRAYLOGIC_EDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYLOGIC_EDGE_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("GRAYLOGIC_EDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYLOGIC_EDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Provisioning - developer credentials should never live in the YAML file
	if v := os.Getenv("GRAYLOGIC_EDGE_ENDPOINT_NAME"); v != "" {
		cfg.Provisioning.EndpointName = v
	}
	if v := os.Getenv("GRAYLOGIC_EDGE_PROVISIONING_PASSWORD"); v != "" {
		cfg.Provisioning.Password = v
	}

	// InfluxDB
	if v := os.Getenv("GRAYLOGIC_EDGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("GRAYLOGIC_EDGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.Broker.ClientID == "" {
		errs = append(errs, "mqtt.broker.client_id is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.Registration.TopicPrefix == "" {
		errs = append(errs, "registration.topic_prefix is required")
	}
	if c.Registration.Timeout < 1 {
		errs = append(errs, "registration.timeout must be at least 1 second")
	}
	if c.Registration.ConnectAttempts < 1 {
		errs = append(errs, "registration.connect_attempts must be at least 1")
	}
	if c.Registration.NotifyQueueSize < 1 {
		errs = append(errs, "registration.notify_queue_size must be at least 1")
	}

	if c.EventQueue.Capacity < 0 {
		errs = append(errs, "event_queue.capacity must not be negative")
	}

	switch strings.ToLower(c.Pattern.Mode) {
	case "scheduled", "blocking":
	default:
		errs = append(errs, "pattern.mode must be \"scheduled\" or \"blocking\"")
	}

	switch strings.ToLower(c.Hardware.LED.Driver) {
	case "log":
	case "sysfs":
		if c.Hardware.LED.Path == "" {
			errs = append(errs, "hardware.led.path is required for the sysfs driver")
		}
	default:
		errs = append(errs, "hardware.led.driver must be \"log\" or \"sysfs\"")
	}
	if c.Hardware.Button.SimulateInterval < 0 {
		errs = append(errs, "hardware.button.simulate_interval must not be negative")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetRegistrationTimeout returns the registration response timeout as a Duration.
func (c *Config) GetRegistrationTimeout() time.Duration {
	return time.Duration(c.Registration.Timeout) * time.Second
}

// GetWaitTimeout returns the bounded registration wait as a Duration.
// Zero means the caller should not wait.
func (c *Config) GetWaitTimeout() time.Duration {
	return time.Duration(c.Registration.WaitTimeout) * time.Second
}

// GetConnectRetryDelay returns the pause between network attempts as a Duration.
func (c *Config) GetConnectRetryDelay() time.Duration {
	return time.Duration(c.Registration.ConnectRetryDelay) * time.Millisecond
}

// GetStartupDelay returns the boot delay as a Duration.
func (c *Config) GetStartupDelay() time.Duration {
	return time.Duration(c.Device.StartupDelay) * time.Millisecond
}

// GetSimulateInterval returns the simulated button period as a Duration.
func (c *Config) GetSimulateInterval() time.Duration {
	return time.Duration(c.Hardware.Button.SimulateInterval) * time.Millisecond
}
