package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-edge/internal/agent"
	"github.com/nerrad567/gray-logic-edge/internal/eventbridge"
	"github.com/nerrad567/gray-logic-edge/internal/hardware"
	"github.com/nerrad567/gray-logic-edge/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-edge/internal/infrastructure/logging"
)

// writeConfig writes a config file into a temp dir and points run at it.
func testLogger() *logging.Logger {
	return logging.NewWithWriter(io.Discard, config.LoggingConfig{Level: "error", Format: "text"}, "test")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("GRAYLOGIC_EDGE_CONFIG", path)
	return dir
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("GRAYLOGIC_EDGE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_InvalidPatternMode verifies validation rejects an unknown mode.
func TestRun_InvalidPatternMode(t *testing.T) {
	writeConfig(t, `
pattern:
  mode: turbo
logging:
  level: error
`)

	if err := run(context.Background()); err == nil {
		t.Fatal("run() should fail with unknown pattern mode")
	}
}

// TestRun_NetworkUnreachable verifies run gives up after the configured
// connect attempts when nothing listens on the broker port.
func TestRun_NetworkUnreachable(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, `
database:
  path: "`+filepath.Join(dir, "edge.db")+`"
mqtt:
  broker:
    host: "127.0.0.1"
    port: 1
    client_id: "test-edge"
registration:
  connect_attempts: 1
  connect_retry_delay: 1
provisioning:
  endpoint_name: "edge-test"
  username: "dev"
  password: "dev"
  firmware_dir: "`+filepath.Join(dir, "firmware")+`"
hardware:
  button:
    signal: false
logging:
  level: error
`)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail when the broker is unreachable")
	}
	if _, err := os.Stat(filepath.Join(dir, "edge.db")); err != nil {
		t.Errorf("provisioning database not created: %v", err)
	}
}

// TestRun_CancelledDuringStartupDelay verifies a signal during the boot
// delay exits cleanly.
func TestRun_CancelledDuringStartupDelay(t *testing.T) {
	writeConfig(t, `
device:
  startup_delay: 60000
logging:
  level: error
`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := run(ctx); err != nil {
		t.Errorf("run() error = %v, want nil", err)
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv("GRAYLOGIC_EDGE_CONFIG", "")
		if path := getConfigPath(); path != defaultConfigPath {
			t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
		}
	})

	t.Run("env override", func(t *testing.T) {
		expected := "/custom/path/config.yaml"
		t.Setenv("GRAYLOGIC_EDGE_CONFIG", expected)
		if path := getConfigPath(); path != expected {
			t.Errorf("getConfigPath() = %q, want %q", path, expected)
		}
	})
}

func TestNewLED(t *testing.T) {
	log := testLogger()

	tests := []struct {
		name    string
		cfg     config.LEDConfig
		wantErr bool
		check   func(t *testing.T, v any)
	}{
		{
			name: "default is log",
			cfg:  config.LEDConfig{},
			check: func(t *testing.T, v any) {
				if _, ok := v.(*hardware.LogLED); !ok {
					t.Errorf("newLED() = %T, want *hardware.LogLED", v)
				}
			},
		},
		{
			name: "sysfs",
			cfg:  config.LEDConfig{Driver: "sysfs", Path: "/sys/class/leds/led0/brightness"},
			check: func(t *testing.T, v any) {
				if _, ok := v.(*hardware.SysfsLED); !ok {
					t.Errorf("newLED() = %T, want *hardware.SysfsLED", v)
				}
			},
		},
		{
			name:    "unknown",
			cfg:     config.LEDConfig{Driver: "gpio"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			led, err := newLED(tt.cfg, log)
			if (err != nil) != tt.wantErr {
				t.Fatalf("newLED() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, led)
			}
		})
	}
}

func TestConnectTelemetry_Disabled(t *testing.T) {
	client, err := connectTelemetry(config.InfluxDBConfig{}, "edge-test", testLogger())
	if err != nil {
		t.Fatalf("connectTelemetry() error = %v", err)
	}
	if client != nil {
		t.Error("connectTelemetry() should return nil when disabled")
	}
}

func TestStartButtons_Simulated(t *testing.T) {
	tests := []struct {
		name     string
		interval int
		want     int
	}{
		{"disabled", 0, 0},
		{"every 5s", 5000, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bridge := eventbridge.New(eventbridge.Options{})
			defer bridge.Close()

			cfg := &config.Config{}
			cfg.Hardware.Button.SimulateInterval = tt.interval
			app := agent.New(agent.Options{})

			if err := startButtons(context.Background(), cfg, bridge, app, testLogger()); err != nil {
				t.Fatalf("startButtons() error = %v", err)
			}
			if got := bridge.Len(); got != tt.want {
				t.Errorf("scheduled actions = %d, want %d", got, tt.want)
			}
		})
	}
}
