// Gray Logic Edge - Device Management Client
//
// This is the main entry point for the Gray Logic Edge device agent.
// The agent registers a small device with the device-management server and
// exposes five resources:
//   - a button press counter the server can observe
//   - an LED blink pattern the server can read and write
//   - blink, unregister and factory reset actions
//
// All resource state is owned by a single event bridge dispatcher. Buttons,
// timers and broker callbacks only post work to it.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/nerrad567/gray-logic-edge/internal/agent"
	"github.com/nerrad567/gray-logic-edge/internal/audit"
	"github.com/nerrad567/gray-logic-edge/internal/cloud"
	"github.com/nerrad567/gray-logic-edge/internal/eventbridge"
	"github.com/nerrad567/gray-logic-edge/internal/hardware"
	"github.com/nerrad567/gray-logic-edge/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-edge/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-edge/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-edge/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-edge/internal/pattern"
	"github.com/nerrad567/gray-logic-edge/internal/provisioning"
	"github.com/nerrad567/gray-logic-edge/internal/registration"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// shutdownTimeout bounds the wait for deregistration after a signal.
const shutdownTimeout = 10 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil once the session closed cleanly, or error describing failure
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Gray Logic Edge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"device", cfg.Device.Name,
	)

	// Give a flashing tool time to finish before storage is touched.
	if delay := cfg.GetStartupDelay(); delay > 0 {
		log.Info("startup delay", "duration", delay)
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}

	bridge := eventbridge.New(eventbridge.Options{
		Capacity: cfg.EventQueue.Capacity,
		Logger:   log.Component("eventbridge"),
	})
	defer bridge.Close()

	store := provisioning.New(provisioning.Options{
		Database: cfg.Database,
		Seed: provisioning.Credentials{
			EndpointName: cfg.Provisioning.EndpointName,
			Username:     cfg.Provisioning.Username,
			Password:     cfg.Provisioning.Password,
		},
		FirmwareDir:       cfg.Provisioning.FirmwareDir,
		ReformatOnFailure: cfg.Provisioning.ReformatOnFailure,
		Logger:            log.Component("provisioning"),
	})
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Error("error closing provisioning store", "error", closeErr)
		}
	}()

	topics := mqtt.Topics{Prefix: cfg.Registration.TopicPrefix}
	service := cloud.NewService(cloud.Options{
		Dial:                cloud.MQTTDialer(cfg.MQTT, topics, log.Component("mqtt")),
		Topics:              topics,
		ClientID:            cfg.MQTT.Broker.ClientID,
		QoS:                 byte(cfg.MQTT.QoS), // #nosec G115 -- validated 0..2
		NotifyQueueSize:     cfg.Registration.NotifyQueueSize,
		RegistrationTimeout: cfg.GetRegistrationTimeout(),
		Logger:              log.Component("cloud"),
	})
	defer func() {
		log.Info("disconnecting from broker")
		if closeErr := service.Disconnect(); closeErr != nil {
			log.Error("error disconnecting from broker", "error", closeErr)
		}
	}()

	brokerAddr := net.JoinHostPort(cfg.MQTT.Broker.Host, strconv.Itoa(cfg.MQTT.Broker.Port))
	ctrl := registration.New(registration.Options{
		Bridge:            bridge,
		Service:           service,
		Network:           cloud.NewNetwork(brokerAddr, cloud.DefaultDialTimeout),
		Storage:           store,
		ConnectAttempts:   cfg.Registration.ConnectAttempts,
		ConnectRetryDelay: cfg.GetConnectRetryDelay(),
		Logger:            log.Component("registration"),
	})

	if err := ctrl.Start(ctx); err != nil {
		return fmt.Errorf("starting client: %w", err)
	}
	log.Info("client initialised", "endpoint", service.Endpoint())

	telemetry, err := connectTelemetry(cfg.InfluxDB, service.Endpoint(), log)
	if err != nil {
		return err
	}
	if telemetry != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := telemetry.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
	}

	led, err := newLED(cfg.Hardware.LED, log)
	if err != nil {
		return err
	}
	runner, err := pattern.NewRunner(pattern.Mode(strings.ToLower(cfg.Pattern.Mode)), led, bridge, log.Component("pattern"))
	if err != nil {
		return fmt.Errorf("creating pattern runner: %w", err)
	}

	opts := agent.Options{
		Controller:     ctrl,
		Runner:         runner,
		DefaultPattern: cfg.Pattern.Default,
		Audit:          audit.NewSQLiteRepository(store.DB()),
		Logger:         log.Component("agent"),
	}
	if telemetry != nil {
		opts.Telemetry = telemetry
	}
	app := agent.New(opts)
	if err := app.Setup(ctx); err != nil {
		return fmt.Errorf("creating resources: %w", err)
	}

	// From here on engine state belongs to the dispatcher.
	dispatchErr := make(chan error, 1)
	go func() {
		dispatchErr <- bridge.Run(context.WithoutCancel(ctx))
	}()

	if err := startButtons(ctx, cfg, bridge, app, log); err != nil {
		return err
	}

	if err := ctrl.RegisterAndConnect(); err != nil {
		return fmt.Errorf("registering: %w", err)
	}
	if wait := cfg.GetWaitTimeout(); wait > 0 {
		endpoint, waitErr := ctrl.WaitRegistered(ctx, wait)
		if waitErr != nil && !errors.Is(waitErr, context.Canceled) {
			return fmt.Errorf("waiting for registration: %w", waitErr)
		}
		if waitErr == nil {
			log.Info("registered", "endpoint", endpoint)
		}
	}

	log.Info("initialisation complete, running until unregistered")

	select {
	case <-ctrl.Done():
	case <-ctx.Done():
		log.Info("shutdown signal received, unregistering")
		if closeErr := ctrl.Close(); closeErr != nil {
			log.Error("error requesting close", "error", closeErr)
		}
		t := time.NewTimer(shutdownTimeout)
		select {
		case <-ctrl.Done():
		case <-t.C:
			log.Warn("unregistration timed out", "timeout", shutdownTimeout)
		}
		t.Stop()
	case err := <-dispatchErr:
		return fmt.Errorf("event dispatcher stopped: %w", err)
	}

	bridge.Close()
	<-dispatchErr

	if err := ctrl.Err(); err != nil {
		return fmt.Errorf("session ended: %w", err)
	}
	log.Info("Gray Logic Edge stopped", "state", ctrl.State().String())
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGIC_EDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_EDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// connectTelemetry connects to InfluxDB when enabled. A nil client means
// telemetry is off.
func connectTelemetry(cfg config.InfluxDBConfig, endpoint string, log *logging.Logger) (*influxdb.Client, error) {
	if !cfg.Enabled {
		log.Info("InfluxDB disabled")
		return nil, nil //nolint:nilnil // disabled is not an error
	}

	client, err := influxdb.Connect(cfg, endpoint)
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected",
		"url", cfg.URL,
		"org", cfg.Org,
		"bucket", cfg.Bucket,
	)
	return client, nil
}

// newLED returns the configured pattern actuator.
func newLED(cfg config.LEDConfig, log *logging.Logger) (pattern.Actuator, error) {
	switch strings.ToLower(cfg.Driver) {
	case "sysfs":
		log.Info("LED driver", "driver", "sysfs", "path", cfg.Path, "active_low", cfg.ActiveLow)
		return hardware.NewSysfsLED(cfg.Path, cfg.ActiveLow), nil
	case "log", "":
		return hardware.NewLogLED("led", log.Component("led")), nil
	default:
		return nil, fmt.Errorf("unknown LED driver %q", cfg.Driver)
	}
}

// startButtons wires the configured press sources to the agent.
// The press action runs on the dispatcher; sources only post it.
func startButtons(ctx context.Context, cfg *config.Config, bridge *eventbridge.Bridge, app *agent.Agent, log *logging.Logger) error {
	if cfg.Hardware.Button.Signal {
		btn := hardware.NewSignalButton(bridge, app.Press)
		go btn.Run(ctx)
		log.Info("button listening", "signal", hardware.PressSignal.String())
	}

	if interval := cfg.GetSimulateInterval(); interval > 0 {
		sim := hardware.NewSimulatedButton(bridge, interval, app.Press)
		if err := sim.Start(); err != nil {
			return fmt.Errorf("starting simulated button: %w", err)
		}
		log.Info("simulated button started", "interval", interval)
	}
	return nil
}
