package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-edge/internal/audit"
	"github.com/nerrad567/gray-logic-edge/internal/notification"
	"github.com/nerrad567/gray-logic-edge/internal/pattern"
	"github.com/nerrad567/gray-logic-edge/internal/resource"
)

// Resource paths exposed by the device.
var (
	ButtonPath       = resource.MustParsePath("3200/0/5501")
	PatternPath      = resource.MustParsePath("3201/0/5853")
	BlinkPath        = resource.MustParsePath("3201/0/5850")
	UnregisterPath   = resource.MustParsePath("5000/0/1")
	FactoryResetPath = resource.MustParsePath("5000/0/2")
)

// DefaultPattern is the initial LED pattern.
const DefaultPattern = "500:500:500:500"

// Controller is the part of registration.Controller the agent drives.
type Controller interface {
	CreateResource(path resource.Path, name string, methods resource.Method, observable bool) (*resource.Resource, error)
	Close() error
	FactoryReset(ctx context.Context) error
}

// Telemetry records values and delivery outcomes. *influxdb.Client satisfies it.
type Telemetry interface {
	WriteResourceValue(path, name string, value []byte)
	WriteNotificationStatus(path, status, state string, attempts int)
}

// Logger defines the logging interface used by the agent.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// noTelemetry discards telemetry.
type noTelemetry struct{}

func (noTelemetry) WriteResourceValue(string, string, []byte)           {}
func (noTelemetry) WriteNotificationStatus(string, string, string, int) {}

// Options configures an Agent.
type Options struct {
	Controller Controller

	// Runner plays the LED pattern on blink.
	Runner pattern.Runner

	// DefaultPattern seeds the pattern resource. Empty means DefaultPattern.
	DefaultPattern string

	// Telemetry is optional.
	Telemetry Telemetry

	// Audit records server-initiated actions. Optional.
	Audit audit.Repository

	Logger Logger
}

// Agent is the device application: five resources and their handlers.
//
// Every handler runs on the event bridge dispatcher, as does Press.
type Agent struct {
	ctrl      Controller
	runner    pattern.Runner
	telemetry Telemetry
	audit     audit.Repository
	logger    Logger
	initial   string

	// ctx is passed to playback and factory reset.
	ctx context.Context

	button  *resource.Resource
	pattern *resource.Resource
	presses int64
}

// New creates an agent. Call Setup before registration.
func New(opts Options) *Agent {
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.Telemetry == nil {
		opts.Telemetry = noTelemetry{}
	}
	if opts.DefaultPattern == "" {
		opts.DefaultPattern = DefaultPattern
	}
	return &Agent{
		ctrl:      opts.Controller,
		runner:    opts.Runner,
		telemetry: opts.Telemetry,
		audit:     opts.Audit,
		logger:    opts.Logger,
		initial:   opts.DefaultPattern,
		ctx:       context.Background(),
	}
}

// Setup creates the resources on the controller and binds their handlers.
//
// Resources:
//   - 3200/0/5501 button_resource: GET, observable, press counter
//   - 3201/0/5853 pattern_resource: GET|PUT, LED pattern
//   - 3201/0/5850 blink_resource: POST, plays the pattern
//   - 5000/0/1 unregister: POST, closes the session
//   - 5000/0/2 factory_reset: POST, wipes credentials then closes
func (a *Agent) Setup(ctx context.Context) error {
	a.ctx = ctx

	var err error
	create := func(path resource.Path, name string, methods resource.Method, observable bool) *resource.Resource {
		if err != nil {
			return nil
		}
		var r *resource.Resource
		if r, err = a.ctrl.CreateResource(path, name, methods, observable); err != nil {
			err = fmt.Errorf("creating %s: %w", name, err)
		}
		return r
	}

	a.button = create(ButtonPath, "button_resource", resource.MethodGet, true)
	a.pattern = create(PatternPath, "pattern_resource", resource.MethodGet|resource.MethodPut, false)
	blink := create(BlinkPath, "blink_resource", resource.MethodPost, false)
	unregister := create(UnregisterPath, "unregister", resource.MethodPost, false)
	reset := create(FactoryResetPath, "factory_reset", resource.MethodPost, false)
	if err != nil {
		return err
	}

	a.button.SetInt(0)
	a.pattern.SetString(a.initial)

	return errors.Join(
		a.button.BindNotify(resource.NotifyFunc(a.onButtonStatus)),
		a.pattern.BindPut(resource.PutFunc(a.onPatternPut)),
		blink.BindPost(resource.PostFunc(a.onBlink)),
		unregister.BindPost(resource.PostFunc(a.onUnregister)),
		reset.BindPost(resource.PostFunc(a.onFactoryReset)),
	)
}

// Press records one button press. Post it to the bridge; never call it
// from a producer goroutine.
func (a *Agent) Press() {
	a.presses++
	a.logger.Info("button clicked", "count", a.presses)
	a.button.SetInt(a.presses)
	a.telemetry.WriteResourceValue(ButtonPath.String(), a.button.Name(), a.button.Value())
}

// Presses returns the press count. Dispatcher only.
func (a *Agent) Presses() int64 { return a.presses }

func (a *Agent) onPatternPut(r *resource.Resource, value []byte) {
	a.logger.Info("PUT received", "path", r.Path().String(), "value", string(value))
	a.telemetry.WriteResourceValue(r.Path().String(), r.Name(), value)
	a.record(audit.ActionPatternChanged, r.Path(), map[string]any{"pattern": string(value)})
}

// onBlink parses the pattern at invoke time. A malformed pattern plays nothing.
func (a *Agent) onBlink(_ *resource.Resource, _ []byte) {
	raw := a.pattern.String()
	a.logger.Info("blink requested", "pattern", raw)

	steps, err := pattern.Parse(raw)
	if err != nil {
		a.logger.Warn("blink ignored: invalid pattern", "pattern", raw, "error", err)
		a.record(audit.ActionBlink, BlinkPath, map[string]any{"pattern": raw, "error": err.Error()})
		return
	}
	a.record(audit.ActionBlink, BlinkPath, map[string]any{"pattern": raw, "duration_ms": pattern.Total(steps).Milliseconds()})
	if err := a.runner.Run(a.ctx, steps); err != nil {
		a.logger.Warn("blink interrupted", "error", err)
	}
}

func (a *Agent) onUnregister(_ *resource.Resource, _ []byte) {
	a.logger.Info("unregister resource executed")
	a.record(audit.ActionUnregister, UnregisterPath, nil)
	if err := a.ctrl.Close(); err != nil {
		a.logger.Error("unregister failed", "error", err)
	}
}

// onFactoryReset records the request before wiping. A successful wipe
// clears the trail, that row included; a failed one leaves the request and
// its error behind.
func (a *Agent) onFactoryReset(_ *resource.Resource, _ []byte) {
	a.logger.Warn("factory reset resource executed")
	a.record(audit.ActionFactoryReset, FactoryResetPath, map[string]any{"outcome": "requested"})

	if err := a.ctrl.FactoryReset(a.ctx); err != nil {
		a.logger.Error("factory reset failed", "error", err)
		a.record(audit.ActionFactoryReset, FactoryResetPath, map[string]any{"outcome": "failed", "error": err.Error()})
		return
	}
	a.logger.Info("factory reset completed, restart the device")
}

// record appends to the audit trail. Failures are logged and otherwise ignored.
func (a *Agent) record(action string, path resource.Path, details map[string]any) {
	if a.audit == nil {
		return
	}
	entry := &audit.Log{
		Action:  action,
		Path:    path.String(),
		Source:  audit.SourceServer,
		Details: details,
	}
	if err := a.audit.Create(a.ctx, entry); err != nil {
		a.logger.Warn("audit record failed", "action", action, "error", err)
	}
}

func (a *Agent) onButtonStatus(r *resource.Resource, status notification.Status, state notification.State) {
	a.logger.Info("notification status",
		"path", r.Path().String(),
		"status", describeStatus(status),
		"state", state.String(),
	)
	a.telemetry.WriteNotificationStatus(r.Path().String(), status.String(), state.String(), int(r.Tracker().Attempts()))
}

func describeStatus(s notification.Status) string {
	switch s {
	case notification.StatusBuildError:
		return "error when building message"
	case notification.StatusResendQueueFull:
		return "resend queue full"
	case notification.StatusSent:
		return "notification sent to server"
	case notification.StatusDelivered:
		return "notification delivered"
	case notification.StatusSendFailed:
		return "notification sending failed"
	case notification.StatusSubscribed:
		return "subscribed"
	case notification.StatusUnsubscribed:
		return "subscription removed"
	default:
		return s.String()
	}
}
