package hardware

import (
	"fmt"
	"os"
	"sync"
)

// Logger defines the logging interface used by hardware drivers.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// LogLED is an LED that only logs its transitions. Used on hosts without
// a controllable LED and in development.
//
// Thread Safety:
//   - Safe for concurrent use.
type LogLED struct {
	name   string
	logger Logger

	mu      sync.Mutex
	on      bool
	toggles int
}

// NewLogLED creates a log-only LED.
func NewLogLED(name string, logger Logger) *LogLED {
	if logger == nil {
		logger = noopLogger{}
	}
	return &LogLED{name: name, logger: logger}
}

// Set implements pattern.Actuator.
func (l *LogLED) Set(on bool) error {
	l.mu.Lock()
	changed := l.on != on
	l.on = on
	if changed {
		l.toggles++
	}
	l.mu.Unlock()

	if changed {
		l.logger.Info("led", "name", l.name, "on", on)
	}
	return nil
}

// On reports the current level.
func (l *LogLED) On() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on
}

// Toggles returns how many level changes have been made.
func (l *LogLED) Toggles() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.toggles
}

// SysfsLED drives a Linux LED class device through its brightness file,
// e.g. /sys/class/leds/led0/brightness.
type SysfsLED struct {
	path      string
	activeLow bool
}

// NewSysfsLED creates an LED writing to path. With activeLow the written
// level is inverted.
func NewSysfsLED(path string, activeLow bool) *SysfsLED {
	return &SysfsLED{path: path, activeLow: activeLow}
}

// Set implements pattern.Actuator.
func (l *SysfsLED) Set(on bool) error {
	level := "0"
	if on != l.activeLow {
		level = "1"
	}
	// #nosec G306 -- sysfs attribute, permissions are owned by the kernel
	if err := os.WriteFile(l.path, []byte(level), 0o644); err != nil {
		return fmt.Errorf("setting led %s: %w", l.path, err)
	}
	return nil
}
