package pattern

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-edge/internal/eventbridge"
)

// Actuator is a two-state output such as an LED.
type Actuator interface {
	Set(on bool) error
}

// Logger defines the logging interface used by playback.
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

// Runner plays a parsed pattern. Implementations differ in whether Run
// returns before playback ends.
type Runner interface {
	Run(ctx context.Context, steps []time.Duration) error
}

// Mode selects a Runner.
type Mode string

const (
	// ModeScheduled plays through self-rescheduling bridge actions.
	ModeScheduled Mode = "scheduled"

	// ModeBlocking plays inline and holds the dispatcher until done.
	ModeBlocking Mode = "blocking"
)

// NewRunner returns the Runner for mode.
func NewRunner(mode Mode, led Actuator, sched Scheduler, logger Logger) (Runner, error) {
	switch mode {
	case ModeScheduled, "":
		return NewSequencer(led, sched, logger), nil
	case ModeBlocking:
		return NewPlayer(led, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// Player is the blocking interpreter.
//
// Play toggles the actuator, waits the step duration, and repeats; then it
// forces the actuator off. It runs on the caller's goroutine, so when called
// from a bridge action every other queued action waits for the full pattern.
type Player struct {
	led    Actuator
	logger Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewPlayer creates a blocking player.
func NewPlayer(led Actuator, logger Logger) *Player {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Player{led: led, logger: logger, sleep: sleepCtx}
}

// Play runs steps to completion and returns the number of toggles.
//
// Cancelling ctx stops between steps; the actuator is still forced off.
// An actuator error aborts playback.
func (p *Player) Play(ctx context.Context, steps []time.Duration) (int, error) {
	on := false
	toggles := 0

	for _, d := range steps {
		on = !on
		if err := p.led.Set(on); err != nil {
			p.off()
			return toggles, fmt.Errorf("setting actuator: %w", err)
		}
		toggles++

		if err := p.sleep(ctx, d); err != nil {
			p.off()
			return toggles, err
		}
	}

	if err := p.led.Set(false); err != nil {
		return toggles, fmt.Errorf("setting actuator off: %w", err)
	}
	p.logger.Debug("pattern played", "steps", len(steps), "toggles", toggles)
	return toggles, nil
}

// Run implements Runner.
func (p *Player) Run(ctx context.Context, steps []time.Duration) error {
	_, err := p.Play(ctx, steps)
	return err
}

func (p *Player) off() {
	if err := p.led.Set(false); err != nil {
		p.logger.Warn("failed to switch actuator off", "error", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Scheduler is the part of the event bridge the Sequencer needs.
type Scheduler interface {
	PostAfter(delay time.Duration, fn eventbridge.Action) (eventbridge.Handle, error)
	Cancel(h eventbridge.Handle) bool
}
