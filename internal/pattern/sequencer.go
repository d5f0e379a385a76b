package pattern

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-edge/internal/eventbridge"
)

// Sequencer is the non-blocking interpreter.
//
// Each toggle is a bridge action that posts the next one after the step
// duration, so other queued actions interleave with playback. Start must be
// called on the dispatcher goroutine; starting again cancels the playback in
// progress.
type Sequencer struct {
	led    Actuator
	sched  Scheduler
	logger Logger

	steps   []time.Duration
	next    int
	on      bool
	toggles int
	pending eventbridge.Handle
	running bool

	// gen invalidates steps of a superseded playback that were already
	// dequeued when Cancel ran.
	gen uint64
}

// NewSequencer creates a scheduled player.
func NewSequencer(led Actuator, sched Scheduler, logger Logger) *Sequencer {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Sequencer{led: led, sched: sched, logger: logger}
}

// Start begins playback. The first toggle happens before Start returns.
func (s *Sequencer) Start(steps []time.Duration) error {
	s.Stop()

	s.gen++
	s.steps = steps
	s.next = 0
	s.on = false
	s.toggles = 0
	s.running = true

	return s.step(s.gen)
}

// Run implements Runner. The context is not used: playback outlives the
// invoking action.
func (s *Sequencer) Run(_ context.Context, steps []time.Duration) error {
	return s.Start(steps)
}

// Stop cancels playback in progress and switches the actuator off.
func (s *Sequencer) Stop() {
	if !s.running {
		return
	}
	if s.pending != 0 {
		s.sched.Cancel(s.pending)
		s.pending = 0
	}
	s.finish()
	s.logger.Debug("pattern playback cancelled", "toggles", s.toggles)
}

// Running reports whether playback is in progress.
func (s *Sequencer) Running() bool { return s.running }

// Toggles returns the toggle count of the current or last playback.
func (s *Sequencer) Toggles() int { return s.toggles }

func (s *Sequencer) step(gen uint64) error {
	if gen != s.gen || !s.running {
		return nil
	}
	s.pending = 0

	if s.next >= len(s.steps) {
		s.finish()
		s.logger.Debug("pattern played", "steps", len(s.steps), "toggles", s.toggles)
		return nil
	}

	s.on = !s.on
	if err := s.led.Set(s.on); err != nil {
		s.finish()
		return fmt.Errorf("setting actuator: %w", err)
	}
	s.toggles++

	d := s.steps[s.next]
	s.next++

	h, err := s.sched.PostAfter(d, func() {
		if err := s.step(gen); err != nil {
			s.logger.Warn("pattern playback aborted", "error", err)
		}
	})
	if err != nil {
		s.finish()
		return fmt.Errorf("scheduling pattern step: %w", err)
	}
	s.pending = h
	return nil
}

func (s *Sequencer) finish() {
	s.running = false
	s.on = false
	if err := s.led.Set(false); err != nil {
		s.logger.Warn("failed to switch actuator off", "error", err)
	}
}
