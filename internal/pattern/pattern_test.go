package pattern

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-edge/internal/eventbridge"
	"github.com/nerrad567/gray-logic-edge/internal/testutil"
)

// fakeLED records every Set call.
type fakeLED struct {
	calls []bool
	err   error
}

func (l *fakeLED) Set(on bool) error {
	l.calls = append(l.calls, on)
	return l.err
}

func (l *fakeLED) state() bool {
	if len(l.calls) == 0 {
		return false
	}
	return l.calls[len(l.calls)-1]
}

func ms(v ...int) []time.Duration {
	out := make([]time.Duration, len(v))
	for i, n := range v {
		out[i] = time.Duration(n) * time.Millisecond
	}
	return out
}

func equalDurations(a, b []time.Duration) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// =============================================================================
// Parse Tests
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    []time.Duration
		wantErr bool
	}{
		{"500:200:500", ms(500, 200, 500), false},
		{"0", ms(0), false},
		{" 100 : 50 ", ms(100, 50), false},
		{"", nil, false},
		{"   ", nil, false},
		{"500:abc:500", nil, true},
		{"500::500", nil, true},
		{"-5", nil, true},
		{"500:", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPattern) {
					t.Errorf("Parse(%q) error = %v, want ErrInvalidPattern", tt.in, err)
				}
				if len(got) != 0 {
					t.Errorf("Parse(%q) returned %d steps on error", tt.in, len(got))
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.in, err)
			}
			if !equalDurations(got, tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatAndTotal(t *testing.T) {
	steps := ms(500, 200, 500)
	if got := Format(steps); got != "500:200:500" {
		t.Errorf("Format() = %q", got)
	}
	if got := Total(steps); got != 1200*time.Millisecond {
		t.Errorf("Total() = %v, want 1.2s", got)
	}
}

// =============================================================================
// Player Tests
// =============================================================================

func newTestPlayer(led Actuator) (*Player, *[]time.Duration) {
	var waits []time.Duration
	p := NewPlayer(led, nil)
	p.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return p, &waits
}

func TestPlayer_Play(t *testing.T) {
	tests := []struct {
		name        string
		pattern     string
		wantToggles int
		wantWaits   []time.Duration
	}{
		{"three steps", "500:200:500", 3, ms(500, 200, 500)},
		{"single", "1000", 1, ms(1000)},
		{"empty", "", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps, err := Parse(tt.pattern)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}

			led := &fakeLED{}
			p, waits := newTestPlayer(led)

			toggles, err := p.Play(context.Background(), steps)
			if err != nil {
				t.Fatalf("Play() error = %v", err)
			}
			if toggles != tt.wantToggles {
				t.Errorf("toggles = %d, want %d", toggles, tt.wantToggles)
			}
			if !equalDurations(*waits, tt.wantWaits) {
				t.Errorf("waits = %v, want %v", *waits, tt.wantWaits)
			}
			if led.state() {
				t.Error("actuator left on")
			}
			// Toggles plus the final forced off.
			if len(led.calls) != tt.wantToggles+1 {
				t.Errorf("Set calls = %v", led.calls)
			}
		})
	}
}

func TestPlayer_Alternates(t *testing.T) {
	led := &fakeLED{}
	p, _ := newTestPlayer(led)

	if _, err := p.Play(context.Background(), ms(1, 1, 1, 1)); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	want := []bool{true, false, true, false, false}
	for i := range want {
		if led.calls[i] != want[i] {
			t.Fatalf("Set calls = %v, want %v", led.calls, want)
		}
	}
}

func TestPlayer_ContextCancel(t *testing.T) {
	led := &fakeLED{}
	p, _ := newTestPlayer(led)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	toggles, err := p.Play(ctx, ms(500, 500))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Play() error = %v, want context.Canceled", err)
	}
	if toggles != 1 {
		t.Errorf("toggles = %d, want 1", toggles)
	}
	if led.state() {
		t.Error("actuator left on after cancel")
	}
}

func TestPlayer_ActuatorError(t *testing.T) {
	led := &fakeLED{err: errors.New("gpio busy")}
	p, _ := newTestPlayer(led)

	if _, err := p.Play(context.Background(), ms(100)); err == nil {
		t.Error("Play() expected actuator error")
	}
}

func TestPlayer_RealSleep(t *testing.T) {
	led := &fakeLED{}
	p := NewPlayer(led, nil)

	start := time.Now()
	if err := p.Run(context.Background(), ms(10, 10)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Run() returned after %v, want >= 20ms", elapsed)
	}
}

// =============================================================================
// Sequencer Tests
// =============================================================================

func newTestSequencer(t *testing.T) (*Sequencer, *fakeLED, *eventbridge.Bridge, *testutil.ManualClock) {
	t.Helper()
	clock := testutil.NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	bridge := eventbridge.New(eventbridge.Options{Clock: clock})
	t.Cleanup(bridge.Close)

	led := &fakeLED{}
	return NewSequencer(led, bridge, nil), led, bridge, clock
}

func TestSequencer_PlaysWithoutBlocking(t *testing.T) {
	s, led, bridge, clock := newTestSequencer(t)

	if err := s.Start(ms(500, 200, 500)); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !s.Running() || s.Toggles() != 1 || !led.state() {
		t.Fatalf("after Start running=%v toggles=%d led=%v", s.Running(), s.Toggles(), led.state())
	}

	// Another action runs while the pattern is in progress.
	other := false
	bridge.Post(func() { other = true })
	bridge.DispatchReady()
	if !other {
		t.Error("queued action blocked by playback")
	}

	steps := []struct {
		advance     time.Duration
		wantToggles int
		wantRunning bool
	}{
		{499 * time.Millisecond, 1, true},
		{1 * time.Millisecond, 2, true},
		{200 * time.Millisecond, 3, true},
		{500 * time.Millisecond, 3, false},
	}
	for i, st := range steps {
		clock.Advance(st.advance)
		bridge.DispatchReady()
		if s.Toggles() != st.wantToggles || s.Running() != st.wantRunning {
			t.Fatalf("step %d: toggles=%d running=%v, want %d/%v",
				i, s.Toggles(), s.Running(), st.wantToggles, st.wantRunning)
		}
	}

	if led.state() {
		t.Error("actuator left on")
	}
}

func TestSequencer_Empty(t *testing.T) {
	s, led, _, _ := newTestSequencer(t)

	if err := s.Start(nil); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if s.Running() || s.Toggles() != 0 || led.state() {
		t.Errorf("empty pattern: running=%v toggles=%d led=%v", s.Running(), s.Toggles(), led.state())
	}
}

func TestSequencer_RestartCancelsPrevious(t *testing.T) {
	s, led, bridge, clock := newTestSequencer(t)

	s.Start(ms(1000, 1000)) //nolint:errcheck
	if bridge.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 pending step", bridge.Len())
	}

	s.Start(ms(100)) //nolint:errcheck
	if bridge.Len() != 1 {
		t.Fatalf("Len() after restart = %d, want 1", bridge.Len())
	}

	clock.Advance(100 * time.Millisecond)
	bridge.DispatchReady()
	if s.Running() || s.Toggles() != 1 {
		t.Errorf("running=%v toggles=%d, want finished with 1", s.Running(), s.Toggles())
	}

	clock.Advance(2 * time.Second)
	bridge.DispatchReady()
	if s.Toggles() != 1 || led.state() {
		t.Error("cancelled playback continued")
	}
}

func TestSequencer_Stop(t *testing.T) {
	s, led, bridge, _ := newTestSequencer(t)

	s.Start(ms(1000)) //nolint:errcheck
	s.Stop()

	if s.Running() || led.state() || bridge.Len() != 0 {
		t.Errorf("after Stop running=%v led=%v pending=%d", s.Running(), led.state(), bridge.Len())
	}
}

func TestNewRunner(t *testing.T) {
	tests := []struct {
		mode    Mode
		wantErr bool
	}{
		{ModeScheduled, false},
		{ModeBlocking, false},
		{"", false},
		{"turbo", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			r, err := NewRunner(tt.mode, &fakeLED{}, eventbridge.New(eventbridge.Options{}), nil)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownMode) {
					t.Errorf("NewRunner(%q) error = %v, want ErrUnknownMode", tt.mode, err)
				}
				return
			}
			if err != nil || r == nil {
				t.Errorf("NewRunner(%q) = %v, %v", tt.mode, r, err)
			}
		})
	}
}
