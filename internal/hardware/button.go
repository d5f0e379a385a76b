package hardware

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-edge/internal/eventbridge"
)

// Poster hands work to the dispatcher. *eventbridge.Bridge satisfies it.
type Poster interface {
	Post(fn eventbridge.Action) (eventbridge.Handle, error)
}

// Ticker schedules periodic work. *eventbridge.Bridge satisfies it.
type Ticker interface {
	PostEvery(interval time.Duration, fn eventbridge.Action) (eventbridge.Handle, error)
	Cancel(h eventbridge.Handle) bool
}

// SignalButton turns a POSIX signal into button presses.
//
// The receiving goroutine is the equivalent of an interrupt handler: it only
// posts the press action to the bridge. It never logs, allocates state or
// touches resources. Presses the bridge cannot accept are counted.
type SignalButton struct {
	poster  Poster
	onPress eventbridge.Action
	sig     os.Signal

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// NewSignalButton creates a button fed by PressSignal.
func NewSignalButton(poster Poster, onPress eventbridge.Action) *SignalButton {
	return &SignalButton{poster: poster, onPress: onPress, sig: PressSignal}
}

// Run listens for the signal until ctx is cancelled.
func (b *SignalButton) Run(ctx context.Context) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, b.sig)
	defer signal.Stop(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			b.press()
		}
	}
}

func (b *SignalButton) press() {
	if _, err := b.poster.Post(b.onPress); err != nil {
		b.dropped.Add(1)
		return
	}
	b.delivered.Add(1)
}

// Delivered returns the number of presses accepted by the bridge.
func (b *SignalButton) Delivered() uint64 { return b.delivered.Load() }

// Dropped returns the number of presses the bridge rejected.
func (b *SignalButton) Dropped() uint64 { return b.dropped.Load() }

// SimulatedButton presses itself at a fixed interval using the bridge's
// periodic scheduling. The press runs on the dispatcher.
type SimulatedButton struct {
	ticker   Ticker
	interval time.Duration
	onPress  eventbridge.Action

	handle eventbridge.Handle
}

// NewSimulatedButton creates a button pressed every interval.
func NewSimulatedButton(ticker Ticker, interval time.Duration, onPress eventbridge.Action) *SimulatedButton {
	return &SimulatedButton{ticker: ticker, interval: interval, onPress: onPress}
}

// Start schedules the presses.
func (b *SimulatedButton) Start() error {
	if b.handle != 0 {
		return errors.New("hardware: simulated button already started")
	}
	h, err := b.ticker.PostEvery(b.interval, b.onPress)
	if err != nil {
		return fmt.Errorf("scheduling simulated button: %w", err)
	}
	b.handle = h
	return nil
}

// Stop cancels future presses.
func (b *SimulatedButton) Stop() {
	if b.handle == 0 {
		return
	}
	b.ticker.Cancel(b.handle)
	b.handle = 0
}
