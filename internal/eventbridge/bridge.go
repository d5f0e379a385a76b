package eventbridge

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Action is a unit of deferred work executed on the dispatcher goroutine.
type Action func()

// Handle identifies a posted action for cancellation. The zero Handle is never issued.
type Handle uint64

// Logger defines the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Bridge.
type Options struct {
	// Capacity bounds the number of pending actions. Zero means unbounded.
	Capacity int

	// Clock defaults to SystemClock.
	Clock Clock

	// Logger defaults to a no-op logger.
	Logger Logger
}

// Bridge hands deferred actions from any goroutine to a single dispatcher.
//
// Producers (signal handlers, timers, network callbacks) call Post, PostAfter
// or PostEvery. Those calls hold the mutex only long enough to push onto the
// heap and never wait for the dispatcher. Run executes actions one at a time,
// to completion, in (due time, submission order). Code running inside an
// action may therefore touch engine state without further locking.
//
// Thread Safety:
//   - Post*, Cancel, Len and Close are safe from any goroutine.
//   - Run and DispatchReady must only be driven from one goroutine.
type Bridge struct {
	mu      sync.Mutex
	queue   entryHeap
	live    map[Handle]*entry // pending entries plus running periodic ones
	nextID  uint64
	nextSeq uint64
	closed  bool

	capacity int
	clock    Clock
	logger   Logger

	// signal wakes the dispatcher (buffered, size 1; extra signals coalesce).
	signal chan struct{}

	done      chan struct{}
	closeOnce sync.Once
	running   atomic.Bool
}

// New creates a bridge. Call Run on the goroutine that owns engine state.
func New(opts Options) *Bridge {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	return &Bridge{
		live:     make(map[Handle]*entry),
		capacity: opts.Capacity,
		clock:    opts.Clock,
		logger:   opts.Logger,
		signal:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Post queues fn to run as soon as every action already due has run.
func (b *Bridge) Post(fn Action) (Handle, error) {
	return b.schedule(fn, 0, 0)
}

// PostAfter queues fn to run once delay has elapsed.
// The delay is tracked by the dispatcher's timer; the caller never sleeps.
func (b *Bridge) PostAfter(delay time.Duration, fn Action) (Handle, error) {
	if delay < 0 {
		delay = 0
	}
	return b.schedule(fn, delay, 0)
}

// PostEvery queues fn to run every interval, first after one interval.
// Each run re-enqueues the action interval after it returns, until cancelled.
func (b *Bridge) PostEvery(interval time.Duration, fn Action) (Handle, error) {
	if interval <= 0 {
		return 0, ErrInvalidInterval
	}
	return b.schedule(fn, interval, interval)
}

func (b *Bridge) schedule(fn Action, delay, interval time.Duration) (Handle, error) {
	if fn == nil {
		return 0, ErrNilAction
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return 0, ErrClosed
	}
	if b.capacity > 0 && len(b.queue) >= b.capacity {
		b.mu.Unlock()
		return 0, ErrQueueFull
	}

	b.nextID++
	b.nextSeq++
	e := &entry{
		id:       Handle(b.nextID),
		seq:      b.nextSeq,
		due:      b.clock.Now().Add(delay),
		interval: interval,
		fn:       fn,
	}
	heap.Push(&b.queue, e)
	b.live[e.id] = e
	b.mu.Unlock()

	b.wake()
	return e.id, nil
}

// wake nudges the dispatcher without blocking.
func (b *Bridge) wake() {
	select {
	case b.signal <- struct{}{}:
	default:
	}
}

// Cancel stops a pending or periodic action.
//
// It returns true if the action will not run (again). Cancelling a one-shot
// action that already started or finished returns false. A periodic action
// may cancel itself from inside its own body.
func (b *Bridge) Cancel(h Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.live[h]
	if !ok {
		return false
	}
	delete(b.live, h)

	if e.index >= 0 {
		b.queue.remove(e)
	} else {
		e.cancelled = true
	}
	return true
}

// Len returns the number of queued actions.
func (b *Bridge) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// DispatchReady runs every action whose due time is not after Clock.Now(),
// in order, and returns how many ran. Actions posted for "now" by a running
// action are picked up in the same call.
func (b *Bridge) DispatchReady() int {
	ran := 0
	for {
		e := b.popReady()
		if e == nil {
			return ran
		}
		b.execute(e)
		ran++

		if e.interval > 0 {
			b.reschedule(e)
		}
	}
}

// popReady removes and returns the head entry if it is due.
func (b *Bridge) popReady() *entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	head := b.queue.peek()
	if head == nil || head.due.After(b.clock.Now()) {
		return nil
	}

	heap.Pop(&b.queue)
	if head.interval == 0 {
		delete(b.live, head.id)
	}
	return head
}

// reschedule puts a periodic entry back unless it was cancelled while running.
func (b *Bridge) reschedule(e *entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if e.cancelled || b.closed {
		return
	}
	if _, ok := b.live[e.id]; !ok {
		return
	}

	b.nextSeq++
	e.seq = b.nextSeq
	e.due = b.clock.Now().Add(e.interval)
	heap.Push(&b.queue, e)
}

// execute runs one action, recovering from panics so one faulty handler
// cannot stop the dispatcher.
func (b *Bridge) execute(e *entry) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event action panic recovered",
				"handle", uint64(e.id),
				"panic", r,
			)
		}
	}()
	e.fn()
}

// nextWait reports how long until the head entry is due.
func (b *Bridge) nextWait() (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	head := b.queue.peek()
	if head == nil {
		return 0, false
	}
	return head.due.Sub(b.clock.Now()), true
}

// Run dispatches actions on the calling goroutine until ctx is cancelled or
// Close is called. It sleeps until the queue is signalled or the earliest
// scheduled action becomes due; there is no fixed polling interval.
//
// Returns:
//   - nil after Close
//   - ctx.Err() on cancellation
//   - ErrAlreadyRunning if another Run is active
func (b *Bridge) Run(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer b.running.Store(false)

	for {
		b.DispatchReady()

		var (
			timerC <-chan time.Time
			stop   func() bool
		)
		if wait, ok := b.nextWait(); ok {
			if wait <= 0 {
				continue
			}
			timerC, stop = b.clock.NewTimer(wait)
		}

		select {
		case <-ctx.Done():
			if stop != nil {
				stop()
			}
			return ctx.Err()
		case <-b.done:
			if stop != nil {
				stop()
			}
			return nil
		case <-b.signal:
		case <-timerC:
		}

		if stop != nil {
			stop()
		}
	}
}

// Close stops the dispatcher after the current action, drops pending
// actions and rejects further posts. Safe to call more than once and from
// inside an action.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		dropped := len(b.queue)
		b.closed = true
		b.queue = nil
		b.live = make(map[Handle]*entry)
		b.mu.Unlock()

		close(b.done)
		if dropped > 0 {
			b.logger.Debug("event bridge closed with pending actions", "dropped", dropped)
		}
	})
}

// Done is closed once Close has been called.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}
