package registration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-edge/internal/eventbridge"
	"github.com/nerrad567/gray-logic-edge/internal/notification"
	"github.com/nerrad567/gray-logic-edge/internal/resource"
)

// Default values for connection handling.
const (
	DefaultConnectAttempts   = 3
	DefaultConnectRetryDelay = time.Second
)

// Logger defines the logging interface used by the controller.
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

// Options configures a Controller.
type Options struct {
	Bridge  *eventbridge.Bridge
	Service Service
	Network Network
	Storage Storage

	// ConnectAttempts bounds network connect tries. Default 3.
	ConnectAttempts int

	// ConnectRetryDelay is the pause between tries. Default 1s.
	ConnectRetryDelay time.Duration

	Logger Logger
}

// Controller owns the device lifecycle, the resource directory and the
// event bridge.
//
// Lifecycle:
//
//	UNINITIALIZED → CONNECTING → CONNECTED → CLIENT_INITIALIZED
//	  → REGISTERING → REGISTERED → UNREGISTERING → CLOSED
//
// Any state before REGISTERED moves to ERROR on an unrecoverable failure.
//
// Thread Safety:
//   - Start and CreateResource are called during setup, before the bridge
//     dispatcher runs.
//   - Every Callbacks method may be called from any goroutine; each one only
//     posts to the bridge.
//   - State, Endpoint, Done, Err and WaitRegistered are safe from any goroutine.
type Controller struct {
	bridge  *eventbridge.Bridge
	service Service
	network Network
	storage Storage
	dir     *resource.Directory
	logger  Logger

	connectAttempts   int
	connectRetryDelay time.Duration

	mu         sync.Mutex
	state      State
	endpoint   string
	err        error
	registered chan struct{}
	done       chan struct{}
}

// New creates a controller in UNINITIALIZED.
func New(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.ConnectAttempts <= 0 {
		opts.ConnectAttempts = DefaultConnectAttempts
	}
	if opts.ConnectRetryDelay <= 0 {
		opts.ConnectRetryDelay = DefaultConnectRetryDelay
	}

	dir := resource.NewDirectory()
	dir.SetLogger(opts.Logger)
	dir.SetNotifier(opts.Service)

	return &Controller{
		bridge:            opts.Bridge,
		service:           opts.Service,
		network:           opts.Network,
		storage:           opts.Storage,
		dir:               dir,
		logger:            opts.Logger,
		connectAttempts:   opts.ConnectAttempts,
		connectRetryDelay: opts.ConnectRetryDelay,
		registered:        make(chan struct{}),
		done:              make(chan struct{}),
	}
}

// Bridge returns the event bridge owned by the controller.
func (c *Controller) Bridge() *eventbridge.Bridge { return c.bridge }

// Directory returns the resource directory. Only touch it on the dispatcher.
func (c *Controller) Directory() *resource.Directory { return c.dir }

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Endpoint returns the endpoint name assigned at registration.
func (c *Controller) Endpoint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpoint
}

// Done is closed once the controller reaches CLOSED or ERROR.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Err returns the error that moved the controller to ERROR, or nil.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Start runs the setup sequence: storage, network, client.
//
// Network connect is attempted up to ConnectAttempts times. Any failure
// moves the controller to ERROR and is returned wrapped in ErrStorage,
// ErrNetwork or ErrClientInit.
func (c *Controller) Start(ctx context.Context) error {
	if s := c.State(); s != StateUninitialized {
		return fmt.Errorf("%w: start in %s", ErrInvalidState, s)
	}

	if err := c.storage.Init(ctx); err != nil {
		return c.fail(fmt.Errorf("%w: %w", ErrStorage, err))
	}

	c.setState(StateConnecting)
	if err := c.connect(ctx); err != nil {
		return c.fail(err)
	}
	c.setState(StateConnected)
	c.logger.Info("network connected", "address", c.network.Address())

	if err := c.service.Init(ctx, c.network, c.storage, c); err != nil {
		return c.fail(fmt.Errorf("%w: %w", ErrClientInit, err))
	}

	// Advertise resources created before the client existed.
	for _, r := range c.dir.All() {
		if err := c.service.CreateResource(describe(r)); err != nil {
			return c.fail(fmt.Errorf("%w: advertising %s: %w", ErrClientInit, r.Path(), err))
		}
	}
	c.setState(StateClientInitialized)
	c.logger.Info("client initialised", "resources", c.dir.Len())
	return nil
}

func (c *Controller) connect(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= c.connectAttempts; attempt++ {
		lastErr = c.network.Connect(ctx)
		if lastErr == nil {
			return nil
		}
		c.logger.Warn("network connect failed",
			"attempt", attempt,
			"max_attempts", c.connectAttempts,
			"error", lastErr,
		)
		if attempt == c.connectAttempts {
			break
		}

		t := time.NewTimer(c.connectRetryDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%w: %w", ErrNetwork, ctx.Err())
		case <-t.C:
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrNetwork, c.connectAttempts, lastErr)
}

// CreateResource adds a resource to the directory and, once the client is
// initialised, hands it to the service.
//
// Allowed until REGISTERING inclusive. Afterwards it returns
// ErrResourceAfterRegistration: resources are only advertised in the
// registration request. If the service refuses the resource it is removed
// from the directory again, so the path can be retried.
func (c *Controller) CreateResource(path resource.Path, name string, methods resource.Method, observable bool) (*resource.Resource, error) {
	state := c.State()
	switch {
	case state == StateError:
		return nil, fmt.Errorf("%w: create resource in %s", ErrInvalidState, state)
	case state >= StateRegistered:
		return nil, fmt.Errorf("%w: %s in %s", ErrResourceAfterRegistration, path, state)
	}

	r, err := c.dir.Create(path, name, methods, observable)
	if err != nil {
		return nil, err
	}

	if state >= StateClientInitialized {
		if err := c.service.CreateResource(describe(r)); err != nil {
			c.dir.Remove(path)
			return nil, fmt.Errorf("advertising %s: %w", path, err)
		}
	}

	c.logger.Debug("resource created",
		"path", path.String(),
		"name", name,
		"methods", methods.String(),
		"observable", observable,
	)
	return r, nil
}

// RegisterAndConnect starts registration. Completion is reported through
// OnRegistered or OnRegistrationError; use WaitRegistered for a bounded wait.
func (c *Controller) RegisterAndConnect() error {
	c.mu.Lock()
	if c.state != StateClientInitialized {
		s := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: register in %s", ErrInvalidState, s)
	}
	c.state = StateRegistering
	c.mu.Unlock()

	c.logger.Info("registering", "resources", c.dir.Len())
	if err := c.service.RegisterAndConnect(); err != nil {
		return c.fail(fmt.Errorf("%w: %w", ErrRegistrationFailed, err))
	}
	return nil
}

// WaitRegistered blocks until registration completes, fails, the controller
// closes, ctx is cancelled or timeout elapses. A zero timeout waits for ctx
// only. Never call it from a bridge action.
func (c *Controller) WaitRegistered(ctx context.Context, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	select {
	case <-c.registered:
		return c.Endpoint(), nil
	case <-c.done:
		if err := c.Err(); err != nil {
			return "", err
		}
		return "", ErrClosed
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrRegistrationTimeout
		}
		return "", ctx.Err()
	}
}

// Close requests graceful unregistration. Safe from any goroutine; the
// transition itself runs on the dispatcher.
func (c *Controller) Close() error {
	_, err := c.bridge.Post(c.closeNow)
	return err
}

func (c *Controller) closeNow() {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()

	switch {
	case state.Terminal(), state == StateUnregistering:
		return

	case state == StateRegistering || state == StateRegistered:
		c.setState(StateUnregistering)
		c.logger.Info("unregistering", "endpoint", c.Endpoint())
		if err := c.service.Close(); err != nil {
			c.logger.Error("unregister request failed", "error", err)
			c.finish(StateClosed, nil)
		}

	default:
		if state >= StateClientInitialized {
			if err := c.service.Close(); err != nil {
				c.logger.Warn("client close failed", "error", err)
			}
		}
		c.finish(StateClosed, nil)
	}
}

// FactoryReset wipes all provisioned data and then closes.
//
// The close is requested whether or not the wipe succeeds; the wipe error
// is returned so the caller can report it.
func (c *Controller) FactoryReset(ctx context.Context) error {
	c.logger.Warn("factory reset requested")

	wipeErr := c.storage.Wipe(ctx)
	if wipeErr != nil {
		c.logger.Error("factory reset wipe failed", "error", wipeErr)
	} else {
		c.logger.Info("provisioned data wiped")
	}

	if err := c.Close(); err != nil {
		c.logger.Error("close after factory reset failed", "error", err)
	}
	return wipeErr
}

// =============================================================================
// Callbacks (any goroutine → bridge)
// =============================================================================

// OnRegistered implements Callbacks.
func (c *Controller) OnRegistered(endpoint string) {
	c.post("registered", func() {
		if s := c.State(); s != StateRegistering {
			c.logger.Warn("registration completed in unexpected state", "state", s.String())
			return
		}
		c.mu.Lock()
		c.endpoint = endpoint
		c.state = StateRegistered
		c.mu.Unlock()
		close(c.registered)
		c.logger.Info("registered", "endpoint", endpoint)
	})
}

// OnRegistrationError implements Callbacks.
func (c *Controller) OnRegistrationError(err error) {
	c.post("registration error", func() {
		if s := c.State(); s >= StateRegistered {
			c.logger.Warn("registration error after registration", "state", s.String(), "error", err)
			return
		}
		c.fail(fmt.Errorf("%w: %w", ErrRegistrationFailed, err)) //nolint:errcheck // recorded in Err
	})
}

// OnUnregistered implements Callbacks.
func (c *Controller) OnUnregistered() {
	c.post("unregistered", func() {
		if c.State().Terminal() {
			return
		}
		c.logger.Info("unregistered")
		c.finish(StateClosed, nil)
	})
}

// OnNotificationStatus implements Callbacks. Statuses of superseded
// attempts are dropped by the resource.
func (c *Controller) OnNotificationStatus(path resource.Path, attempt uint64, status notification.Status) {
	c.post("notification status", func() {
		r, err := c.dir.Lookup(path)
		if err != nil {
			c.logger.Warn("notification status for unknown resource", "path", path.String())
			return
		}
		_ = r.HandleDelivery(attempt, status) // logged by the resource
	})
}

// OnRequest implements Callbacks.
func (c *Controller) OnRequest(req Request, reply func(Response)) {
	c.post("request", func() {
		reply(c.handle(req))
	})
}

func (c *Controller) handle(req Request) Response {
	r, err := c.dir.Lookup(req.Path)
	if err != nil {
		return Response{Code: CodeNotFound}
	}

	switch req.Op {
	case OpGet:
		v, err := r.Get()
		if err != nil {
			return Response{Code: CodeMethodNotAllowed}
		}
		return Response{Code: CodeContent, Value: v}

	case OpPut:
		if err := r.Put(req.Payload); err != nil {
			return Response{Code: CodeMethodNotAllowed}
		}
		return Response{Code: CodeChanged}

	case OpPost:
		if err := r.Invoke(req.Payload); err != nil {
			return Response{Code: CodeMethodNotAllowed}
		}
		return Response{Code: CodeChanged}

	case OpObserve, OpCancel:
		status := notification.StatusSubscribed
		if req.Op == OpCancel {
			status = notification.StatusUnsubscribed
		}
		if !r.Observable() || !r.Methods().Has(resource.MethodGet) {
			return Response{Code: CodeMethodNotAllowed}
		}
		_ = r.HandleStatus(status) // subscription changes are always valid
		return Response{Code: CodeContent, Value: r.Value()}

	default:
		return Response{Code: CodeBadRequest}
	}
}

// post hands fn to the bridge. A closed bridge means shutdown is underway
// and the event is dropped.
func (c *Controller) post(what string, fn eventbridge.Action) {
	if _, err := c.bridge.Post(fn); err != nil {
		c.logger.Debug("dropping service event", "event", what, "error", err)
	}
}

// =============================================================================
// State helpers
// =============================================================================

func (c *Controller) setState(s State) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()
	c.logger.Debug("registration state", "from", prev.String(), "to", s.String())
}

// fail moves to ERROR and returns err for convenience.
func (c *Controller) fail(err error) error {
	c.logger.Error("registration controller failed", "state", c.State().String(), "error", err)
	c.finish(StateError, err)
	return err
}

func (c *Controller) finish(s State, err error) {
	c.mu.Lock()
	if c.state.Terminal() {
		c.mu.Unlock()
		return
	}
	c.state = s
	c.err = err
	c.mu.Unlock()
	close(c.done)
}

func describe(r *resource.Resource) Descriptor {
	return Descriptor{
		Path:       r.Path(),
		Name:       r.Name(),
		Methods:    r.Methods(),
		Observable: r.Observable(),
	}
}
