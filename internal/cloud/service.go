package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-edge/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-edge/internal/notification"
	"github.com/nerrad567/gray-logic-edge/internal/provisioning"
	"github.com/nerrad567/gray-logic-edge/internal/registration"
	"github.com/nerrad567/gray-logic-edge/internal/resource"
)

// Defaults for Options.
const (
	DefaultNotifyQueueSize     = 16
	DefaultRegistrationTimeout = 30 * time.Second

	// notifyQoS is fixed at 1 so the broker acknowledgment means delivered.
	notifyQoS byte = 1
)

// Broker is the MQTT session used by the service. *mqtt.Client satisfies it.
type Broker interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	PublishAsync(topic string, payload []byte, qos byte, done func(error)) error
	Close() error
}

// DialFunc opens a broker session with the provisioned credentials.
type DialFunc func(ctx context.Context, creds provisioning.Credentials) (Broker, error)

// CredentialSource is implemented by storage that holds credentials.
// *provisioning.Store satisfies it.
type CredentialSource interface {
	Credentials(ctx context.Context) (provisioning.Credentials, error)
}

// Logger defines the logging interface used by the service.
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

// Options configures a Service.
type Options struct {
	Dial   DialFunc
	Topics mqtt.Topics

	// ClientID names the device on the broker and in registration topics.
	ClientID string

	// QoS is used for registration, responses and deregistration.
	QoS byte

	// NotifyQueueSize bounds queued notifications. Default 16.
	NotifyQueueSize int

	// RegistrationTimeout bounds the wait for the server's reply. Default 30s.
	RegistrationTimeout time.Duration

	Logger Logger
}

// phase is the service's view of the session.
type phase uint8

const (
	phaseIdle phase = iota
	phaseReady
	phaseRegistering
	phaseRegistered
	phaseFailed
	phaseClosing
	phaseClosed
)

type notifyJob struct {
	path    resource.Path
	attempt uint64
	topic   string
	payload []byte
}

// Service is the Registration Service carried over MQTT.
//
// Apart from Init, no method waits on the network. Outcomes are reported
// through registration.Callbacks from paho or worker goroutines; the
// controller posts each of them to the event bridge.
//
// Notifications are only sent for resources the server observes. Each one
// reports SENT when handed to the broker, then DELIVERED on the QoS 1
// acknowledgment or SEND_FAILED. A full queue reports RESEND_QUEUE_FULL and
// an unencodable value BUILD_ERROR. Once registered, a value change on a
// path nobody observes reports SEND_FAILED straight away. Every status
// carries the attempt number it was queued with.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Service struct {
	opts   Options
	topics mqtt.Topics
	logger Logger

	queue chan notifyJob
	stop  chan struct{}

	stopOnce       sync.Once
	disconnectOnce sync.Once

	mu          sync.Mutex
	phase       phase
	broker      Broker
	cb          registration.Callbacks
	endpoint    string
	descriptors []registration.Descriptor
	observed    map[resource.Path]bool
	regID       string
	regTimer    *time.Timer
	seq         uint64
}

var _ registration.Service = (*Service)(nil)

// NewService creates an idle service.
func NewService(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.NotifyQueueSize <= 0 {
		opts.NotifyQueueSize = DefaultNotifyQueueSize
	}
	if opts.RegistrationTimeout <= 0 {
		opts.RegistrationTimeout = DefaultRegistrationTimeout
	}
	return &Service{
		opts:     opts,
		topics:   opts.Topics,
		logger:   opts.Logger,
		queue:    make(chan notifyJob, opts.NotifyQueueSize),
		stop:     make(chan struct{}),
		observed: make(map[resource.Path]bool),
	}
}

// Endpoint returns the provisioned endpoint name once Init has run.
func (s *Service) Endpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoint
}

// Init reads credentials, opens the broker session and subscribes to the
// registration reply and request topics.
//
// Parameters:
//   - ctx: Bounds the credential read and broker dial
//   - network: Connected uplink, used for logging the local address
//   - storage: Must also implement CredentialSource
//   - cb: Receives all asynchronous outcomes
func (s *Service) Init(ctx context.Context, network registration.Network, storage registration.Storage, cb registration.Callbacks) error {
	s.mu.Lock()
	if s.phase != phaseIdle {
		s.mu.Unlock()
		return fmt.Errorf("%w: already initialised", ErrNotReady)
	}
	s.mu.Unlock()

	src, ok := storage.(CredentialSource)
	if !ok {
		return ErrNoCredentials
	}
	creds, err := src.Credentials(ctx)
	if err != nil {
		return fmt.Errorf("reading credentials: %w", err)
	}

	broker, err := s.opts.Dial(ctx, creds)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBroker, err)
	}

	if err := broker.Subscribe(s.topics.Registration(s.opts.ClientID), s.opts.QoS, s.handleRegistration); err != nil {
		broker.Close() //nolint:errcheck // Best effort cleanup on error path
		return fmt.Errorf("%w: %w", ErrBroker, err)
	}
	if err := broker.Subscribe(s.topics.AllRequests(creds.EndpointName), s.opts.QoS, s.handleRequest); err != nil {
		broker.Close() //nolint:errcheck // Best effort cleanup on error path
		return fmt.Errorf("%w: %w", ErrBroker, err)
	}

	s.mu.Lock()
	s.broker = broker
	s.cb = cb
	s.endpoint = creds.EndpointName
	s.phase = phaseReady
	s.mu.Unlock()

	go s.worker()

	s.logger.Info("device management session ready",
		"endpoint", creds.EndpointName,
		"client_id", s.opts.ClientID,
		"address", network.Address(),
	)
	return nil
}

// CreateResource records a resource to advertise at registration.
// Re-creating a path replaces its descriptor.
//
// Resources added while registering are served once registered but are
// missing from the registration request already in flight.
func (s *Service) CreateResource(d registration.Descriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case phaseIdle, phaseReady:
	case phaseRegistering:
		s.logger.Warn("resource created during registration is not advertised", "path", d.Path.String())
	default:
		return fmt.Errorf("%w: resources are fixed once registered", ErrNotReady)
	}
	for i := range s.descriptors {
		if s.descriptors[i].Path == d.Path {
			s.descriptors[i] = d
			return nil
		}
	}
	s.descriptors = append(s.descriptors, d)
	return nil
}

// RegisterAndConnect publishes the registration request and arms the reply
// timeout. The result arrives as OnRegistered or OnRegistrationError.
func (s *Service) RegisterAndConnect() error {
	s.mu.Lock()
	if s.phase != phaseReady {
		s.mu.Unlock()
		return fmt.Errorf("%w: register before init", ErrNotReady)
	}

	msg := registerMessage{
		ID:        uuid.NewString(),
		Endpoint:  s.endpoint,
		ClientID:  s.opts.ClientID,
		Resources: make([]resourceEntry, 0, len(s.descriptors)),
	}
	for _, d := range s.descriptors {
		msg.Resources = append(msg.Resources, entryFor(d))
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("encoding registration: %w", err)
	}

	id := msg.ID
	s.regID = id
	s.phase = phaseRegistering
	s.regTimer = time.AfterFunc(s.opts.RegistrationTimeout, func() {
		s.registrationFailed(id, ErrRegistrationTimeout)
	})
	broker := s.broker
	s.mu.Unlock()

	if err := broker.PublishAsync(s.topics.Register(s.opts.ClientID), payload, s.opts.QoS, func(err error) {
		if err != nil {
			s.registrationFailed(id, err)
		}
	}); err != nil {
		s.mu.Lock()
		s.stopRegTimer()
		s.phase = phaseFailed
		s.mu.Unlock()
		return fmt.Errorf("publishing registration: %w", err)
	}

	s.logger.Debug("registration sent", "id", id, "resources", len(msg.Resources))
	return nil
}

// registrationFailed reports a failure for attempt id if it is still current.
func (s *Service) registrationFailed(id string, err error) {
	s.mu.Lock()
	if s.phase != phaseRegistering || s.regID != id {
		s.mu.Unlock()
		return
	}
	s.phase = phaseFailed
	s.stopRegTimer()
	cb := s.cb
	s.mu.Unlock()

	cb.OnRegistrationError(err)
}

// handleRegistration processes the server's registration reply.
func (s *Service) handleRegistration(_ string, payload []byte) error {
	var reply registrationReply
	if err := json.Unmarshal(payload, &reply); err != nil {
		return fmt.Errorf("decoding registration reply: %w", err)
	}

	s.mu.Lock()
	if s.phase != phaseRegistering || s.regID != reply.ID {
		s.mu.Unlock()
		s.logger.Debug("ignoring stale registration reply", "id", reply.ID)
		return nil
	}
	s.stopRegTimer()
	cb := s.cb
	endpoint := s.endpoint

	if reply.Status != replyOK {
		s.phase = phaseFailed
		s.mu.Unlock()
		cb.OnRegistrationError(fmt.Errorf("%w: status %q code %d", ErrRejected, reply.Status, reply.Code))
		return nil
	}
	s.phase = phaseRegistered
	s.mu.Unlock()

	if reply.Endpoint != "" && reply.Endpoint != endpoint {
		s.logger.Warn("server echoed a different endpoint", "provisioned", endpoint, "reply", reply.Endpoint)
	}
	cb.OnRegistered(endpoint)
	return nil
}

// handleRequest turns a request topic into a registration.Request.
func (s *Service) handleRequest(topic string, payload []byte) error {
	s.mu.Lock()
	endpoint, current, cb := s.endpoint, s.phase, s.cb
	s.mu.Unlock()

	op, rawPath, ok := s.topics.ParseRequest(endpoint, topic)
	if !ok {
		return fmt.Errorf("unrecognised request topic %q", topic)
	}
	if current != phaseRegistered {
		s.logger.Debug("dropping request outside registration", "topic", topic)
		return nil
	}

	path, err := resource.ParsePath(rawPath)
	if err != nil {
		s.respond(endpoint, op, rawPath, registration.Response{Code: registration.CodeBadRequest})
		return nil
	}

	req := registration.Request{
		Op:      registration.Op(op),
		Path:    path,
		Payload: append([]byte(nil), payload...),
	}
	cb.OnRequest(req, func(resp registration.Response) {
		s.trackObservation(req, resp)
		s.respond(endpoint, op, rawPath, resp)
	})
	return nil
}

// trackObservation records which paths the server observes.
func (s *Service) trackObservation(req registration.Request, resp registration.Response) {
	if resp.Code != registration.CodeContent {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.Op {
	case registration.OpObserve:
		s.observed[req.Path] = true
	case registration.OpCancel:
		delete(s.observed, req.Path)
	}
}

// respond publishes a response without waiting for the broker.
func (s *Service) respond(endpoint, op, rawPath string, resp registration.Response) {
	payload, err := json.Marshal(responseMessage{Code: resp.Code, Value: string(resp.Value)})
	if err != nil {
		s.logger.Error("encoding response failed", "path", rawPath, "error", err)
		return
	}

	s.mu.Lock()
	broker := s.broker
	s.mu.Unlock()

	topic := s.topics.Response(endpoint, op, rawPath)
	if err := broker.PublishAsync(topic, payload, s.opts.QoS, func(err error) {
		if err != nil {
			s.logger.Warn("response not delivered", "topic", topic, "error", err)
		}
	}); err != nil {
		s.logger.Warn("response not sent", "topic", topic, "error", err)
	}
}

// NotifyValue implements resource.Notifier. It never blocks.
//
// Before registration nothing is sent or reported. Afterwards a path the
// server does not observe fails at once, which the tracker records as
// FAILED(UNSUBSCRIBED).
func (s *Service) NotifyValue(path resource.Path, value []byte, attempt uint64) {
	s.mu.Lock()
	if s.phase != phaseRegistered {
		s.mu.Unlock()
		return
	}
	if !s.observed[path] {
		s.mu.Unlock()
		s.report(path, attempt, notification.StatusSendFailed)
		return
	}
	s.seq++
	msg := notifyMessage{
		ID:    uuid.NewString(),
		Path:  path.String(),
		Value: string(value),
		Seq:   s.seq,
	}
	endpoint := s.endpoint
	s.mu.Unlock()

	payload, err := json.Marshal(msg)
	if err != nil || len(payload) > mqtt.MaxPayloadSize {
		s.logger.Warn("notification could not be built", "path", msg.Path, "size", len(payload), "error", err)
		s.report(path, attempt, notification.StatusBuildError)
		return
	}

	job := notifyJob{path: path, attempt: attempt, topic: s.topics.Notify(endpoint, msg.Path), payload: payload}
	select {
	case s.queue <- job:
	default:
		s.report(path, attempt, notification.StatusResendQueueFull)
	}
}

// worker drains the notification queue until stopped.
func (s *Service) worker() {
	for {
		select {
		case <-s.stop:
			return
		case job := <-s.queue:
			s.send(job)
		}
	}
}

func (s *Service) send(job notifyJob) {
	s.mu.Lock()
	broker := s.broker
	s.mu.Unlock()

	// SENT is posted before the publish so it always precedes the outcome.
	s.report(job.path, job.attempt, notification.StatusSent)
	if err := broker.PublishAsync(job.topic, job.payload, notifyQoS, func(err error) {
		if err != nil {
			s.logger.Debug("notification not acknowledged", "topic", job.topic, "error", err)
			s.report(job.path, job.attempt, notification.StatusSendFailed)
			return
		}
		s.report(job.path, job.attempt, notification.StatusDelivered)
	}); err != nil {
		s.logger.Debug("notification publish rejected", "topic", job.topic, "error", err)
		s.report(job.path, job.attempt, notification.StatusSendFailed)
	}
}

func (s *Service) report(path resource.Path, attempt uint64, status notification.Status) {
	s.mu.Lock()
	cb := s.cb
	s.mu.Unlock()
	if cb != nil {
		cb.OnNotificationStatus(path, attempt, status)
	}
}

// Close starts unregistration. When registering or registered it
// publishes a deregister message and reports OnUnregistered once the broker
// has answered; otherwise it just stops the notification worker.
func (s *Service) Close() error {
	s.mu.Lock()
	switch s.phase {
	case phaseClosing, phaseClosed:
		s.mu.Unlock()
		return nil

	case phaseRegistering, phaseRegistered:
		s.phase = phaseClosing
		s.stopRegTimer()
		broker, endpoint, cb := s.broker, s.endpoint, s.cb
		s.mu.Unlock()

		payload, err := json.Marshal(deregisterMessage{Endpoint: endpoint, Reason: "requested"})
		if err != nil {
			s.closed()
			return fmt.Errorf("encoding deregistration: %w", err)
		}
		if err := broker.PublishAsync(s.topics.Deregister(endpoint), payload, s.opts.QoS, func(err error) {
			if err != nil {
				s.logger.Warn("deregistration not acknowledged", "endpoint", endpoint, "error", err)
			}
			s.closed()
			cb.OnUnregistered()
		}); err != nil {
			s.closed()
			return fmt.Errorf("publishing deregistration: %w", err)
		}
		return nil

	default:
		s.phase = phaseClosed
		s.mu.Unlock()
		s.stopWorker()
		return nil
	}
}

func (s *Service) closed() {
	s.mu.Lock()
	s.phase = phaseClosed
	s.mu.Unlock()
	s.stopWorker()
}

func (s *Service) stopWorker() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// stopRegTimer cancels the registration timeout. Caller holds mu.
func (s *Service) stopRegTimer() {
	if s.regTimer != nil {
		s.regTimer.Stop()
		s.regTimer = nil
	}
}

// Disconnect closes the broker session. Call it after the controller is
// done; it may block for the broker's quiesce period.
func (s *Service) Disconnect() error {
	s.stopWorker()

	s.mu.Lock()
	broker := s.broker
	s.mu.Unlock()

	var err error
	if broker != nil {
		s.disconnectOnce.Do(func() { err = broker.Close() })
	}
	return err
}
