package mqtt

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-edge/internal/infrastructure/config"
)

// Client is the device's broker session, built on paho.mqtt.golang.
//
// Besides publish and subscribe it maintains the retained device status
// topic: "online" on every (re)connect, "offline" with reason
// graceful_shutdown on Close, and the broker-published will with reason
// unexpected_disconnect otherwise.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Subscriptions are restored after a reconnect.
type Client struct {
	client   pahomqtt.Client
	cfg      config.MQTTConfig
	topics   Topics
	endpoint string

	subMu sync.RWMutex
	subs  map[string]subscription

	mu           sync.RWMutex
	connected    bool
	onDisconnect func(err error)
	logger       Logger
}

// Logger is the logging surface the client needs.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

type subscription struct {
	qos     byte
	handler MessageHandler
}

// MessageHandler receives one message.
//
// Handlers run on paho's delivery goroutine and must not block; the cloud
// service only decodes and hands work to the event bridge. A returned error
// is logged and does not affect acknowledgment.
type MessageHandler func(topic string, payload []byte) error

// Connect opens the broker session for endpoint.
//
// The will and the online status carry cfg.Broker.ClientID and endpoint.
// Auto-reconnect follows cfg.Reconnect.
//
// Parameters:
//   - cfg: MQTT configuration with provisioned credentials applied
//   - topics: Topic builder carrying the device-management prefix
//   - endpoint: Provisioned endpoint name, may be empty
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: wrapping ErrConnectionFailed if the broker is not reached in time
func Connect(cfg config.MQTTConfig, topics Topics, endpoint string) (*Client, error) {
	c := newClient(cfg, topics, endpoint)

	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		// Connect retry would otherwise keep dialling in the background.
		c.client.Disconnect(0)
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		c.client.Disconnect(0)
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// OnConnect runs asynchronously; mark the session up before returning.
	c.setConnected(true)
	return c, nil
}

func newClient(cfg config.MQTTConfig, topics Topics, endpoint string) *Client {
	c := &Client{
		cfg:      cfg,
		topics:   topics,
		endpoint: endpoint,
		subs:     make(map[string]subscription),
	}

	opts := buildClientOptions(cfg)
	opts.SetWill(topics.DeviceStatus(cfg.Broker.ClientID), string(c.status(statusOffline, reasonUnexpected)), 1, true)
	opts.SetOnConnectHandler(func(pahomqtt.Client) { c.onConnected() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.onLost(err) })
	opts.SetReconnectingHandler(func(pahomqtt.Client, *pahomqtt.ClientOptions) {
		if l := c.getLogger(); l != nil {
			l.Warn("broker reconnecting", "client_id", cfg.Broker.ClientID)
		}
	})

	c.client = pahomqtt.NewClient(opts)
	return c
}

// onConnected restores subscriptions and republishes the online status.
func (c *Client) onConnected() {
	c.setConnected(true)

	c.subMu.RLock()
	for topic, sub := range c.subs {
		c.client.Subscribe(topic, sub.qos, c.wrapHandler(sub.handler))
	}
	c.subMu.RUnlock()

	c.client.Publish(c.statusTopic(), c.qos(), true, c.status(statusOnline, ""))
}

func (c *Client) onLost(err error) {
	c.mu.Lock()
	c.connected = false
	cb := c.onDisconnect
	c.mu.Unlock()

	if cb != nil {
		cb(err)
	}
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

func (c *Client) statusTopic() string { return c.topics.DeviceStatus(c.cfg.Broker.ClientID) }

func (c *Client) qos() byte { return byte(c.cfg.QoS) } // #nosec G115 -- validated 0..2

func (c *Client) status(state, reason string) []byte {
	return statusPayload(c.cfg.Broker.ClientID, c.endpoint, state, reason)
}

// Close publishes the graceful offline status and disconnects.
// Safe on a zero Client.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	if c.IsConnected() {
		c.client.Publish(c.statusTopic(), c.qos(), true, c.status(statusOffline, reasonGraceful)).
			WaitTimeout(defaultPublishTimeout)
	}
	c.client.Disconnect(defaultDisconnectQuiesce)
	c.setConnected(false)
	return nil
}

// HealthCheck reports ErrNotConnected while the session is down.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected returns the last known connection state.
func (c *Client) IsConnected() bool {
	if c.client == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.client.IsConnected()
}

// Endpoint returns the endpoint name carried in status messages.
func (c *Client) Endpoint() string { return c.endpoint }

// SetOnDisconnect sets a callback for lost connections. Paho reconnects on
// its own; the callback is informational.
func (c *Client) SetOnDisconnect(callback func(err error)) {
	c.mu.Lock()
	c.onDisconnect = callback
	c.mu.Unlock()
}

// SetLogger sets a logger for handler errors and reconnects.
// Without one they are dropped silently.
func (c *Client) SetLogger(logger Logger) {
	c.mu.Lock()
	c.logger = logger
	c.mu.Unlock()
}

func (c *Client) getLogger() Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logger
}

// wrapHandler adapts a MessageHandler to paho, recovering panics.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				if l := c.getLogger(); l != nil {
					l.Error("mqtt handler panic recovered", "topic", msg.Topic(), "panic", r)
				}
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			if l := c.getLogger(); l != nil {
				l.Warn("mqtt handler returned error", "topic", msg.Topic(), "error", err)
			}
		}
	}
}
