package mqtt

import "fmt"

// MaxPayloadSize is the largest payload accepted for publishing (1MB).
// The cloud service reports larger notifications as build errors.
const MaxPayloadSize = 1 << 20

// validate checks the arguments shared by Publish, PublishAsync and Subscribe.
func validate(topic string, payload []byte, qos byte) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case qos > maxQoS:
		return ErrInvalidQoS
	case len(payload) > MaxPayloadSize:
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), MaxPayloadSize)
	}
	return nil
}

// Publish sends a message and waits for the broker.
//
// Retain only the device status topic; responses and notifications are
// never retained.
//
// Returns:
//   - error: ErrInvalidTopic, ErrInvalidQoS, ErrNotConnected, or wrapping
//     ErrPublishFailed
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := validate(topic, payload, qos); err != nil {
		return err
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// PublishAsync hands a message to the client and returns without waiting for
// the broker.
//
// Validation and connection errors are returned immediately, in which case
// done is never called. Otherwise done is called exactly once from a
// separate goroutine: with nil once the broker acknowledged the message
// (QoS 1/2) or it was written (QoS 0), or with an error wrapping
// ErrPublishFailed on failure or after the acknowledgment timeout.
//
// Parameters:
//   - topic, payload, qos: As for Publish (never retained)
//   - done: Completion callback; must not block
func (c *Client) PublishAsync(topic string, payload []byte, qos byte, done func(error)) error {
	if err := validate(topic, payload, qos); err != nil {
		return err
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, false, payload)
	go func() {
		switch {
		case !token.WaitTimeout(defaultAckTimeout):
			done(fmt.Errorf("%w: no acknowledgment after %v", ErrPublishFailed, defaultAckTimeout))
		case token.Error() != nil:
			done(fmt.Errorf("%w: %w", ErrPublishFailed, token.Error()))
		default:
			done(nil)
		}
	}()
	return nil
}
