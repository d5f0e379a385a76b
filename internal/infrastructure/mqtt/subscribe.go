package mqtt

import "fmt"

// Subscribe registers handler for topic, which may contain + and #
// wildcards, and waits for the broker's SUBACK.
//
// The subscription is remembered and restored after a reconnect. A
// subscription the broker rejected is forgotten again.
//
// Example:
//
//	err := client.Subscribe(topics.AllRequests("edge-001"), 1,
//	    func(topic string, payload []byte) error {
//	        op, path, ok := topics.ParseRequest("edge-001", topic)
//	        ...
//	    })
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if err := validate(topic, nil, qos); err != nil {
		return err
	}
	if handler == nil {
		return fmt.Errorf("%w: nil handler for %s", ErrSubscribeFailed, topic)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.subMu.Lock()
	c.subs[topic] = subscription{qos: qos, handler: handler}
	c.subMu.Unlock()

	token := c.client.Subscribe(topic, qos, c.wrapHandler(handler))
	var err error
	if !token.WaitTimeout(defaultPublishTimeout) {
		err = fmt.Errorf("timeout after %v", defaultPublishTimeout)
	} else {
		err = token.Error()
	}
	if err != nil {
		c.subMu.Lock()
		delete(c.subs, topic)
		c.subMu.Unlock()
		return fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, topic, err)
	}
	return nil
}
