// Package mqtt provides MQTT client connectivity for Gray Logic Edge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing, synchronous or with an acknowledgment callback
//   - Topic subscriptions with wildcard support
//   - A retained device status topic, with the offline variant as the will
//   - Topic naming for the device-management session
//
// # Architecture
//
// The device-management session is carried over an MQTT broker. The device
// registers, answers requests and publishes change notifications; the
// management server subscribes to the other side of each topic.
//
//	Gray Logic Edge ↔ MQTT Broker ↔ Device Management Server
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials come from the provisioning store and are checked by broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	topics := mqtt.Topics{Prefix: cfg.Registration.TopicPrefix}
//	client, err := mqtt.Connect(cfg.MQTT, topics, creds.EndpointName)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	// Receive every request addressed to this endpoint
//	err = client.Subscribe(topics.AllRequests("edge-001"), 1,
//	    func(topic string, payload []byte) error {
//	        op, path, ok := topics.ParseRequest("edge-001", topic)
//	        ...
//	    })
//
//	// Publish a notification and learn when the broker acknowledged it
//	err = client.PublishAsync(topics.Notify("edge-001", "3200/0/5501"), body, 1,
//	    func(err error) { ... })
package mqtt
