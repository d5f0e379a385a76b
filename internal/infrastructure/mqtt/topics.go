package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is the root of the device-management namespace.
const DefaultTopicPrefix = "graylogic/dm"

// Topic segments under {prefix}/{endpoint}/.
const (
	segmentRequest    = "req"
	segmentResponse   = "resp"
	segmentNotify     = "notify"
	segmentDeregister = "deregister"
	segmentRegister   = "register"
	segmentRegistered = "registration"
	segmentStatus     = "status"
)

// Topics builds device-management topics under a prefix.
// Using these helpers keeps device and server in agreement on naming.
//
//	topics := mqtt.Topics{Prefix: "graylogic/dm"}
//	topics.Notify("edge-001", "3200/0/5501")
//	// Returns: "graylogic/dm/edge-001/notify/3200/0/5501"
//
// A zero Topics uses DefaultTopicPrefix.
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return strings.TrimSuffix(t.Prefix, "/")
}

// =============================================================================
// Registration Topics
// =============================================================================

// Register returns the topic the device publishes its registration on.
//
// Example: graylogic/dm/register/graylogic-edge
func (t Topics) Register(clientID string) string {
	return fmt.Sprintf("%s/%s/%s", t.prefix(), segmentRegister, clientID)
}

// Registration returns the topic the server answers registration on.
//
// Example: graylogic/dm/graylogic-edge/registration
func (t Topics) Registration(clientID string) string {
	return fmt.Sprintf("%s/%s/%s", t.prefix(), clientID, segmentRegistered)
}

// Deregister returns the topic for graceful unregistration.
//
// Example: graylogic/dm/edge-001/deregister
func (t Topics) Deregister(endpoint string) string {
	return fmt.Sprintf("%s/%s/%s", t.prefix(), endpoint, segmentDeregister)
}

// DeviceStatus returns the retained online/offline topic (also the LWT topic).
//
// Example: graylogic/dm/graylogic-edge/status
func (t Topics) DeviceStatus(clientID string) string {
	return fmt.Sprintf("%s/%s/%s", t.prefix(), clientID, segmentStatus)
}

// =============================================================================
// Resource Topics
// =============================================================================

// Request returns the topic the server sends an operation on.
//
// Example: graylogic/dm/edge-001/req/put/3201/0/5853
func (t Topics) Request(endpoint, op, path string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", t.prefix(), endpoint, segmentRequest, op, path)
}

// Response returns the topic the device answers an operation on.
//
// Example: graylogic/dm/edge-001/resp/get/3200/0/5501
func (t Topics) Response(endpoint, op, path string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", t.prefix(), endpoint, segmentResponse, op, path)
}

// Notify returns the topic for change notifications of one resource.
//
// Example: graylogic/dm/edge-001/notify/3200/0/5501
func (t Topics) Notify(endpoint, path string) string {
	return fmt.Sprintf("%s/%s/%s/%s", t.prefix(), endpoint, segmentNotify, path)
}

// =============================================================================
// Wildcard Subscriptions
// =============================================================================

// AllRequests returns a subscription pattern for every request to endpoint.
//
// Pattern: graylogic/dm/edge-001/req/#
func (t Topics) AllRequests(endpoint string) string {
	return fmt.Sprintf("%s/%s/%s/#", t.prefix(), endpoint, segmentRequest)
}

// ParseRequest splits a request topic into operation and resource path.
//
// "graylogic/dm/edge-001/req/put/3201/0/5853" → ("put", "3201/0/5853", true)
func (t Topics) ParseRequest(endpoint, topic string) (op, path string, ok bool) {
	base := fmt.Sprintf("%s/%s/%s/", t.prefix(), endpoint, segmentRequest)
	rest, found := strings.CutPrefix(topic, base)
	if !found {
		return "", "", false
	}

	op, path, found = strings.Cut(rest, "/")
	if !found || op == "" || path == "" {
		return "", "", false
	}
	return op, path, true
}
