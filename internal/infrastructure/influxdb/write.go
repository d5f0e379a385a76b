package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	measurementResourceValue = "resource_value"
	measurementNotification  = "notification"
)

// WriteResourceValue records a resource value change.
//
// Values that parse as base-10 integers (the button counter) are stored in
// the numeric "count" field as well, so they can be graphed.
//
// Parameters:
//   - path: Resource path, e.g. "3200/0/5501"
//   - name: Resource name, e.g. "button"
//   - value: Raw resource value
func (c *Client) WriteResourceValue(path, name string, value []byte) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(resourceValuePoint(path, name, value, time.Now()))
}

// WriteNotificationStatus records a delivery status reported for a resource.
//
// Parameters:
//   - path: Resource path
//   - status: Status name, e.g. "DELIVERED"
//   - state: Tracker state after the status, e.g. "FAILED"
//   - attempts: Value changes queued so far
func (c *Client) WriteNotificationStatus(path, status, state string, attempts int) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(notificationPoint(path, status, state, attempts, time.Now()))
}

// WritePoint writes a custom point.
//
// Example:
//
//	client.WritePoint("pattern_run",
//	    map[string]string{"mode": "scheduled"},
//	    map[string]any{"toggles": 4})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}

func resourceValuePoint(path, name string, value []byte, ts time.Time) *write.Point {
	fields := map[string]any{
		"value": string(value),
	}
	if n, err := strconv.ParseInt(string(value), 10, 64); err == nil {
		fields["count"] = n
	}

	return write.NewPoint(
		measurementResourceValue,
		map[string]string{
			"path": path,
			"name": name,
		},
		fields,
		ts,
	)
}

func notificationPoint(path, status, state string, attempts int, ts time.Time) *write.Point {
	return write.NewPoint(
		measurementNotification,
		map[string]string{
			"path":   path,
			"status": status,
		},
		map[string]any{
			"state":    state,
			"attempts": attempts,
		},
		ts,
	)
}
