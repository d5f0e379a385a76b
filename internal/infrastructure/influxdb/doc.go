// Package influxdb provides optional InfluxDB telemetry for Gray Logic Edge.
//
// It wraps the official influxdb-client-go v2 library. The device writes two
// measurements, tagged with its endpoint name:
//   - resource_value: every value change of a resource (path, name tags)
//   - notification: every delivery status reported for an observed resource
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB, creds.EndpointName)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	client.WriteResourceValue("3200/0/5501", "button", []byte("3"))
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are non-blocking and
// batched (batch_size, flush_interval); write errors arrive via SetOnError.
package influxdb
