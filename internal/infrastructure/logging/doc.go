// Package logging provides structured logging for Gray Logic Edge.
//
// It wraps log/slog with the device defaults: JSON or text output, a level
// from config, and service/version fields on every entry. Component adds a
// component field so one logger can be shared by the engine packages, each
// of which only sees a small Debug/Info/Warn/Error interface.
//
// Configuration:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	log := logging.New(cfg.Logging, version)
//	log.Component("cloud").Warn("broker connection lost", "error", err)
//
// Button signal handlers never log; they only post to the event bridge.
// Never log provisioning credentials, broker passwords or InfluxDB tokens.
package logging
