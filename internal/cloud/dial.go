package cloud

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/nerrad567/gray-logic-edge/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-edge/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-edge/internal/provisioning"
)

// MQTTDialer returns a DialFunc that connects with cfg, overridden by the
// provisioned credentials.
func MQTTDialer(cfg config.MQTTConfig, topics mqtt.Topics, logger mqtt.Logger) DialFunc {
	return func(_ context.Context, creds provisioning.Credentials) (Broker, error) {
		effective, err := ApplyCredentials(cfg, creds)
		if err != nil {
			return nil, err
		}

		client, err := mqtt.Connect(effective, topics, creds.EndpointName)
		if err != nil {
			return nil, err
		}
		if logger != nil {
			client.SetLogger(logger)
			client.SetOnDisconnect(func(err error) {
				logger.Warn("broker connection lost", "endpoint", creds.EndpointName, "error", err)
			})
		}
		return client, nil
	}
}

// ApplyCredentials returns cfg with broker auth and, if set, the server URI
// taken from creds. ServerURI has the form scheme://host:port where scheme
// is tcp or ssl.
func ApplyCredentials(cfg config.MQTTConfig, creds provisioning.Credentials) (config.MQTTConfig, error) {
	if creds.Username != "" {
		cfg.Auth.Username = creds.Username
		cfg.Auth.Password = creds.Password
	}
	if creds.ServerURI == "" {
		return cfg, nil
	}

	u, err := url.Parse(creds.ServerURI)
	if err != nil {
		return cfg, fmt.Errorf("parsing server uri: %w", err)
	}
	switch u.Scheme {
	case "tcp", "mqtt":
		cfg.Broker.TLS = false
	case "ssl", "mqtts", "tls":
		cfg.Broker.TLS = true
	default:
		return cfg, fmt.Errorf("unsupported server uri scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return cfg, fmt.Errorf("server uri %q has no host", creds.ServerURI)
	}
	cfg.Broker.Host = u.Hostname()

	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return cfg, fmt.Errorf("parsing server uri port: %w", err)
		}
		cfg.Broker.Port = port
	}
	return cfg, nil
}
