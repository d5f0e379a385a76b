// Package config loads the Gray Logic Edge device configuration.
//
// Values come from three layers, later ones winning: built-in defaults,
// the YAML file (configs/config.yaml or GRAYLOGIC_EDGE_CONFIG), and
// GRAYLOGIC_EDGE_* environment variables. Validate reports every problem
// at once rather than stopping at the first.
//
// Provisioning credentials in the file are only a first-boot seed. After
// that the provisioning store in SQLite is authoritative, so set them via
// GRAYLOGIC_EDGE_ENDPOINT_NAME and GRAYLOGIC_EDGE_PROVISIONING_PASSWORD and
// keep the file at 0600.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return fmt.Errorf("loading config: %w", err)
//	}
//	delay := cfg.GetStartupDelay()
package config
