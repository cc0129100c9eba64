// Package config handles loading and validating panel bridge configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with PANELS_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// Broker credentials should be supplied through PANELS_MQTT_AUTH_USERNAME
// and PANELS_MQTT_AUTH_PASSWORD rather than committed to the file.
//
// Usage:
//
//	cfg, err := config.Load("configs/panels.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Panels.Namespace)
package config
