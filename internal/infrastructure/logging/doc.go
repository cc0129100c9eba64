// Package logging provides structured logging for the panel bridge.
//
// It wraps log/slog with a JSON or text handler, level filtering and the
// default fields service and version.
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Component("panel").Info("connector pressed", "panel", id)
//
// Never log broker passwords or InfluxDB tokens.
package logging
