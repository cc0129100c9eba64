package influxdb

import "errors"

// Sentinel errors for InfluxDB operations. Write failures are not returned;
// they arrive on the SetOnError callback.
var (
	// ErrNotConnected indicates the client is closed or never connected.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed indicates the initial ping failed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrDisabled indicates telemetry is turned off in configuration.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
