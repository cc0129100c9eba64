// Package influxdb records panel telemetry in InfluxDB v2.
//
// Two measurements are written:
//   - panel_temperature: the built-in sensor of each panel (tag panel_id)
//   - panel_button: one point per gesture (tags panel_id, connector, side, gesture)
//
// Writes go through the client library's non-blocking batch API:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	client.WritePanelTemperature("panel-hall", 21.5)
package influxdb
