package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	measurementPanelTemperature = "panel_temperature"
	measurementButtonEvent      = "panel_button"
)

// WritePanelTemperature records a reading from a panel's built-in sensor.
//
//	client.WritePanelTemperature("panel-hall", 21.5)
func (c *Client) WritePanelTemperature(panelID string, celsius float64) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(panelTemperaturePoint(panelID, celsius, time.Now()))
}

// WriteButtonEvent records one gesture on a panel button.
// gesture is click, longpress or release.
func (c *Client) WriteButtonEvent(panelID string, connector int, left bool, gesture string) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(buttonEventPoint(panelID, connector, left, gesture, time.Now()))
}

func panelTemperaturePoint(panelID string, celsius float64, ts time.Time) *write.Point {
	return write.NewPoint(
		measurementPanelTemperature,
		map[string]string{"panel_id": panelID},
		map[string]interface{}{"celsius": celsius},
		ts,
	)
}

func buttonEventPoint(panelID string, connector int, left bool, gesture string, ts time.Time) *write.Point {
	side := "right"
	if left {
		side = "left"
	}
	return write.NewPoint(
		measurementButtonEvent,
		map[string]string{
			"panel_id":  panelID,
			"connector": strconv.Itoa(connector),
			"side":      side,
			"gesture":   gesture,
		},
		map[string]interface{}{"count": 1},
		ts,
	)
}
