package panel

import (
	"strings"

	"github.com/gosimple/slug"

	"github.com/nerrad567/gray-logic-panels/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-panels/internal/protocol"
)

// ConnectorType is what is fitted in a connector slot.
type ConnectorType string

const (
	ConnectorUnfitted   ConnectorType = "unfitted"
	ConnectorButtonPair ConnectorType = "buttonpair"
	ConnectorDisplay    ConnectorType = "display"
)

// ParseConnectorType maps a configuration value to a ConnectorType.
// Unknown and empty values are unfitted.
func ParseConnectorType(s string) ConnectorType {
	switch ConnectorType(strings.ToLower(strings.TrimSpace(s))) {
	case ConnectorButtonPair:
		return ConnectorButtonPair
	case ConnectorDisplay:
		return ConnectorDisplay
	default:
		return ConnectorUnfitted
	}
}

// HasButtons reports whether gestures can arrive from this connector.
func (t ConnectorType) HasButtons() bool {
	return t == ConnectorButtonPair || t == ConnectorDisplay
}

// Connector is one slot of a panel and the configuration bound to it.
// ConfigID refers to a button configuration for button pairs and to a
// display configuration for displays; nil means unassigned.
type Connector struct {
	Index    int
	Type     ConnectorType
	ConfigID *int64
}

// Options describe one panel.
type Options struct {
	// Namespace is the first topic segment, for example "buttonplus".
	Namespace string
	// ID is the panel id used in topics.
	ID string
	// DeviceID is the panel's own device in the automation graph.
	DeviceID string
	Name     string
	// BrokerID selects the broker the panel is attached to; empty means default.
	BrokerID string
	Firmware string

	PageMinVersion       string
	BrightnessMinVersion string

	Connectors []Connector
}

// OptionsFromConfig builds Options from the configuration file entry.
// The topic id defaults to a slug of the panel name.
func OptionsFromConfig(p config.PanelConfig, panels config.PanelsConfig) Options {
	id := p.MQTTID
	if id == "" {
		id = slug.Make(p.Name)
	}
	opts := Options{
		Namespace:            panels.Namespace,
		ID:                   id,
		DeviceID:             p.DeviceID,
		Name:                 p.Name,
		BrokerID:             p.BrokerID,
		Firmware:             p.Firmware,
		PageMinVersion:       panels.Firmware.PageMinVersion,
		BrightnessMinVersion: panels.Firmware.BrightnessMinVersion,
	}
	for _, c := range p.Connectors {
		opts.Connectors = append(opts.Connectors, Connector{
			Index:    c.Index,
			Type:     ParseConnectorType(c.Type),
			ConfigID: c.ConfigID,
		})
	}
	return opts
}

// Binding is a (device, attribute) pair a panel depends on.
type Binding struct {
	DeviceID  string
	Attribute string
}

// ButtonSnapshot is the local state of one button.
type ButtonSnapshot struct {
	Index     int  `json:"index"`
	On        bool `json:"on"`
	LongPress bool `json:"long_press"`
}

// ConnectorSnapshot is the state of one connector.
type ConnectorSnapshot struct {
	Index    int             `json:"index"`
	Type     ConnectorType   `json:"type"`
	ConfigID *int64          `json:"config_id,omitempty"`
	Left     *ButtonSnapshot `json:"left,omitempty"`
	Right    *ButtonSnapshot `json:"right,omitempty"`
}

// Snapshot is a point-in-time view of a panel, used by the API.
type Snapshot struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	DeviceID    string              `json:"device_id"`
	Firmware    string              `json:"firmware"`
	Pages       bool                `json:"pages_supported"`
	Brightness  bool                `json:"brightness_supported"`
	Page        int                 `json:"page,omitempty"`
	Temperature *float64            `json:"temperature,omitempty"`
	Connectors  []ConnectorSnapshot `json:"connectors"`
}

type pressKey struct {
	connector int
	side      protocol.Side
}

type lineKey struct {
	connector int
	line      int
}
