package automation

import "time"

// TriggerKind names an automation trigger.
type TriggerKind string

const (
	TriggerButtonOn     TriggerKind = "button_on"
	TriggerButtonOff    TriggerKind = "button_off"
	TriggerLongPress    TriggerKind = "long_press"
	TriggerRelease      TriggerKind = "release"
	TriggerConfigButton TriggerKind = "config_button"
)

// Phase is the gesture stage reported by a config button trigger.
type Phase string

const (
	PhaseClicked  Phase = "clicked"
	PhaseLong     Phase = "long"
	PhaseReleased Phase = "released"
)

// Event is the JSON document published for every trigger.
type Event struct {
	ID        string      `json:"id"`
	Kind      TriggerKind `json:"kind"`
	PanelID   string      `json:"panel_id"`
	Connector int         `json:"connector"`
	Side      string      `json:"side"`

	// Config button triggers only.
	ConnectorType string `json:"connector_type,omitempty"`
	ConfigID      *int64 `json:"config_id,omitempty"`
	Phase         Phase  `json:"phase,omitempty"`
	Value         any    `json:"value,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}
