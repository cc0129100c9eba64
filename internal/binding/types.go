package binding

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// SideConfig is the stored configuration of one side of a button pair.
type SideConfig struct {
	TargetKind TargetKind `yaml:"target_kind" json:"target_kind"`
	Target     string     `yaml:"target" json:"target"`
	Attribute  string     `yaml:"attribute" json:"attribute"`
	OnText     string     `yaml:"on_text" json:"on_text"`
	OffText    string     `yaml:"off_text" json:"off_text"`
	TopText    string     `yaml:"top_text" json:"top_text"`
	BrokerID   string     `yaml:"broker_id" json:"broker_id"`
	DimChange  string     `yaml:"dim_change" json:"dim_change"`
}

// ButtonConfig is one row of the button configuration table.
type ButtonConfig struct {
	ID        int64      `yaml:"id" json:"id"`
	Name      string     `yaml:"name" json:"name"`
	Left      SideConfig `yaml:"left" json:"left"`
	Right     SideConfig `yaml:"right" json:"right"`
	UpdatedAt time.Time  `yaml:"-" json:"updated_at"`
}

// DisplayItem is one line of a display configuration.
type DisplayItem struct {
	Device    string `yaml:"device" json:"device"`
	Attribute string `yaml:"attribute" json:"attribute"`
	Label     string `yaml:"label" json:"label"`
	Unit      string `yaml:"unit" json:"unit"`
	X         int    `yaml:"x" json:"x"`
	Y         int    `yaml:"y" json:"y"`
	Width     int    `yaml:"width" json:"width"`
	BrokerID  string `yaml:"broker_id" json:"broker_id"`
}

// DisplayConfig is one row of the display configuration table with its items.
type DisplayConfig struct {
	ID        int64         `yaml:"id" json:"id"`
	Name      string        `yaml:"name" json:"name"`
	Items     []DisplayItem `yaml:"items" json:"items"`
	UpdatedAt time.Time     `yaml:"-" json:"updated_at"`
}

// Record is the resolved binding of one button side.
// Records are values; the resolver hands out a fresh one per event.
type Record struct {
	Target    Target
	Attribute string
	OnLabel   string
	OffLabel  string
	TopLabel  string
	// BrokerID selects the broker; empty means the default broker.
	BrokerID string
	// DimDelta is a percentage: "+10" and "-10" step, "50" sets.
	DimDelta string
}

// ZeroRecord is the binding of an unassigned or unknown configuration.
func ZeroRecord() Record {
	return Record{Target: Unbound{}, DimDelta: "0"}
}

// HasLabels reports whether either on or off text is configured.
func (r Record) HasLabels() bool {
	return r.OnLabel != "" || r.OffLabel != ""
}

// Label returns the text for the given state.
func (r Record) Label(on bool) string {
	if on {
		return r.OnLabel
	}
	return r.OffLabel
}

// ApplyDim computes a new dim level from current.
//
// A signed delta ("+20", "-10") moves the level by delta/100 and clamps
// the result to [0,1]. An unsigned delta ("50") sets the level to exactly
// delta/100.
func (r Record) ApplyDim(current float64) (float64, error) {
	return ApplyDimDelta(r.DimDelta, current)
}

// ApplyDimDelta is the arithmetic behind Record.ApplyDim.
func ApplyDimDelta(delta string, current float64) (float64, error) {
	s := strings.TrimSpace(delta)
	if s == "" {
		s = "0"
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return current, fmt.Errorf("%w: %q", ErrInvalidDimDelta, delta)
	}

	next := f / 100
	if s[0] == '+' || s[0] == '-' {
		next = current + next
	}
	return math.Max(0, math.Min(1, next)), nil
}

func (s SideConfig) record() (Record, error) {
	target, err := NewTarget(s.TargetKind, s.Target)
	if err != nil {
		return Record{}, err
	}
	dim := s.DimChange
	if dim == "" {
		dim = "0"
	}
	return Record{
		Target:    target,
		Attribute: s.Attribute,
		OnLabel:   s.OnText,
		OffLabel:  s.OffText,
		TopLabel:  s.TopText,
		BrokerID:  s.BrokerID,
		DimDelta:  dim,
	}, nil
}

// DisplayLine is one resolved line of a display binding.
type DisplayLine struct {
	Line      int
	Device    string
	Attribute string
	Label     string
	Unit      string
	X         int
	Y         int
	Width     int
	BrokerID  string
}

// DisplayBinding is the resolved configuration of a display connector.
type DisplayBinding struct {
	ConfigID int64
	Lines    []DisplayLine
}

// LinesFor returns the lines bound to one device attribute.
func (d *DisplayBinding) LinesFor(deviceID, attribute string) []DisplayLine {
	if d == nil {
		return nil
	}
	var out []DisplayLine
	for _, l := range d.Lines {
		if l.Device == deviceID && l.Attribute == attribute {
			out = append(out, l)
		}
	}
	return out
}
