package protocol

import (
	"fmt"
	"strconv"
)

// Channel is one of the panel's backlight groups.
type Channel string

const (
	ChannelLarge Channel = "large"
	ChannelMini  Channel = "mini"
	ChannelLEDs  Channel = "leds"
)

// Channels lists every brightness channel.
func Channels() []Channel {
	return []Channel{ChannelLarge, ChannelMini, ChannelLEDs}
}

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	switch c {
	case ChannelLarge, ChannelMini, ChannelLEDs:
		return true
	}
	return false
}

// Topic path segments.
const (
	segValue       = "value"
	segLabel       = "label"
	segTopLabel    = "toplabel"
	segBrightness  = "brightness"
	segSetPage     = "setpage"
	segCurrentPage = "currentpage"
	segTemperature = "button_temperature"
	segDisplay     = "display"
	segClick       = "click"
	segLongPress   = "longpress"
	segRelease     = "release"
)

// Topics builds topics for one panel.
//
//	t := protocol.Topics{Namespace: "buttonplus", PanelID: "hall"}
//	t.Value(3) // "buttonplus/hall/3/value"
type Topics struct {
	Namespace string
	PanelID   string
}

func (t Topics) prefix() string {
	return t.Namespace + "/" + t.PanelID
}

func (t Topics) button(index int, seg string) string {
	return t.prefix() + "/" + strconv.Itoa(index) + "/" + seg
}

// Value is the value topic of a button.
func (t Topics) Value(index int) string { return t.button(index, segValue) }

// Label is the label shown under a button.
func (t Topics) Label(index int) string { return t.button(index, segLabel) }

// TopLabel is the static label above a button.
func (t Topics) TopLabel(index int) string { return t.button(index, segTopLabel) }

// Gesture is the inbound topic the panel uses to report a gesture.
func (t Topics) Gesture(index int, kind Kind) string {
	return t.button(index, kind.segment())
}

// Brightness is the value topic of a backlight channel.
func (t Topics) Brightness(c Channel) string {
	return fmt.Sprintf("%s/%s/%s/%s", t.prefix(), segBrightness, c, segValue)
}

// SetPage is the topic page requests are published on.
func (t Topics) SetPage() string {
	return t.prefix() + "/" + segSetPage + "/" + segValue
}

// CurrentPage is the topic the panel reports its page on.
func (t Topics) CurrentPage() string {
	return t.prefix() + "/" + segCurrentPage + "/" + segValue
}

// Temperature is the topic of the built-in temperature sensor.
func (t Topics) Temperature() string {
	return t.prefix() + "/" + segTemperature + "/" + segValue
}

// DisplayLine is the value topic of one line on a display connector.
func (t Topics) DisplayLine(connector, line int) string {
	return fmt.Sprintf("%s/%s/%d/%d/%s", t.prefix(), segDisplay, connector, line, segValue)
}

// Subscriptions returns the inbound topic filters for the panel.
// Brightness and page topics are included only when supported.
func (t Topics) Subscriptions(brightness, pages bool) []string {
	p := t.prefix()
	subs := []string{
		p + "/+/" + segClick,
		p + "/+/" + segLongPress,
		p + "/+/" + segRelease,
		t.Temperature(),
	}
	if brightness {
		subs = append(subs, p+"/"+segBrightness+"/+/"+segValue)
	}
	if pages {
		subs = append(subs, t.CurrentPage())
	}
	return subs
}
