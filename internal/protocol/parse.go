package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies a panel topic.
type Kind int

const (
	KindUnknown Kind = iota
	KindClick
	KindLongPress
	KindRelease
	KindValue
	KindLabel
	KindTopLabel
	KindBrightness
	KindSetPage
	KindCurrentPage
	KindTemperature
	KindDisplayLine
)

var kindNames = map[Kind]string{
	KindUnknown:     "unknown",
	KindClick:       segClick,
	KindLongPress:   segLongPress,
	KindRelease:     segRelease,
	KindValue:       segValue,
	KindLabel:       segLabel,
	KindTopLabel:    segTopLabel,
	KindBrightness:  segBrightness,
	KindSetPage:     segSetPage,
	KindCurrentPage: segCurrentPage,
	KindTemperature: segTemperature,
	KindDisplayLine: segDisplay,
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

func (k Kind) segment() string { return k.String() }

// IsGesture reports whether k is a click, long-press or release.
func (k Kind) IsGesture() bool {
	return k == KindClick || k == KindLongPress || k == KindRelease
}

// ParseGesture maps "click", "longpress" or "release" to its Kind.
func ParseGesture(s string) (Kind, bool) {
	switch s {
	case segClick:
		return KindClick, true
	case segLongPress:
		return KindLongPress, true
	case segRelease:
		return KindRelease, true
	}
	return KindUnknown, false
}

// Topic is a decoded panel topic. Only the fields relevant to Kind are set.
type Topic struct {
	Namespace   string
	PanelID     string
	Kind        Kind
	ButtonIndex int
	Channel     Channel
	Connector   int
	Line        int
}

// ParseTopic decodes a topic of the form N/P/...
func ParseTopic(topic string) (Topic, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" {
		return Topic{}, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
	t := Topic{Namespace: parts[0], PanelID: parts[1]}
	rest := parts[2:]

	switch {
	case len(rest) == 2 && rest[0] == segSetPage && rest[1] == segValue:
		t.Kind = KindSetPage
	case len(rest) == 2 && rest[0] == segCurrentPage && rest[1] == segValue:
		t.Kind = KindCurrentPage
	case len(rest) == 2 && rest[0] == segTemperature && rest[1] == segValue:
		t.Kind = KindTemperature
	case len(rest) == 3 && rest[0] == segBrightness && rest[2] == segValue:
		t.Channel = Channel(rest[1])
		if !t.Channel.Valid() {
			return Topic{}, fmt.Errorf("%w: brightness channel %q", ErrUnknownTopic, rest[1])
		}
		t.Kind = KindBrightness
	case len(rest) == 4 && rest[0] == segDisplay && rest[3] == segValue:
		c, errC := strconv.Atoi(rest[1])
		l, errL := strconv.Atoi(rest[2])
		if errC != nil || errL != nil || c < 0 || c >= MaxConnectors || l < 0 {
			return Topic{}, fmt.Errorf("%w: display line %q", ErrUnknownTopic, topic)
		}
		t.Kind, t.Connector, t.Line = KindDisplayLine, c, l
	case len(rest) == 2:
		idx, err := strconv.Atoi(rest[0])
		if err != nil {
			return Topic{}, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
		}
		if idx < 0 || idx > MaxButtonIndex {
			return Topic{}, fmt.Errorf("%w: %d", ErrInvalidButtonIndex, idx)
		}
		t.ButtonIndex = idx
		if t.Kind = buttonKind(rest[1]); t.Kind == KindUnknown {
			return Topic{}, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
		}
	default:
		return Topic{}, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
	return t, nil
}

func buttonKind(seg string) Kind {
	switch seg {
	case segClick:
		return KindClick
	case segLongPress:
		return KindLongPress
	case segRelease:
		return KindRelease
	case segValue:
		return KindValue
	case segLabel:
		return KindLabel
	case segTopLabel:
		return KindTopLabel
	}
	return KindUnknown
}
