package protocol

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Payload values for booleans on the bus.
const (
	PayloadTrue  = "true"
	PayloadFalse = "false"
)

// EncodeBool encodes a boolean payload.
func EncodeBool(b bool) []byte {
	if b {
		return []byte(PayloadTrue)
	}
	return []byte(PayloadFalse)
}

// EncodeNumber encodes a number using the shortest exact representation.
func EncodeNumber(f float64) []byte {
	return []byte(strconv.FormatFloat(f, 'f', -1, 64))
}

// EncodeValue encodes a bool, number or string. Nil encodes as an empty payload.
func EncodeValue(v any) []byte {
	switch val := v.(type) {
	case nil:
		return []byte{}
	case bool:
		return EncodeBool(val)
	case float64:
		return EncodeNumber(val)
	case float32:
		return EncodeNumber(float64(val))
	case int:
		return []byte(strconv.Itoa(val))
	case int64:
		return []byte(strconv.FormatInt(val, 10))
	case string:
		return []byte(val)
	case []byte:
		return val
	default:
		return []byte(fmt.Sprint(val))
	}
}

// DecodeExplicit reads the value carried by a gesture payload.
// An empty payload carries no value; "true" and "false" do.
func DecodeExplicit(payload []byte) (value bool, ok bool) {
	switch strings.TrimSpace(string(payload)) {
	case PayloadTrue:
		return true, true
	case PayloadFalse:
		return false, true
	}
	return false, false
}

// DecodeNumber parses a numeric payload.
func DecodeNumber(payload []byte) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidPayload, payload)
	}
	return f, nil
}

// DecodePageIndex parses a reported 0-based page index and returns the
// 1-based page. Negative, fractional and non-finite indices are rejected.
func DecodePageIndex(payload []byte) (int, error) {
	f, err := DecodeNumber(payload)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %q is not a page index", ErrInvalidPayload, payload)
	}
	return PageFromWire(int(f)), nil
}

// Named page commands understood by the firmware.
const (
	PageNext     = "next"
	PagePrevious = "prev"
)

// PageCommand is a parsed setpage request.
type PageCommand struct {
	// Page is the 1-based target page. Zero for named commands.
	Page int
	// Name is PageNext or PagePrevious for relative moves.
	Name string
}

// ParsePageCommand parses a 1-based page number or a named command.
func ParsePageCommand(s string) (PageCommand, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case PageNext, PagePrevious:
		return PageCommand{Name: s}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return PageCommand{}, fmt.Errorf("%w: %q", ErrInvalidPage, s)
	}
	return PageCommand{Page: n}, nil
}

// Apply returns the page cursor after the command, starting from current.
// The page count is unknown here, so "next" is not bounded; the panel's
// next currentpage report replaces the cursor.
func (c PageCommand) Apply(current int) int {
	switch c.Name {
	case PageNext:
		return current + 1
	case PagePrevious:
		if current > 1 {
			return current - 1
		}
		return 1
	}
	return c.Page
}

// Payload encodes the command for the setpage topic.
func (c PageCommand) Payload() []byte {
	if c.Name != "" {
		return []byte(c.Name)
	}
	return []byte(strconv.Itoa(PageToWire(c.Page)))
}
