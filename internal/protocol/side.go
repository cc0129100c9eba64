package protocol

import "fmt"

// MaxConnectors is the number of connector slots on a panel.
const MaxConnectors = 8

// MaxButtonIndex is the highest valid button index.
const MaxButtonIndex = MaxConnectors*2 - 1

// Side is one half of a button-pair connector.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Right {
		return "right"
	}
	return "left"
}

// IsLeft reports whether s is the left side.
func (s Side) IsLeft() bool { return s == Left }

// ButtonIndex returns the bus index of one side of a connector.
func ButtonIndex(connector int, side Side) int {
	idx := connector * 2
	if side == Right {
		idx++
	}
	return idx
}

// DecodeButtonIndex is the inverse of ButtonIndex.
func DecodeButtonIndex(index int) (connector int, side Side, err error) {
	if index < 0 || index > MaxButtonIndex {
		return 0, Left, fmt.Errorf("%w: %d", ErrInvalidButtonIndex, index)
	}
	side = Left
	if index%2 == 1 {
		side = Right
	}
	return index / 2, side, nil
}
