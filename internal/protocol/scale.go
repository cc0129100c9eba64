package protocol

import "math"

// Scaling factors between 0..1 fractions and bus values.
const (
	BrightnessScale = 255
	PercentScale    = 100
)

// ToBrightness converts a 0..1 fraction to the 0..255 brightness range.
func ToBrightness(fraction float64) int {
	return int(math.Round(clamp01(fraction) * BrightnessScale))
}

// FromBrightness converts a 0..255 brightness value to a 0..1 fraction.
func FromBrightness(v float64) float64 {
	return clamp01(v / BrightnessScale)
}

// ToPercent converts a 0..1 fraction to a whole percentage.
func ToPercent(fraction float64) int {
	return int(math.Round(clamp01(fraction) * PercentScale))
}

// FromPercent converts a percentage to a 0..1 fraction.
func FromPercent(v float64) float64 {
	return clamp01(v / PercentScale)
}

// PageToWire converts a 1-based page to the 0-based bus index.
func PageToWire(page int) int {
	return page - 1
}

// PageFromWire converts a 0-based bus index to a 1-based page.
func PageFromWire(index int) int {
	return index + 1
}

func clamp01(f float64) float64 {
	switch {
	case math.IsNaN(f), f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
