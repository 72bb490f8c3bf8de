// Package units provides shared constants and conversions for length units.
package units

import "strings"

// Unit constants
const (
	Meters      = "m"
	Millimeters = "mm"
)

// ValidUnits contains all valid length unit values
var ValidUnits = []string{Meters, Millimeters}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// MillimetersPerMeter is the capture file coordinate resolution.
const MillimetersPerMeter = 1000.0

// ConvertLength converts a length in millimetres, as stored in capture
// files, to the target units.
func ConvertLength(mm int32, targetUnits string) float64 {
	switch targetUnits {
	case Millimeters:
		return float64(mm)
	default:
		return float64(mm) / MillimetersPerMeter
	}
}
