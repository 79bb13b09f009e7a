// Package units provides shared constants, validation and conversions for
// distance units and photometric quantities.
package units

import (
	"strings"

	"github.com/banshee-data/tesslum/internal/physics"
)

// Distance unit constants
const (
	PC = "pc"
	LY = "ly"
	M  = "m"
	CM = "cm"
)

// Conversion factors from one parsec.
const (
	lightYearsPerParsec = 3.2615637771674337
	metresPerParsec     = physics.ParsecCM / 100
)

// ValidUnits contains all valid distance unit values
var ValidUnits = []string{PC, LY, M, CM}

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

// ParsecsToCentimetres converts a distance in parsecs to centimetres.
func ParsecsToCentimetres(pc float64) float64 {
	return pc * physics.ParsecCM
}

// ConvertDistance converts a distance from parsecs to the target units.
// Catalogs store distances in parsecs.
func ConvertDistance(distancePC float64, targetUnits string) float64 {
	switch targetUnits {
	case LY:
		return distancePC * lightYearsPerParsec
	case M:
		return distancePC * metresPerParsec
	case CM:
		return ParsecsToCentimetres(distancePC)
	case PC:
		return distancePC
	default:
		return distancePC // default to pc if unknown unit
	}
}
