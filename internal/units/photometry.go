package units

import (
	"math"

	"github.com/banshee-data/tesslum/internal/physics"
)

// DistanceModulus returns m - M for a source at distancePC parsecs.
func DistanceModulus(distancePC float64) float64 {
	return 5 * math.Log10(distancePC/physics.AbsoluteMagDistancePC)
}

// ApparentMagnitude converts an absolute magnitude to the apparent magnitude
// seen from distancePC parsecs.
func ApparentMagnitude(absMag, distancePC float64) float64 {
	return absMag + DistanceModulus(distancePC)
}

// MagnitudeToFlux converts a magnitude to flux given the flux of a
// magnitude-zero source. The result has the units of zeroPointFlux.
func MagnitudeToFlux(mag, zeroPointFlux float64) float64 {
	return math.Pow(10, -mag/2.5) * zeroPointFlux
}

// SphereArea returns 4πr².
func SphereArea(radius float64) float64 {
	return 4 * math.Pi * radius * radius
}

// Luminosity integrates a flux in erg/s/cm² received at distancePC parsecs
// over the sphere of that radius, giving erg/s.
func Luminosity(flux, distancePC float64) float64 {
	return SphereArea(ParsecsToCentimetres(distancePC)) * flux
}
