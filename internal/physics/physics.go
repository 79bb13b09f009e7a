// Package physics holds the fixed physical parameters used by the luminosity
// pipeline. None of these are configurable at runtime.
package physics

// TESSZeroPointFlux is the TESS-band flux of a magnitude-zero source in
// erg/s/cm² (Sullivan et al. 2015).
const TESSZeroPointFlux = 4.03e-6

// Main-sequence cut applied to isochrone points before interpolation.
// Points must be fainter than MainSequenceMinRefMag in Gaia G and have a
// BP-RP colour strictly between MainSequenceMinColor and MainSequenceMaxColor.
const (
	MainSequenceMinRefMag = 4.0
	MainSequenceMinColor  = 0.0
	MainSequenceMaxColor  = 4.5
)

// ParsecCM is the length of one parsec in centimetres (IAU 2015 B2).
const ParsecCM = 3.0856775814913673e18

// AbsoluteMagDistancePC is the reference distance for absolute magnitudes.
const AbsoluteMagDistancePC = 10.0

// IsMainSequence reports whether an isochrone point with the given Gaia G
// magnitude and BP-RP colour passes the main-sequence cut.
func IsMainSequence(refMag, color float64) bool {
	return refMag > MainSequenceMinRefMag &&
		color > MainSequenceMinColor &&
		color < MainSequenceMaxColor
}
