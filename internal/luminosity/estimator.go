// Package luminosity estimates the TESS-band luminosity of TIC targets from
// their Gaia colours and distances.
//
// For each target the BP-RP colour is interpolated onto the main-sequence
// part of a reference isochrone to get an absolute TESS magnitude. The
// distance modulus turns that into an apparent magnitude, the TESS zero
// point into a flux, and the inverse-square law over a sphere of radius
// r_est into a luminosity in erg/s. Results are log10 luminosities.
//
// Both catalogs are loaded from their sources on every call.
package luminosity

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/tesslum/internal/catalog"
	"github.com/banshee-data/tesslum/internal/monitoring"
	"github.com/banshee-data/tesslum/internal/physics"
	"github.com/banshee-data/tesslum/internal/units"
)

// ErrNotFound is returned by EstimateOne when the target has no row in the
// cross-match table.
var ErrNotFound = errors.New("TIC not found in Gaia crossmatch")

// Estimate carries every intermediate quantity for one target. Quantities
// that cannot be computed are NaN.
type Estimate struct {
	TargetID      catalog.TargetID
	Matched       bool
	DistancePC    float64
	BPMag         float64
	RPMag         float64
	Color         float64 // BP-RP
	AbsMag        float64 // interpolated absolute TESS magnitude
	AppMag        float64 // apparent TESS magnitude
	Flux          float64 // erg/s/cm²
	Luminosity    float64 // erg/s
	LogLuminosity float64
}

// Estimator computes luminosities from an isochrone and a cross-match
// source.
type Estimator struct {
	isochrones catalog.IsochroneSource
	crossMatch catalog.CrossMatchSource
}

// New returns an Estimator reading from the given sources.
func New(iso catalog.IsochroneSource, xm catalog.CrossMatchSource) *Estimator {
	return &Estimator{isochrones: iso, crossMatch: xm}
}

// Estimate returns log10 luminosity for each target, in input order.
// Targets without a cross-match row are NaN; they never cause an error.
func (e *Estimator) Estimate(ids []catalog.TargetID) ([]float64, error) {
	ests, _, err := e.EstimateDetailed(ids)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(ests))
	for i, est := range ests {
		out[i] = est.LogLuminosity
	}
	return out, nil
}

// EstimateOne returns log10 luminosity for a single target. Unlike
// Estimate, a target with no cross-match row is an error wrapping
// ErrNotFound. A matched target with missing measurements still yields NaN
// without error.
func (e *Estimator) EstimateOne(id catalog.TargetID) (float64, error) {
	ests, _, err := e.EstimateDetailed([]catalog.TargetID{id})
	if err != nil {
		return math.NaN(), err
	}
	if !ests[0].Matched {
		return math.NaN(), fmt.Errorf("TIC %d: %w", id, ErrNotFound)
	}
	return ests[0].LogLuminosity, nil
}

// EstimateDetailed loads both catalogs and computes an Estimate per target
// together with the track used for interpolation.
func (e *Estimator) EstimateDetailed(ids []catalog.TargetID) ([]Estimate, *catalog.Track, error) {
	iso, err := e.isochrones.LoadIsochrone()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load isochrone: %w", err)
	}
	track, err := catalog.BuildTrack(iso)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build main-sequence track: %w", err)
	}

	xm, err := e.crossMatch.LoadCrossMatch(ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load cross-match: %w", err)
	}

	ests := make([]Estimate, len(ids))
	missing := 0
	for i, id := range ids {
		rec, ok := xm.Lookup(id)
		if !ok {
			rec = catalog.MissingRecord()
			missing++
		}
		ests[i] = compute(id, ok, rec, track)
	}
	if missing > 0 {
		monitoring.Logf("%d of %d targets not in Gaia crossmatch", missing, len(ids))
	}
	return ests, track, nil
}

// compute runs the magnitude-to-luminosity chain for one target. NaN
// inputs propagate to every downstream quantity.
func compute(id catalog.TargetID, matched bool, rec catalog.CrossMatchRecord, track *catalog.Track) Estimate {
	est := Estimate{
		TargetID:   id,
		Matched:    matched,
		DistancePC: rec.DistancePC,
		BPMag:      rec.BPMag,
		RPMag:      rec.RPMag,
		Color:      rec.Color(),
	}
	est.AbsMag = track.MagnitudeAt(est.Color)
	est.AppMag = units.ApparentMagnitude(est.AbsMag, est.DistancePC)
	est.Flux = units.MagnitudeToFlux(est.AppMag, physics.TESSZeroPointFlux)
	est.Luminosity = units.Luminosity(est.Flux, est.DistancePC)
	est.LogLuminosity = math.Log10(est.Luminosity)
	return est
}
