package catalog

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/banshee-data/tesslum/internal/monitoring"
	"github.com/banshee-data/tesslum/internal/physics"
)

// ErrEmptyTrack is returned when no isochrone point survives the
// main-sequence cut.
var ErrEmptyTrack = errors.New("no main-sequence points in isochrone")

// Track is the main-sequence part of an isochrone as a single-valued
// function from BP-RP colour to absolute TESS magnitude. Colors is strictly
// increasing.
type Track struct {
	Colors []float64
	Mags   []float64

	// Unsorted is set when the filtered points were not already in colour
	// order after reversal and had to be sorted.
	Unsorted bool
	// Collapsed counts points dropped because their colour repeated an
	// earlier point.
	Collapsed int

	pl interp.PiecewiseLinear
}

// BuildTrack applies the main-sequence cut, reverses the surviving points
// so colour increases, and enforces a strictly increasing colour axis.
func BuildTrack(iso *Isochrone) (*Track, error) {
	colors := make([]float64, 0, len(iso.Points))
	mags := make([]float64, 0, len(iso.Points))
	for _, p := range iso.Points {
		c := p.Color()
		if !physics.IsMainSequence(p.RefMag, c) || math.IsNaN(p.TargetMag) {
			continue
		}
		colors = append(colors, c)
		mags = append(mags, p.TargetMag)
	}
	if len(colors) == 0 {
		return nil, ErrEmptyTrack
	}

	// Isochrones run from the lower main sequence upward, i.e. red to blue.
	floats.Reverse(colors)
	floats.Reverse(mags)

	tr := &Track{}
	if !sort.Float64sAreSorted(colors) {
		tr.Unsorted = true
		order := make([]int, len(colors))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return colors[order[a]] < colors[order[b]] })
		sc := make([]float64, len(order))
		sm := make([]float64, len(order))
		for i, j := range order {
			sc[i], sm[i] = colors[j], mags[j]
		}
		colors, mags = sc, sm
	}

	tr.Colors = colors[:1]
	tr.Mags = mags[:1]
	for i := 1; i < len(colors); i++ {
		if colors[i] <= tr.Colors[len(tr.Colors)-1] {
			tr.Collapsed++
			continue
		}
		tr.Colors = append(tr.Colors, colors[i])
		tr.Mags = append(tr.Mags, mags[i])
	}

	if tr.Unsorted || tr.Collapsed > 0 {
		monitoring.Logf("isochrone track not monotonic in colour: sorted=%v, collapsed %d points", tr.Unsorted, tr.Collapsed)
	}

	if len(tr.Colors) > 1 {
		if err := tr.pl.Fit(tr.Colors, tr.Mags); err != nil {
			return nil, fmt.Errorf("fit track: %w", err)
		}
	}
	return tr, nil
}

// Len returns the number of track points.
func (t *Track) Len() int {
	return len(t.Colors)
}

// ColorRange returns the bluest and reddest track colours.
func (t *Track) ColorRange() (lo, hi float64) {
	return t.Colors[0], t.Colors[len(t.Colors)-1]
}

// MagnitudeAt linearly interpolates the absolute TESS magnitude at color.
// Colours outside the track take the magnitude of the nearest end point.
// A NaN colour gives NaN.
func (t *Track) MagnitudeAt(color float64) float64 {
	if math.IsNaN(color) {
		return math.NaN()
	}
	if len(t.Colors) == 1 {
		return t.Mags[0]
	}
	return t.pl.Predict(color)
}
