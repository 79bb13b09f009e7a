// Package report writes estimator results as CSV, a colour-magnitude
// diagram and an interactive HTML scatter chart.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/tesslum/internal/catalog"
	"github.com/banshee-data/tesslum/internal/luminosity"
	"github.com/banshee-data/tesslum/internal/units"
	"github.com/banshee-data/tesslum/internal/version"
)

// Run is one invocation of the estimator together with its inputs' track.
type Run struct {
	ID        string
	CreatedAt time.Time
	Version   string
	Estimates []luminosity.Estimate
	Track     *catalog.Track

	// DistanceUnits is used for the CSV distance column. Empty means pc.
	DistanceUnits string
}

// NewRun stamps a set of estimates with a fresh run ID.
func NewRun(ests []luminosity.Estimate, track *catalog.Track) *Run {
	return &Run{
		ID:            uuid.New().String(),
		CreatedAt:     time.Now().UTC(),
		Version:       version.Version,
		Estimates:     ests,
		Track:         track,
		DistanceUnits: units.PC,
	}
}

// CSVHeader returns the CSV column names for the given distance units.
func CSVHeader(distanceUnits string) []string {
	return []string{
		"ticid", "matched", "distance_" + distanceUnits, "phot_bp_mean_mag", "phot_rp_mean_mag",
		"bp_rp", "abs_tess_mag", "app_tess_mag", "flux", "luminosity", "log10_luminosity",
	}
}

// WriteCSV writes one row per estimate. NaN values are written as empty
// cells.
func WriteCSV(w io.Writer, run *Run) error {
	distUnits := run.DistanceUnits
	if distUnits == "" {
		distUnits = units.PC
	}
	if !units.IsValid(distUnits) {
		return fmt.Errorf("invalid distance units %q (want one of %s)", distUnits, units.GetValidUnitsString())
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader(distUnits)); err != nil {
		return err
	}
	for _, e := range run.Estimates {
		row := []string{
			strconv.FormatInt(int64(e.TargetID), 10),
			strconv.FormatBool(e.Matched),
			formatFloat(units.ConvertDistance(e.DistancePC, distUnits)),
			formatFloat(e.BPMag),
			formatFloat(e.RPMag),
			formatFloat(e.Color),
			formatFloat(e.AbsMag),
			formatFloat(e.AppMag),
			formatFloat(e.Flux),
			formatFloat(e.Luminosity),
			formatFloat(e.LogLuminosity),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write TIC %d: %w", e.TargetID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Summary describes the finite log10 luminosities of a run.
type Summary struct {
	Targets int
	Matched int
	Finite  int
	Mean    float64
	StdDev  float64
	Min     float64
	Max     float64
}

// Summarise computes a Summary. Statistics are NaN when no estimate is
// finite; StdDev is NaN with fewer than two.
func Summarise(ests []luminosity.Estimate) Summary {
	s := Summary{Targets: len(ests)}
	vals := make([]float64, 0, len(ests))
	for _, e := range ests {
		if e.Matched {
			s.Matched++
		}
		if !math.IsNaN(e.LogLuminosity) && !math.IsInf(e.LogLuminosity, 0) {
			vals = append(vals, e.LogLuminosity)
		}
	}
	s.Finite = len(vals)

	nan := math.NaN()
	s.Mean, s.StdDev, s.Min, s.Max = nan, nan, nan, nan
	if len(vals) == 0 {
		return s
	}
	s.Mean = stat.Mean(vals, nil)
	s.Min = floats.Min(vals)
	s.Max = floats.Max(vals)
	if len(vals) > 1 {
		s.StdDev = stat.StdDev(vals, nil)
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("targets=%d matched=%d finite=%d mean=%.4f std=%.4f min=%.4f max=%.4f",
		s.Targets, s.Matched, s.Finite, s.Mean, s.StdDev, s.Min, s.Max)
}
