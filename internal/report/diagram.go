package report

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/tesslum/internal/fsutil"
	"github.com/banshee-data/tesslum/internal/monitoring"
)

var (
	trackColor  = color.RGBA{R: 31, G: 104, B: 142, A: 255}
	targetColor = color.RGBA{R: 220, G: 80, B: 40, A: 255}
)

// Diagram builds a colour-magnitude diagram of the run: the main-sequence
// track as a line and each interpolated target as a point. Magnitudes grow
// downward.
func Diagram(run *Run) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Main-sequence track (run %s)", shortID(run.ID))
	p.X.Label.Text = "BP-RP (mag)"
	p.Y.Label.Text = "Absolute TESS magnitude"
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	p.Add(plotter.NewGrid())

	if run.Track != nil && run.Track.Len() > 0 {
		pts := make(plotter.XYs, run.Track.Len())
		for i := range pts {
			pts[i].X = run.Track.Colors[i]
			pts[i].Y = run.Track.Mags[i]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("failed to create track line: %w", err)
		}
		line.Color = trackColor
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add("isochrone", line)
	}

	if pts := targetPoints(run); len(pts) > 0 {
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("failed to create target scatter: %w", err)
		}
		sc.GlyphStyle.Color = targetColor
		sc.GlyphStyle.Radius = vg.Points(3)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
		p.Legend.Add("targets", sc)
	}
	p.Legend.Top = true

	return p, nil
}

// SaveDiagram renders Diagram to path. The image format follows the file
// extension (png, svg, pdf, ...).
func SaveDiagram(fsys fsutil.FileSystem, path string, run *Run) error {
	p, err := Diagram(run)
	if err != nil {
		return err
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format == "" {
		format = "png"
	}
	wt, err := p.WriterTo(8*vg.Inch, 6*vg.Inch, format)
	if err != nil {
		return fmt.Errorf("failed to render diagram: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	monitoring.Logf("wrote colour-magnitude diagram to %s (%d targets plotted)", path, len(targetPoints(run)))
	return nil
}

// targetPoints returns the (colour, absolute magnitude) of every target
// that reached the track.
func targetPoints(run *Run) plotter.XYs {
	pts := make(plotter.XYs, 0, len(run.Estimates))
	for _, e := range run.Estimates {
		if math.IsNaN(e.Color) || math.IsNaN(e.AbsMag) {
			continue
		}
		pts = append(pts, plotter.XY{X: e.Color, Y: e.AbsMag})
	}
	return pts
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
