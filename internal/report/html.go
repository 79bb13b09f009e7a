package report

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderHTML writes a standalone HTML page with a scatter chart of log10
// luminosity against BP-RP colour. Targets without a finite luminosity are
// left out.
func RenderHTML(w io.Writer, run *Run) error {
	data := make([]opts.ScatterData, 0, len(run.Estimates))
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, e := range run.Estimates {
		if math.IsNaN(e.Color) || math.IsNaN(e.LogLuminosity) || math.IsInf(e.LogLuminosity, 0) {
			continue
		}
		data = append(data, opts.ScatterData{
			Name:  fmt.Sprintf("TIC %d", e.TargetID),
			Value: []interface{}{e.Color, e.LogLuminosity},
		})
		minX = math.Min(minX, e.Color)
		maxX = math.Max(maxX, e.Color)
		minY = math.Min(minY, e.LogLuminosity)
		maxY = math.Max(maxY, e.LogLuminosity)
	}
	if len(data) == 0 {
		minX, maxX = 0, 4.5
		minY, maxY = 30, 35
	}
	padX := 0.1 * math.Max(maxX-minX, 0.5)
	padY := 0.1 * math.Max(maxY-minY, 0.5)

	s := Summarise(run.Estimates)
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "TESS Luminosities", Width: "900px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "TESS-band luminosity",
			Subtitle: fmt.Sprintf("run=%s targets=%d plotted=%d", shortID(run.ID), s.Targets, len(data)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: round2(minX - padX), Max: round2(maxX + padX), Name: "BP-RP (mag)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: round2(minY - padY), Max: round2(maxY + padY), Name: "log10 L (erg/s)", NameLocation: "middle", NameGap: 40}),
	)
	scatter.AddSeries("targets", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
