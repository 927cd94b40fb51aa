package viz

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/echopress-data/echopress/internal/align"
)

// SavePNG writes a static plot of the pressure stream with matched
// points and their uncertainty bounds as vertical error bars.
func SavePNG(path, title string, times, pressures, midpoints []float64, batch align.BatchResult) error {
	if len(midpoints) != len(batch.Results) {
		return fmt.Errorf("midpoints length %d does not match results length %d",
			len(midpoints), len(batch.Results))
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Pressure"

	streamPts := make(plotter.XYs, len(times))
	for i := range times {
		streamPts[i] = plotter.XY{X: times[i], Y: pressures[i]}
	}
	streamLine, err := plotter.NewLine(streamPts)
	if err != nil {
		return fmt.Errorf("pressure line: %w", err)
	}
	streamLine.Color = color.RGBA{B: 180, A: 255}
	streamLine.Width = vg.Points(1)
	p.Add(streamLine)
	p.Legend.Add("pressure", streamLine)

	matched := make(plotter.XYs, 0, len(batch.Results))
	for i, r := range batch.Results {
		if r.Rejected() {
			continue
		}
		matched = append(matched, plotter.XY{X: midpoints[i], Y: pressures[r.Index]})
	}
	if len(matched) > 0 {
		points, err := plotter.NewScatter(matched)
		if err != nil {
			return fmt.Errorf("matched points: %w", err)
		}
		points.Color = color.RGBA{R: 200, A: 255}
		points.Radius = vg.Points(3)
		p.Add(points)
		p.Legend.Add("matched", points)
	}

	// Uncertainty bounds as short vertical segments through each match.
	for i, r := range batch.Results {
		if r.Rejected() || r.DeltaP == 0 {
			continue
		}
		y := pressures[r.Index]
		bar, err := plotter.NewLine(plotter.XYs{
			{X: midpoints[i], Y: y + r.BoundLo},
			{X: midpoints[i], Y: y + r.BoundHi},
		})
		if err != nil {
			return fmt.Errorf("bound bar %d: %w", i, err)
		}
		bar.Color = color.RGBA{R: 200, A: 128}
		bar.Width = vg.Points(1)
		p.Add(bar)
	}

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}
