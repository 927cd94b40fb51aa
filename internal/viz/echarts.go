// Package viz renders alignment runs as interactive HTML charts
// (go-echarts) and static PNG plots (gonum/plot).
package viz

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/echopress-data/echopress/internal/align"
)

// RenderHTML writes an interactive chart of the pressure stream with the
// matched points overlaid. Warning matches get their own series so gate
// breaches stand out; rejected records carry no pressure and are omitted.
func RenderHTML(w io.Writer, title string, times, pressures, midpoints []float64, batch align.BatchResult) error {
	if len(midpoints) != len(batch.Results) {
		return fmt.Errorf("midpoints length %d does not match results length %d",
			len(midpoints), len(batch.Results))
	}

	stream := make([]opts.LineData, len(times))
	for i := range times {
		stream[i] = opts.LineData{Value: []interface{}{times[i], pressures[i]}}
	}

	var aligned, warned []opts.ScatterData
	for i, r := range batch.Results {
		if r.Rejected() {
			continue
		}
		point := opts.ScatterData{Value: []interface{}{midpoints[i], pressures[r.Index]}}
		if r.State == align.StateWarning {
			warned = append(warned, point)
		} else {
			aligned = append(aligned, point)
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("pressure samples=%d midpoints=%d", len(times), len(midpoints)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "Pressure", NameLocation: "middle", NameGap: 35}),
	)
	line.AddSeries("pressure", stream,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))

	scatter := charts.NewScatter()
	scatter.AddSeries("aligned", aligned,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	if len(warned) > 0 {
		scatter.AddSeries("warning", warned,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}))
	}
	line.Overlap(scatter)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// RenderHTMLFile writes the interactive chart to path.
func RenderHTMLFile(path, title string, times, pressures, midpoints []float64, batch align.BatchResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := RenderHTML(f, title, times, pressures, midpoints, batch); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
