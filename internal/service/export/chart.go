package export

import (
	"bytes"
	"fmt"
	"image/color"

	"camdetect/internal/model"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const chartTitle = "Object Detection Analysis"

// ChartExporter renders a class tally as a one-page PDF bar chart.
type ChartExporter struct {
	Width  vg.Length
	Height vg.Length
}

func NewChartExporter() *ChartExporter {
	return &ChartExporter{Width: 6.4 * vg.Inch, Height: 4.8 * vg.Inch}
}

// ExportChart writes the chart to path, one bar per class in first-sighting
// order. An empty path is a cancelled export and does nothing.
func (e *ChartExporter) ExportChart(path string, record model.SessionRecord, tally model.ClassTally) error {
	if path == "" {
		return nil
	}

	p, err := buildChart(chartClasses(record, tally), tally)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	writer, err := p.WriterTo(e.Width, e.Height, "pdf")
	if err != nil {
		return fmt.Errorf("%w: render chart: %w", ErrIO, err)
	}

	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return fmt.Errorf("%w: render chart: %w", ErrIO, err)
	}
	return writeFile(path, buf.Bytes())
}

// chartClasses orders the tallied classes as they were first seen in record.
// Classes missing from record follow in sorted order.
func chartClasses(record model.SessionRecord, tally model.ClassTally) []string {
	classes := make([]string, 0, len(tally))
	seen := make(map[string]bool, len(tally))
	for _, det := range record {
		if _, ok := tally[det.ClassName]; ok && !seen[det.ClassName] {
			seen[det.ClassName] = true
			classes = append(classes, det.ClassName)
		}
	}
	for _, name := range tally.Classes() {
		if !seen[name] {
			classes = append(classes, name)
		}
	}
	return classes
}

// buildChart lays out one bar per class, in the given order.
func buildChart(classes []string, tally model.ClassTally) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = chartTitle
	p.X.Label.Text = "Class"
	p.Y.Label.Text = "Count"

	if len(classes) == 0 {
		p.X.Min, p.X.Max = 0, 1
		p.Y.Min, p.Y.Max = 0, 1
		return p, nil
	}

	values := make(plotter.Values, len(classes))
	for i, name := range classes {
		values[i] = float64(tally[name])
	}

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return nil, fmt.Errorf("bar chart: %w", err)
	}
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}

	p.Add(bars)
	p.NominalX(classes...)
	p.Y.Min = 0
	return p, nil
}
