// Package charts renders the PNG figures embedded in PDF reports.
package charts

import (
	"bytes"
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/webanalyzer/webanalyzer/internal/analyzer"
)

var (
	colorInfo  = drawing.Color{R: 0x34, G: 0x98, B: 0xdb, A: 0xff}
	colorGood  = drawing.Color{R: 0x2e, G: 0xcc, B: 0x71, A: 0xff}
	colorWarn  = drawing.Color{R: 0xf3, G: 0x9c, B: 0x12, A: 0xff}
	colorBad   = drawing.Color{R: 0xe7, G: 0x4c, B: 0x3c, A: 0xff}
	colorTrack = drawing.Color{R: 0xec, G: 0xf0, B: 0xf1, A: 0xff}
)

// Renderer draws report charts entirely in memory. It holds no state and is
// safe for concurrent use.
type Renderer struct {
	Width  int
	Height int
}

// New returns a Renderer with the default figure size.
func New() *Renderer {
	return &Renderer{Width: 512, Height: 360}
}

// AltCoverage renders the image ALT breakdown as three bars: every image,
// the ones carrying ALT text, and the ones missing it.
func (r *Renderer) AltCoverage(seo analyzer.SeoResult) ([]byte, error) {
	withAlt := seo.TotalImages - seo.ImagesWithoutAlt
	if withAlt < 0 {
		withAlt = 0
	}

	maxY := float64(seo.TotalImages)
	if maxY < 1 {
		maxY = 1
	}

	graph := chart.BarChart{
		Title:    "Image ALT Tag Analysis",
		Width:    r.Width,
		Height:   r.Height,
		BarWidth: 60,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: maxY},
		},
		Bars: []chart.Value{
			{
				Value: float64(seo.TotalImages),
				Label: "Total Images",
				Style: chart.Style{FillColor: colorInfo, StrokeColor: colorInfo},
			},
			{
				Value: float64(withAlt),
				Label: "With ALT",
				Style: chart.Style{FillColor: colorGood, StrokeColor: colorGood},
			},
			{
				Value: float64(seo.ImagesWithoutAlt),
				Label: "Without ALT",
				Style: chart.Style{FillColor: colorBad, StrokeColor: colorBad},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("rendering alt coverage chart: %w", err)
	}
	return buf.Bytes(), nil
}

// MetaStatus renders a single-wedge pie stating whether the page carries a
// meta description.
func (r *Renderer) MetaStatus(seo analyzer.SeoResult) ([]byte, error) {
	label := "Meta Description Present"
	color := colorGood
	if seo.MetaDescription == "" || seo.MetaDescription == analyzer.MetaMissing {
		label = "Meta Description Missing"
		color = colorBad
	}

	graph := chart.PieChart{
		Title:  "Meta Description Status",
		Width:  r.Height,
		Height: r.Height,
		Values: []chart.Value{
			{
				Value: 1,
				Label: label,
				Style: chart.Style{FillColor: color},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("rendering meta status chart: %w", err)
	}
	return buf.Bytes(), nil
}

// PerformanceDonut renders the score as a donut, colored by tier: green at 80
// and above, amber at 60 and above, red below.
func (r *Renderer) PerformanceDonut(perf analyzer.PerformanceResult) ([]byte, error) {
	score := perf.Score
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	graph := chart.DonutChart{
		Title:  fmt.Sprintf("Performance Score: %d/100 - Response Time: %.2fms", score, perf.ResponseTimeMs),
		Width:  r.Height,
		Height: r.Height,
		Values: []chart.Value{
			{
				Value: float64(score),
				Label: fmt.Sprintf("%d", score),
				Style: chart.Style{FillColor: scoreColor(score)},
			},
			{
				Value: float64(100 - score),
				Label: " ",
				Style: chart.Style{FillColor: colorTrack},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("rendering performance donut: %w", err)
	}
	return buf.Bytes(), nil
}

func scoreColor(score int) drawing.Color {
	switch {
	case score >= 80:
		return colorGood
	case score >= 60:
		return colorWarn
	default:
		return colorBad
	}
}
