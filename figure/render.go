package figure

import (
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	errgo "gopkg.in/errgo.v1"

	"github.com/rogpeppe/liveplot/googlecharts"
)

// Default image size used by RenderPNG when the
// requested size is zero.
const (
	DefaultWidth  = 800
	DefaultHeight = 480
)

// RenderPNG draws the snapshot as a line plot in PNG format.
// If width or height is zero, the default is used.
func (s Snapshot) RenderPNG(w io.Writer, width, height int) error {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	// go-chart can't draw an axis with an empty range, which
	// would happen for a single X position.
	xMax := float64(len(s.X) - 1)
	if xMax < 1 {
		xMax = 1
	}
	graph := chart.Chart{
		Title:  s.Title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: xMax},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: s.YMin, Max: s.YMax},
		},
		Series: s.lineSeries(),
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return errgo.Notef(err, "cannot render plot")
	}
	return nil
}

// lineSeries returns the chart series for the snapshot's data. Non-finite
// values leave gaps in the line, and finite values are clamped to a margin
// around the Y bounds; go-chart never finishes drawing lines whose
// coordinates are not finite or are very large.
func (s Snapshot) lineSeries() []chart.Series {
	span := s.YMax - s.YMin
	lo, hi := s.YMin-span, s.YMax+span
	if math.IsInf(span, 0) {
		lo, hi = s.YMin, s.YMax
	}
	style := chart.Style{
		StrokeColor: chart.ColorBlue,
		StrokeWidth: 2,
	}
	name := fmt.Sprintf("watermark %d", s.Watermark)
	var series []chart.Series
	addSegment := func(start, end int) {
		if start >= end {
			return
		}
		y := make([]float64, end-start)
		for i, v := range s.Y[start:end] {
			y[i] = math.Max(lo, math.Min(hi, v))
		}
		segStyle := style
		if len(y) == 1 {
			// A lone point has no line to draw.
			segStyle.DotColor = chart.ColorBlue
			segStyle.DotWidth = 2
		}
		series = append(series, chart.ContinuousSeries{
			Name:    name,
			XValues: s.X[start:end],
			YValues: y,
			Style:   segStyle,
		})
	}
	start := 0
	for i, v := range s.Y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			addSegment(start, i)
			start = i + 1
		}
	}
	addSegment(start, len(s.Y))
	if len(series) == 0 {
		// Nothing to draw, but go-chart insists on a visible series.
		series = append(series, chart.ContinuousSeries{
			Name:    name,
			XValues: []float64{0},
			YValues: []float64{s.YMin},
			Style: chart.Style{
				StrokeColor: chart.ColorWhite.WithAlpha(0),
				StrokeWidth: 1,
			},
		})
	}
	return series
}

// DataTable returns the snapshot as a Google Charts data table
// with an "x" column and a "y" column.
func (s Snapshot) DataTable() (*googlecharts.DataTable, error) {
	dt, err := googlecharts.NewLineTable("x", s.X, googlecharts.Series{
		Id:     "y",
		Label:  "y",
		Values: s.Y,
	})
	if err != nil {
		return nil, errgo.Mask(err)
	}
	return dt, nil
}
