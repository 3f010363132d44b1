package figure_test

import (
	"bytes"
	"image/png"
	"math"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp/cmpopts"
	errgo "gopkg.in/errgo.v1"

	"github.com/rogpeppe/liveplot/figure"
)

var epoch = time.Unix(946814400, 0) // 2000-01-02 12:00:00Z

func TestNew(t *testing.T) {
	c := qt.New(t)
	f, err := figure.New(figure.Params{
		Length: 4,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(f.Length(), qt.Equals, 4)
	c.Assert(f.Watermark(), qt.Equals, int64(-1))
	c.Assert(f.Snapshot(), qt.DeepEquals, figure.Snapshot{
		Watermark: -1,
		X:         []float64{0, 1, 2, 3},
		Y:         []float64{0, 1, 2, 3},
		YMin:      -1.05,
		YMax:      1.05,
	})
}

func TestNewErrors(t *testing.T) {
	c := qt.New(t)
	_, err := figure.New(figure.Params{})
	c.Assert(err, qt.ErrorMatches, `plot length must be positive, not 0`)
	_, err = figure.New(figure.Params{
		Length: 3,
		YMin:   1,
		YMax:   -1,
	})
	c.Assert(err, qt.ErrorMatches, `invalid Y bounds \[1, -1\]`)
	_, err = figure.New(figure.Params{
		Length: 3,
		YMin:   math.Inf(-1),
		YMax:   1,
	})
	c.Assert(err, qt.ErrorMatches, `invalid Y bounds \[-Inf, 1\]`)
}

func TestUpdate(t *testing.T) {
	c := qt.New(t)
	f, err := figure.New(figure.Params{
		Length: 5,
	})
	c.Assert(err, qt.IsNil)

	y := []float64{1, 2, 3, 4, 5}
	err = f.Update(5, y, epoch)
	c.Assert(err, qt.IsNil)
	// The figure must hold its own copy.
	y[0] = 100
	s := f.Snapshot()
	c.Assert(s.Y, qt.DeepEquals, []float64{1, 2, 3, 4, 5})
	c.Assert(s.Watermark, qt.Equals, int64(5))
	c.Assert(s.Version, qt.Equals, 1)
	c.Assert(s.Updated.Equal(epoch), qt.IsTrue)

	// A nil update keeps the data but still counts as a redraw.
	err = f.Update(6, nil, epoch.Add(time.Second))
	c.Assert(err, qt.IsNil)
	s = f.Snapshot()
	c.Assert(s.Y, qt.DeepEquals, []float64{1, 2, 3, 4, 5})
	c.Assert(s.Watermark, qt.Equals, int64(6))
	c.Assert(s.Version, qt.Equals, 2)
}

func TestUpdateLengthMismatch(t *testing.T) {
	c := qt.New(t)
	f, err := figure.New(figure.Params{
		Length: 3,
	})
	c.Assert(err, qt.IsNil)
	err = f.Update(1, []float64{1, 2}, epoch)
	c.Assert(err, qt.ErrorMatches, `got 2 values for plot of length 3`)
	c.Assert(errgo.Cause(err), qt.Equals, figure.ErrLengthMismatch)

	// The figure is untouched.
	s := f.Snapshot()
	c.Assert(s.Version, qt.Equals, 0)
	c.Assert(s.Watermark, qt.Equals, int64(-1))
	c.Assert(s.Y, qt.DeepEquals, []float64{0, 1, 2})
}

func TestWatch(t *testing.T) {
	c := qt.New(t)
	f, err := figure.New(figure.Params{
		Length: 2,
	})
	c.Assert(err, qt.IsNil)
	w := f.Watch()
	defer w.Close()

	versions := make(chan int)
	go func() {
		for w.Next() {
			versions <- f.Snapshot().Version
		}
		close(versions)
	}()
	c.Assert(f.Update(0, []float64{0.5, 0.5}, epoch), qt.IsNil)
	select {
	case v := <-versions:
		c.Assert(v, qt.Equals, 1)
	case <-time.After(5 * time.Second):
		c.Fatalf("timed out waiting for change")
	}
	c.Assert(f.Close(), qt.IsNil)
	select {
	case _, ok := <-versions:
		c.Assert(ok, qt.IsFalse)
	case <-time.After(5 * time.Second):
		c.Fatalf("watcher not released by Close")
	}
}

func TestRenderPNG(t *testing.T) {
	c := qt.New(t)
	f, err := figure.New(figure.Params{
		Length: 5,
		Title:  "test",
	})
	c.Assert(err, qt.IsNil)
	c.Assert(f.Update(1, []float64{-1, -0.5, 0, 0.5, 1}, epoch), qt.IsNil)

	var buf bytes.Buffer
	err = f.Snapshot().RenderPNG(&buf, 320, 200)
	c.Assert(err, qt.IsNil)
	img, err := png.Decode(&buf)
	c.Assert(err, qt.IsNil)
	c.Assert(img.Bounds().Dx(), qt.Equals, 320)
	c.Assert(img.Bounds().Dy(), qt.Equals, 200)
}

func TestRenderPNGSinglePoint(t *testing.T) {
	c := qt.New(t)
	f, err := figure.New(figure.Params{
		Length: 1,
	})
	c.Assert(err, qt.IsNil)
	var buf bytes.Buffer
	err = f.Snapshot().RenderPNG(&buf, 0, 0)
	c.Assert(err, qt.IsNil)
	img, err := png.Decode(&buf)
	c.Assert(err, qt.IsNil)
	c.Assert(img.Bounds().Dx(), qt.Equals, figure.DefaultWidth)
}

var renderPNGValuesTests = []struct {
	testName string
	y        []float64
}{{
	testName: "out-of-range",
	y:        []float64{0, 5, -5},
}, {
	testName: "huge",
	y:        []float64{1e300, 0, -1e300},
}, {
	testName: "max-float",
	y:        []float64{math.MaxFloat64, -math.MaxFloat64, 0},
}, {
	testName: "nan",
	y:        []float64{0, math.NaN(), 1},
}, {
	testName: "inf",
	y:        []float64{math.Inf(1), 0, math.Inf(-1)},
}, {
	testName: "isolated-point",
	y:        []float64{math.NaN(), 0.5, math.NaN()},
}, {
	testName: "all-nan",
	y:        []float64{math.NaN(), math.NaN(), math.NaN()},
}}

func TestRenderPNGValues(t *testing.T) {
	c := qt.New(t)
	for _, test := range renderPNGValuesTests {
		c.Run(test.testName, func(c *qt.C) {
			f, err := figure.New(figure.Params{
				Length: len(test.y),
			})
			c.Assert(err, qt.IsNil)
			c.Assert(f.Update(1, test.y, epoch), qt.IsNil)
			s := f.Snapshot()

			type result struct {
				data []byte
				err  error
			}
			done := make(chan result, 1)
			go func() {
				var buf bytes.Buffer
				err := s.RenderPNG(&buf, 200, 100)
				done <- result{buf.Bytes(), err}
			}()
			var r result
			select {
			case r = <-done:
			case <-time.After(10 * time.Second):
				c.Fatalf("render did not complete")
			}
			c.Assert(r.err, qt.IsNil)
			img, err := png.Decode(bytes.NewReader(r.data))
			c.Assert(err, qt.IsNil)
			c.Assert(img.Bounds().Dx(), qt.Equals, 200)
			// The snapshot itself is left untouched.
			c.Assert(s.Y, qt.CmpEquals(cmpopts.EquateNaNs()), test.y)
		})
	}
}

func TestDataTable(t *testing.T) {
	c := qt.New(t)
	f, err := figure.New(figure.Params{
		Length: 2,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(f.Update(3, []float64{0.25, -0.75}, epoch), qt.IsNil)
	dt, err := f.Snapshot().DataTable()
	c.Assert(err, qt.IsNil)
	c.Assert(dt.Cols, qt.HasLen, 2)
	c.Assert(dt.Rows, qt.HasLen, 2)
	c.Assert(dt.Rows[1].Cells[0].Value, qt.Equals, interface{}(1.0))
	c.Assert(dt.Rows[1].Cells[1].Value, qt.Equals, interface{}(-0.75))
}
