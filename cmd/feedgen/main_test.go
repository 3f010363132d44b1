package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/rogpeppe/liveplot/datafeed"
)

func TestWave(t *testing.T) {
	c := qt.New(t)
	c.Assert(wave(4, 0), qt.CmpEquals(cmpopts.EquateApprox(0, 1e-9)), []float64{0, 1, 0, -1})
	c.Assert(wave(4, math.Pi/2), qt.CmpEquals(cmpopts.EquateApprox(0, 1e-9)), []float64{1, 0, -1, 0})
}

func TestWriteFileInPlace(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(c.TempDir(), "feed")
	err := writeFile(path, datafeed.Frame{
		Watermark: 1,
		Lines:     [][]float64{{0.5, 0.25, 0.125}},
	})
	c.Assert(err, qt.IsNil)

	// A reader that has the file open sees the new contents.
	f, err := os.Open(path)
	c.Assert(err, qt.IsNil)
	defer f.Close()
	r := datafeed.NewReader(f)
	err = writeFile(path, datafeed.Frame{
		Watermark: 2,
		Lines:     [][]float64{{1}},
	})
	c.Assert(err, qt.IsNil)
	frame, err := r.ReadFrame()
	c.Assert(err, qt.IsNil)
	c.Assert(frame, qt.DeepEquals, datafeed.Frame{
		Watermark: 2,
		Lines:     [][]float64{{1}},
	})
}
