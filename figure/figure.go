// Package figure holds the state of a live line plot: a fixed set of X
// positions and a Y series that is replaced wholesale each time new data
// arrives. Displays watch a Figure for changes and render snapshots of it.
package figure

import (
	"math"
	"sync"
	"time"

	errgo "gopkg.in/errgo.v1"

	"github.com/rogpeppe/liveplot/internal/notifier"
)

// Default Y axis bounds.
const (
	DefaultYMin = -1.05
	DefaultYMax = 1.05
)

// ErrLengthMismatch is the cause of the error returned by Figure.Update
// when the new Y data doesn't have one value for each X position.
var ErrLengthMismatch = errgo.New("data length does not match plot length")

// Params holds the parameters for New.
type Params struct {
	// Length holds the number of X positions.
	// The positions are 0 to Length-1.
	Length int
	// YMin and YMax hold the Y axis bounds.
	// If both are zero, DefaultYMin and DefaultYMax are used.
	YMin, YMax float64
	// Title holds an optional title for the plot.
	Title string
}

// Figure represents a live line plot. It is safe to call
// its methods concurrently.
type Figure struct {
	title      string
	x          []float64
	yMin, yMax float64
	notifier   notifier.Notifier

	mu        sync.RWMutex
	y         []float64
	watermark int64
	updated   time.Time
	version   int
}

// New returns a new Figure. Initially the Y values are the same as the
// X values and the watermark is -1, so that the first data seen with any
// non-negative watermark is accepted.
func New(p Params) (*Figure, error) {
	if p.Length <= 0 {
		return nil, errgo.Newf("plot length must be positive, not %d", p.Length)
	}
	if p.YMin == 0 && p.YMax == 0 {
		p.YMin, p.YMax = DefaultYMin, DefaultYMax
	}
	if !(p.YMin < p.YMax) || math.IsInf(p.YMin, 0) || math.IsInf(p.YMax, 0) {
		return nil, errgo.Newf("invalid Y bounds [%g, %g]", p.YMin, p.YMax)
	}
	x := make([]float64, p.Length)
	for i := range x {
		x[i] = float64(i)
	}
	return &Figure{
		title:     p.Title,
		x:         x,
		yMin:      p.YMin,
		yMax:      p.YMax,
		y:         append([]float64(nil), x...),
		watermark: -1,
	}, nil
}

// Length returns the number of X positions.
func (f *Figure) Length() int {
	return len(f.x)
}

// Watermark returns the watermark passed to the most recent
// successful call to Update, or -1 if there has been none.
func (f *Figure) Watermark() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.watermark
}

// Update replaces the Y values with y, records the watermark and the
// time of the update, and tells all watchers that the figure should be
// redrawn. If y is nil, the existing Y values are kept but the figure is
// still redrawn. The figure keeps its own copy of y.
//
// If y has the wrong length, the figure is left unchanged and an error
// with an ErrLengthMismatch cause is returned.
func (f *Figure) Update(watermark int64, y []float64, now time.Time) error {
	if y != nil && len(y) != len(f.x) {
		return errgo.WithCausef(nil, ErrLengthMismatch, "got %d values for plot of length %d", len(y), len(f.x))
	}
	if y != nil {
		// Copy before taking the lock so that readers are
		// held up only for the swap.
		y = append([]float64(nil), y...)
	}
	f.mu.Lock()
	if y != nil {
		f.y = y
	}
	f.watermark = watermark
	f.updated = now
	f.version++
	f.mu.Unlock()
	f.notifier.Changed()
	return nil
}

// Snapshot holds the state of a figure at a moment in time.
// The slices must not be modified.
type Snapshot struct {
	Title string
	// Version is incremented every time the figure is updated.
	Version   int
	Watermark int64
	// Updated holds the time of the most recent update, or the
	// zero time if there has been none.
	Updated    time.Time
	X          []float64
	Y          []float64
	YMin, YMax float64
}

// Snapshot returns the current state of the figure.
func (f *Figure) Snapshot() Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	// The Y slice is never mutated after it's stored, so
	// it can be shared without copying.
	return Snapshot{
		Title:     f.title,
		Version:   f.version,
		Watermark: f.watermark,
		Updated:   f.updated,
		X:         f.x,
		Y:         f.y,
		YMin:      f.yMin,
		YMax:      f.yMax,
	}
}

// Watch returns a watcher whose Next method returns each time
// the figure is updated. It should be closed after use.
func (f *Figure) Watch() *notifier.Watcher {
	return f.notifier.Watch()
}

// Close releases all watchers. The figure may still be
// read after it is closed.
func (f *Figure) Close() error {
	return f.notifier.Close()
}
