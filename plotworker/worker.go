// Package plotworker provides a worker that polls a data file written by
// another process and updates a live plot from it.
//
// The worker keeps the file open and repeatedly reads it from the start.
// The first line holds a watermark; data is only taken from the file when
// the watermark has not gone backwards since the last read.
package plotworker

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/juju/loggo"
	errgo "gopkg.in/errgo.v1"
	"gopkg.in/retry.v1"

	"github.com/rogpeppe/liveplot/datafeed"
	"github.com/rogpeppe/liveplot/figure"
	"github.com/rogpeppe/liveplot/framestore"
)

var logger = loggo.GetLogger("liveplot.plotworker")

const (
	DefaultPollInterval = time.Second
	DefaultSettleDelay  = 10 * time.Millisecond
)

// Recorder is used to record accepted frames.
// It is implemented by *framestore.Store.
type Recorder interface {
	Add(frames ...framestore.Frame) error
}

type Params struct {
	// Path holds the name of the data file.
	Path string
	// Figure holds the figure to update.
	Figure *figure.Figure
	// PollInterval holds how long to wait before reading the file
	// again when it has no watermark.
	// If it's zero, DefaultPollInterval will be used.
	PollInterval time.Duration
	// SettleDelay holds how long to wait after a new watermark
	// is seen before reading the data, giving the writer time to finish.
	// If it's zero, DefaultSettleDelay will be used.
	SettleDelay time.Duration
	// StrictWatermark causes a watermark equal to the previously
	// accepted one to be ignored. By default it's treated as new data.
	StrictWatermark bool
	// Accumulate causes all data lines to be joined to make the Y
	// values. By default only the last line is used.
	Accumulate bool
	// Watch causes the worker to wait for file change notifications
	// between reads rather than reading continuously.
	// PollInterval is still used as an upper bound on the wait.
	Watch bool
	// Recorder, if non-nil, is used to record each accepted frame.
	Recorder Recorder
	// Now is used to query the current time. If it's nil, time.Now will be used.
	Now func() time.Time
}

// Worker updates a figure from a data file.
type Worker struct {
	p     Params
	ctx   context.Context
	close func()
	done  chan struct{}
	err   error

	// events and errors hold file change
	// notifications in Watch mode.
	events <-chan fsnotify.Event
	errors <-chan error
}

// New returns a new Worker that reads data from p.Path
// and plots it on p.Figure.
func New(p Params) (*Worker, error) {
	if p.Path == "" {
		return nil, errgo.New("no data file set")
	}
	if p.Figure == nil {
		return nil, errgo.New("no figure set")
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.PollInterval == 0 {
		p.PollInterval = DefaultPollInterval
	}
	if p.SettleDelay == 0 {
		p.SettleDelay = DefaultSettleDelay
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		p:     p,
		ctx:   ctx,
		close: cancel,
		done:  make(chan struct{}),
	}
	go func() {
		defer close(w.done)
		w.err = w.run()
		if w.err != nil {
			logger.Errorf("plot worker for %q failed: %v", w.p.Path, w.err)
		}
	}()
	return w, nil
}

// Done returns a channel that's closed when the worker has stopped,
// either because it was closed or because it encountered an error.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Wait waits for the worker to stop and returns the
// error that caused it to stop, if any.
func (w *Worker) Wait() error {
	<-w.done
	return w.err
}

// Close stops the worker and returns any error
// it encountered before it was stopped.
func (w *Worker) Close() error {
	w.close()
	return w.Wait()
}

func (w *Worker) run() error {
	f, err := w.open()
	if err != nil {
		return errgo.Mask(err)
	}
	if f == nil {
		// Closed while waiting for the file.
		return nil
	}
	defer f.Close()
	if w.p.Watch {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return errgo.Notef(err, "cannot create file watcher")
		}
		defer watcher.Close()
		if err := watcher.Add(w.p.Path); err != nil {
			return errgo.Notef(err, "cannot watch %q", w.p.Path)
		}
		w.events, w.errors = watcher.Events, watcher.Errors
	}
	r := datafeed.NewReader(f)
	for {
		if w.ctx.Err() != nil {
			return nil
		}
		result, err := w.refresh(r)
		if err != nil {
			return errgo.NoteMask(err, fmt.Sprintf("cannot plot data from %q", w.p.Path), errgo.Is(figure.ErrLengthMismatch))
		}
		switch result {
		case stale:
			continue
		case redrawn:
			if !w.p.Watch {
				continue
			}
			// Nothing more to do until the file changes.
		}
		if !w.wait(w.p.PollInterval) {
			return nil
		}
	}
}

type refreshResult int

const (
	// idle means there was no new data.
	idle refreshResult = iota
	// stale means the watermark went backwards.
	stale
	// redrawn means the figure was updated.
	redrawn
)

// refresh reads the file once and updates the figure if the data is new.
func (w *Worker) refresh(r *datafeed.Reader) (refreshResult, error) {
	wm, err := r.ReadWatermark()
	if errgo.Cause(err) == datafeed.ErrNoWatermark {
		logger.Debugf("no watermark yet")
		return idle, nil
	}
	if err != nil {
		return idle, errgo.Mask(err)
	}
	prev := w.p.Figure.Watermark()
	switch {
	case wm < prev:
		// The writer is probably part way through
		// rewriting the file.
		logger.Debugf("stale watermark %d (previous %d)", wm, prev)
		return stale, nil
	case wm == prev && w.p.StrictWatermark:
		return idle, nil
	}
	if !w.sleep(w.p.SettleDelay) {
		return idle, nil
	}
	lines, err := r.ReadData()
	if err != nil {
		return idle, errgo.Mask(err)
	}
	frame := datafeed.Frame{
		Watermark: wm,
		Lines:     lines,
	}
	var y []float64
	if w.p.Accumulate {
		y = frame.Concat()
	} else {
		y = frame.Last()
	}
	now := w.p.Now()
	if err := w.p.Figure.Update(wm, y, now); err != nil {
		return idle, errgo.Mask(err, errgo.Is(figure.ErrLengthMismatch))
	}
	if wm != prev {
		logger.Debugf("plotted watermark %d", wm)
	}
	if y != nil && w.p.Recorder != nil && wm != prev {
		if err := w.p.Recorder.Add(framestore.Frame{
			Watermark: wm,
			Time:      now,
			Y:         y,
		}); err != nil {
			logger.Warningf("cannot record frame %d: %v", wm, err)
		}
	}
	return redrawn, nil
}

var openRetryStrategy = retry.Exponential{
	Initial:  100 * time.Millisecond,
	Factor:   1.5,
	MaxDelay: 5 * time.Second,
}

// open opens the data file, waiting for it to be created if necessary.
// It returns a nil file if the worker is closed while waiting.
func (w *Worker) open() (*os.File, error) {
	logged := false
	for a := retry.StartWithCancel(openRetryStrategy, nil, w.ctx.Done()); a.Next(); {
		f, err := os.Open(w.p.Path)
		if err == nil {
			return f, nil
		}
		if !os.IsNotExist(err) {
			return nil, errgo.Mask(err)
		}
		if !logged {
			logger.Infof("waiting for %q to be created", w.p.Path)
			logged = true
		}
	}
	return nil, nil
}

// wait waits for up to the given duration, returning early if the
// file changes. It reports false if the worker has been closed.
func (w *Worker) wait(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-w.events:
	case err := <-w.errors:
		logger.Warningf("file watcher error: %v", err)
	case <-w.ctx.Done():
		return false
	}
	return true
}

// sleep waits for the given duration regardless of file changes.
// It reports false if the worker has been closed.
func (w *Worker) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-w.ctx.Done():
		return false
	}
}
