// Package notifier broadcasts "something changed" to any number of
// watchers. Watchers see a version number, so a watcher that falls behind
// skips straight to the latest change rather than seeing every one.
package notifier

import (
	"sync"
)

// Notifier represents a shared value that can be watched for changes.
// The zero value is ready to use. Methods may be called concurrently.
type Notifier struct {
	mu      sync.Mutex
	cond    sync.Cond
	version int
	closed  bool
}

// lock acquires n.mu, making sure the condition variable is
// bound to it first.
func (n *Notifier) lock() {
	n.mu.Lock()
	if n.cond.L == nil {
		n.cond.L = &n.mu
	}
}

// Changed records that the shared value has changed and wakes all
// watchers. It returns the new version.
func (n *Notifier) Changed() int {
	n.lock()
	n.version++
	v := n.version
	n.mu.Unlock()
	n.cond.Broadcast()
	return v
}

// Version returns the number of times Changed has been called.
func (n *Notifier) Version() int {
	n.lock()
	defer n.mu.Unlock()
	return n.version
}

// Close closes the notifier, unblocking all outstanding watchers.
// It always returns nil.
func (n *Notifier) Close() error {
	n.lock()
	n.closed = true
	n.mu.Unlock()
	n.cond.Broadcast()
	return nil
}

// Closed reports whether the notifier has been closed.
func (n *Notifier) Closed() bool {
	n.lock()
	defer n.mu.Unlock()
	return n.closed
}

// Watch returns a new Watcher. If Changed has never been called, the
// first call to Next blocks until it is (or until the notifier is closed);
// otherwise the first call to Next returns immediately.
func (n *Notifier) Watch() *Watcher {
	return &Watcher{n: n}
}

// Watcher represents a single watcher of a Notifier.
type Watcher struct {
	n       *Notifier
	version int
	closed  bool
}

// Next blocks until the notifier has changed since the last call to Next
// and reports whether it has. It returns false when the notifier or the
// watcher has been closed.
func (w *Watcher) Next() bool {
	n := w.n
	n.lock()
	defer n.mu.Unlock()
	for {
		// A pending change is delivered even if the watcher was
		// closed concurrently, mirroring the order of events.
		if w.version != n.version {
			w.version = n.version
			return true
		}
		if n.closed || w.closed {
			return false
		}
		n.cond.Wait()
	}
}

// Version returns the version seen by the most recent call to Next.
func (w *Watcher) Version() int {
	w.n.lock()
	defer w.n.mu.Unlock()
	return w.version
}

// Close closes the watcher without closing the notifier.
// It may be called concurrently with Next.
func (w *Watcher) Close() {
	w.n.lock()
	w.closed = true
	w.n.mu.Unlock()
	w.n.cond.Broadcast()
}
