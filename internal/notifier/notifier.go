// Package notifier fans out reload events to live-reload subscribers.
package notifier

import (
	"sync"
	"sync/atomic"
)

// Event tells subscribers that rendered output changed.
type Event struct {
	Seq   uint64   // monotonically increasing per Notifier
	Paths []string // affected pages, empty when everything changed
}

// Touches reports whether the event affects path. An event without paths
// affects everything.
func (e Event) Touches(path string) bool {
	if len(e.Paths) == 0 {
		return true
	}
	for _, p := range e.Paths {
		if p == path {
			return true
		}
	}
	return false
}

// Notifier broadcasts events to all subscribed listeners. Each listener has a
// one-slot buffer holding the most recent undelivered event; slow listeners
// see the latest state rather than a backlog.
type Notifier struct {
	mu        sync.Mutex
	seq       atomic.Uint64
	listeners map[chan Event]struct{}
}

// New creates a Notifier.
func New() *Notifier {
	return &Notifier{listeners: make(map[chan Event]struct{})}
}

// Subscribe returns a channel that receives events. Callers must Unsubscribe.
func (n *Notifier) Subscribe() chan Event {
	ch := make(chan Event, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener and closes its channel. Unsubscribing twice
// is a no-op.
func (n *Notifier) Unsubscribe(ch chan Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.listeners[ch]; !ok {
		return
	}
	delete(n.listeners, ch)
	close(ch)
}

// Len returns the number of active listeners.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners)
}

// Broadcast sends an event for paths to every listener without blocking and
// returns it.
func (n *Notifier) Broadcast(paths ...string) Event {
	ev := Event{Seq: n.seq.Add(1), Paths: paths}

	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.listeners {
		select {
		case ch <- ev:
		default:
			// Replace the stale pending event.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
	return ev
}
