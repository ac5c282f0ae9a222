// Package window models a page execution context: a fixed origin plus a message bus that
// delivers posted messages to listeners in order.
package window

import (
	"sync"

	"github.com/AlexZinkM/wallet-agent/internal/model"
)

// ListenerID identifies a registered listener for removal.
type ListenerID uint64

// Event is one delivered message. Source is the window that posted it.
type Event struct {
	Source *Window
	Origin string
	Data   model.PageMessage
}

type listener struct {
	id ListenerID
	fn func(Event)
}

// Window delivers messages on a single goroutine so listeners observe them in post order.
// Listeners must not block; long work belongs on its own goroutine.
type Window struct {
	origin string

	mu        sync.Mutex
	cond      *sync.Cond
	queue     []Event
	listeners []listener
	nextID    ListenerID
	closed    bool
	done      chan struct{}
}

// New creates a window for origin and starts its dispatcher.
func New(origin string) *Window {
	w := &Window{
		origin: origin,
		done:   make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	go w.dispatch()
	return w
}

// Origin is the scheme and host the window was created for. It never changes.
func (w *Window) Origin() string {
	return w.origin
}

// AddListener registers fn for every message posted after this call.
func (w *Window) AddListener(fn func(Event)) ListenerID {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.nextID++
	w.listeners = append(w.listeners, listener{id: w.nextID, fn: fn})
	return w.nextID
}

// RemoveListener drops a listener. Unknown ids are ignored.
func (w *Window) RemoveListener(id ListenerID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, l := range w.listeners {
		if l.id == id {
			w.listeners = append(w.listeners[:i:i], w.listeners[i+1:]...)
			return
		}
	}
}

// PostMessage queues msg for delivery to w's listeners on behalf of source.
// It never blocks. Messages posted to a closed window are dropped.
func (w *Window) PostMessage(source *Window, msg model.PageMessage) {
	ev := Event{Source: source, Data: msg}
	if source != nil {
		ev.Origin = source.origin
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.queue = append(w.queue, ev)
	w.cond.Signal()
}

// Post is PostMessage from the window to itself, the way a page and its relay talk.
func (w *Window) Post(msg model.PageMessage) {
	w.PostMessage(w, msg)
}

// Close stops delivery. Queued messages that were not yet dispatched are discarded.
func (w *Window) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.queue = nil
	w.cond.Broadcast()
	w.mu.Unlock()

	<-w.done
}

func (w *Window) dispatch() {
	defer close(w.done)

	for {
		w.mu.Lock()
		for len(w.queue) == 0 && !w.closed {
			w.cond.Wait()
		}
		if w.closed {
			w.mu.Unlock()
			return
		}
		ev := w.queue[0]
		w.queue[0] = Event{}
		w.queue = w.queue[1:]
		targets := make([]func(Event), len(w.listeners))
		for i, l := range w.listeners {
			targets[i] = l.fn
		}
		w.mu.Unlock()

		for _, fn := range targets {
			fn(ev)
		}
	}
}
