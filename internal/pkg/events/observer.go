// Package events holds the observer plumbing shared by the engine components.
package events

import (
	"passwordCrackerEngine/internal/core/domain"
	"passwordCrackerEngine/internal/port"
	"sync"
	"time"
)

type nop struct{}

func (nop) Notify(domain.Event) {}

// Nop discards every event.
var Nop port.Observer = nop{}

// OrNop returns o, or Nop when o is nil.
func OrNop(o port.Observer) port.Observer {
	if o == nil {
		return Nop
	}
	return o
}

type multi []port.Observer

func (m multi) Notify(e domain.Event) {
	for _, o := range m {
		o.Notify(e)
	}
}

// Multi fans one event out to every non-nil observer, in order.
func Multi(observers ...port.Observer) port.Observer {
	var m multi
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	if len(m) == 0 {
		return Nop
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}

// Func adapts a plain function to port.Observer.
type Func func(domain.Event)

func (f Func) Notify(e domain.Event) { f(e) }

// Stamp fills in the event time if the emitter left it empty.
func Stamp(o port.Observer, e domain.Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	o.Notify(e)
}

// Recorder keeps every event it sees. Used by tests to assert what a run emitted.
type Recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(e domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) Count(kind domain.EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
