package service

import (
	"passwordCrackerEngine/internal/core/domain"
	"passwordCrackerEngine/internal/pkg/events"
	"passwordCrackerEngine/internal/port"
	"sync"
)

// Arbiter keeps the first match of a run. Later matches, and matches that
// arrive after cancellation began, are reported and dropped.
type Arbiter struct {
	ctl      *Controller
	observer port.Observer

	mu       sync.Mutex
	winner   domain.Candidate
	workerID int
	found    bool
	done     chan struct{}
}

func NewArbiter(ctl *Controller, observer port.Observer) *Arbiter {
	return &Arbiter{
		ctl:      ctl,
		observer: events.OrNop(observer),
		workerID: -1,
		done:     make(chan struct{}),
	}
}

func (a *Arbiter) Submit(candidate domain.Candidate, workerID int) bool {
	if !a.ctl.TryFinish() {
		events.Stamp(a.observer, domain.Event{Kind: domain.EventLateMatch, WorkerID: workerID, Candidate: candidate})
		return false
	}

	a.mu.Lock()
	a.winner = candidate
	a.workerID = workerID
	a.found = true
	close(a.done)
	a.mu.Unlock()

	events.Stamp(a.observer, domain.Event{Kind: domain.EventMatch, WorkerID: workerID, Candidate: candidate})
	return true
}

// Done is closed when a match has been accepted.
func (a *Arbiter) Done() <-chan struct{} {
	return a.done
}

func (a *Arbiter) Winner() (domain.Candidate, int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.winner, a.workerID, a.found
}
