package concurrency

import (
	"context"
	"errors"
	"fmt"
	"io"
	"passwordCrackerEngine/internal/core/domain"
	"passwordCrackerEngine/internal/pkg/events"
	"passwordCrackerEngine/internal/port"
	"sync"
)

// DefaultBufferSize lets the generator run ahead of the workers without
// unbounded memory growth.
const DefaultBufferSize = 200

// Generator is the part of a candidate source the distributor drives.
type Generator interface {
	Next() (domain.Candidate, error)
	Checkpoint() domain.Checkpoint
}

// DispatchCounter is told about every candidate that reached a worker.
type DispatchCounter interface {
	Dispatched()
}

type Job struct {
	Seq       uint64
	Candidate domain.Candidate
}

type StopReason int

const (
	// StopExhausted: the source has no more candidates (or failed for good).
	StopExhausted StopReason = iota
	// StopRequested: the dispatch context was cancelled.
	StopRequested
	// StopNoReceivers: every worker is gone.
	StopNoReceivers
)

func (r StopReason) String() string {
	switch r {
	case StopExhausted:
		return "exhausted"
	case StopRequested:
		return "requested"
	case StopNoReceivers:
		return "no_receivers"
	default:
		return "unknown"
	}
}

type receiver struct {
	id   int
	jobs chan Job
	gone <-chan struct{}
	dead bool
}

// Distributor moves candidates from a Generator to the workers. In queue
// mode all workers share one bounded channel and each candidate is claimed
// once; in broadcast mode every worker has its own bounded channel and sees
// every candidate. A full channel blocks dispatch.
type Distributor struct {
	source   Generator
	mode     domain.DistributionMode
	buffer   int
	ledger   *Ledger
	progress DispatchCounter
	observer port.Observer

	mu        sync.Mutex
	shared    chan Job
	receivers []*receiver
	allGone   <-chan struct{}
	started   bool
}

func NewDistributor(source Generator, mode domain.DistributionMode, buffer int, ledger *Ledger, progress DispatchCounter, observer port.Observer) *Distributor {
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}
	if !mode.Valid() {
		mode = domain.ModeQueue
	}
	d := &Distributor{
		source:   source,
		mode:     mode,
		buffer:   buffer,
		ledger:   ledger,
		progress: progress,
		observer: events.OrNop(observer),
	}
	if mode == domain.ModeQueue {
		d.shared = make(chan Job, buffer)
	}
	return d
}

// Attach registers a worker and returns the channel it should receive from.
// gone must be closed when the worker stops receiving.
func (d *Distributor) Attach(workerID int, gone <-chan struct{}) <-chan Job {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		panic("concurrency: Attach after Run")
	}
	r := &receiver{id: workerID, gone: gone, jobs: d.shared}
	if d.mode == domain.ModeBroadcast {
		r.jobs = make(chan Job, d.buffer)
	}
	d.receivers = append(d.receivers, r)
	return r.jobs
}

// Run dispatches until the source is exhausted, ctx is cancelled or every
// receiver is gone (allGone closed). All worker channels are closed on return.
func (d *Distributor) Run(ctx context.Context, allGone <-chan struct{}) StopReason {
	d.mu.Lock()
	d.started = true
	d.allGone = allGone
	d.mu.Unlock()
	defer func() {
		d.ledger.Cursor(d.source.Checkpoint())
		d.closeAll()
	}()

	if len(d.receivers) == 0 {
		d.halted(StopNoReceivers)
		return StopNoReceivers
	}

	for {
		select {
		case <-ctx.Done():
			return StopRequested
		default:
		}

		d.ledger.Cursor(d.source.Checkpoint())
		candidate, err := d.source.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return StopExhausted
			}
			var genErr *domain.GenerationError
			recoverable := errors.As(err, &genErr) && genErr.Recoverable
			d.notify(domain.Event{Kind: domain.EventGenerationError, Err: err, Position: d.source.Checkpoint().Position})
			if recoverable {
				continue
			}
			return StopExhausted
		}

		job := Job{Seq: d.ledger.Push(), Candidate: candidate}
		if reason, ok := d.dispatch(ctx, job); !ok {
			return reason
		}
		if d.progress != nil {
			d.progress.Dispatched()
		}
	}
}

func (d *Distributor) dispatch(ctx context.Context, job Job) (StopReason, bool) {
	if d.mode == domain.ModeQueue {
		select {
		case <-d.allGone:
			d.halted(StopNoReceivers)
			return StopNoReceivers, false
		default:
		}
		select {
		case d.shared <- job:
			return 0, true
		case <-d.allGone:
			d.halted(StopNoReceivers)
			return StopNoReceivers, false
		case <-ctx.Done():
			return StopRequested, false
		}
	}

	delivered := 0
	for _, r := range d.receivers {
		if r.dead {
			continue
		}
		select {
		case <-r.gone:
			r.dead = true
			d.notify(domain.Event{Kind: domain.EventReceiverGone, WorkerID: r.id, Position: job.Seq})
			continue
		default:
		}
		select {
		case r.jobs <- job:
			delivered++
		case <-r.gone:
			r.dead = true
			d.notify(domain.Event{Kind: domain.EventReceiverGone, WorkerID: r.id, Position: job.Seq})
		case <-ctx.Done():
			return StopRequested, false
		}
	}
	if delivered == 0 {
		d.halted(StopNoReceivers)
		return StopNoReceivers, false
	}
	return 0, true
}

func (d *Distributor) halted(reason StopReason) {
	d.notify(domain.Event{Kind: domain.EventDispatchHalted, Err: fmt.Errorf("%w: %s", domain.ErrChannelClosed, reason)})
}

func (d *Distributor) closeAll() {
	if d.mode == domain.ModeQueue {
		close(d.shared)
		return
	}
	for _, r := range d.receivers {
		close(r.jobs)
	}
}

func (d *Distributor) notify(e domain.Event) {
	events.Stamp(d.observer, e)
}
