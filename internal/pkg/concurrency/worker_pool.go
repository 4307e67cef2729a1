package concurrency

import (
	"context"
	"fmt"
	"passwordCrackerEngine/internal/core/domain"
	"passwordCrackerEngine/internal/pkg/events"
	"passwordCrackerEngine/internal/port"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// ResultSink receives matches. Submit reports whether the match was accepted
// as the run's result; only the first one ever is.
type ResultSink interface {
	Submit(candidate domain.Candidate, workerID int) bool
}

type WorkerPool struct {
	workers    []*Worker
	numWorkers int
	oracle     port.Oracle
	sink       ResultSink
	ledger     *Ledger
	observer   port.Observer
	metrics    *PoolMetrics

	halt     chan struct{}
	haltOnce sync.Once
	done     chan struct{}
	err      error
	started  atomic.Int64
}

type Worker struct {
	id      int
	jobs    <-chan Job
	gone    chan struct{}
	metrics *WorkerMetrics
	pool    *WorkerPool
}

type PoolMetrics struct {
	ActiveWorkers  int
	CompletedTasks int64
	AverageLatency time.Duration
	mu             sync.RWMutex
}

type WorkerMetrics struct {
	attempts  atomic.Int64
	busy      atomic.Bool
	totalNano atomic.Int64
}

func NewWorkerPool(numWorkers int, oracle port.Oracle, sink ResultSink, ledger *Ledger, observer port.Observer) *WorkerPool {
	pool := &WorkerPool{
		workers:    make([]*Worker, numWorkers),
		numWorkers: numWorkers,
		oracle:     oracle,
		sink:       sink,
		ledger:     ledger,
		observer:   events.OrNop(observer),
		metrics:    &PoolMetrics{},
		halt:       make(chan struct{}),
		done:       make(chan struct{}),
	}

	for i := 0; i < numWorkers; i++ {
		pool.workers[i] = &Worker{
			id:      i,
			gone:    make(chan struct{}),
			metrics: &WorkerMetrics{},
			pool:    pool,
		}
	}

	return pool
}

// Start attaches every worker to d and launches them. The first oracle
// failure cancels the remaining workers and is reported by Err.
func (p *WorkerPool) Start(ctx context.Context, d *Distributor) {
	for _, w := range p.workers {
		w.jobs = d.Attach(w.id, w.gone)
	}

	p.started.Store(time.Now().UnixNano())
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range p.workers {
		g.Go(func() error {
			return w.start(gctx)
		})
	}

	go func() {
		p.err = g.Wait()
		close(p.done)
	}()
}

// Halt stops workers from taking new candidates. Attempts already running
// finish normally.
func (p *WorkerPool) Halt() {
	p.haltOnce.Do(func() {
		close(p.halt)
	})
}

// Done is closed once every worker has returned.
func (p *WorkerPool) Done() <-chan struct{} {
	return p.done
}

// Err is the first oracle failure, if any. Only meaningful after Done.
func (p *WorkerPool) Err() error {
	return p.err
}

func (p *WorkerPool) Size() int {
	return p.numWorkers
}

func (w *Worker) start(ctx context.Context) error {
	defer close(w.gone)
	p := w.pool
	events.Stamp(p.observer, domain.Event{Kind: domain.EventWorkerStarted, WorkerID: w.id})
	defer events.Stamp(p.observer, domain.Event{Kind: domain.EventWorkerStopped, WorkerID: w.id})

	for {
		select {
		case <-p.halt:
			return nil
		case <-ctx.Done():
			return nil
		case job, ok := <-w.jobs:
			if !ok {
				return nil
			}
			// Prefer stopping over a candidate that was already queued.
			select {
			case <-p.halt:
				return nil
			default:
			}

			w.metrics.busy.Store(true)
			startTime := time.Now()
			matched, err := p.oracle.Attempt(job.Candidate)
			w.updateMetrics(time.Since(startTime))
			w.metrics.busy.Store(false)

			if err != nil {
				events.Stamp(p.observer, domain.Event{Kind: domain.EventOracleFailure, WorkerID: w.id, Err: err})
				return fmt.Errorf("worker %d: %w: %w", w.id, domain.ErrOracle, err)
			}
			events.Stamp(p.observer, domain.Event{Kind: domain.EventAttempt, WorkerID: w.id})

			if matched {
				// A rejected (late) match stays unacknowledged so a resumed
				// run evaluates it again.
				if p.sink.Submit(job.Candidate, w.id) {
					p.ledger.Ack(job.Seq)
				}
				return nil
			}
			p.ledger.Ack(job.Seq)
		}
	}
}

func (w *Worker) updateMetrics(duration time.Duration) {
	w.metrics.attempts.Add(1)
	w.metrics.totalNano.Add(int64(duration))
}

// GetMetrics aggregates per-worker counters into a snapshot.
func (p *WorkerPool) GetMetrics() domain.ResourceMetrics {
	p.updatePoolMetrics()

	p.metrics.mu.RLock()
	defer p.metrics.mu.RUnlock()

	return domain.ResourceMetrics{
		ActiveThreads:  p.metrics.ActiveWorkers,
		AttemptsPerSec: p.calculateAttemptsPerSecond(),
		TotalAttempts:  p.metrics.CompletedTasks,
		AverageLatency: p.metrics.AverageLatency,
		LastUpdated:    time.Now(),
	}
}

func (p *WorkerPool) updatePoolMetrics() {
	activeWorkers := 0
	var totalCompleted, totalNano int64

	for _, worker := range p.workers {
		totalCompleted += worker.metrics.attempts.Load()
		totalNano += worker.metrics.totalNano.Load()
		if worker.metrics.busy.Load() {
			activeWorkers++
		}
	}

	p.metrics.mu.Lock()
	p.metrics.ActiveWorkers = activeWorkers
	p.metrics.CompletedTasks = totalCompleted
	if totalCompleted > 0 {
		p.metrics.AverageLatency = time.Duration(totalNano / totalCompleted)
	}
	p.metrics.mu.Unlock()
}

// calculateAttemptsPerSecond uses wall time since Start; callers hold metrics.mu.
func (p *WorkerPool) calculateAttemptsPerSecond() int64 {
	started := p.started.Load()
	if started == 0 {
		return 0
	}
	elapsed := time.Since(time.Unix(0, started)).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return int64(float64(p.metrics.CompletedTasks) / elapsed)
}
