package service

import (
	"context"
	"fmt"
	"passwordCrackerEngine/internal/core/algorithm"
	"passwordCrackerEngine/internal/core/domain"
	"passwordCrackerEngine/internal/pkg/concurrency"
	"passwordCrackerEngine/internal/pkg/events"
	"passwordCrackerEngine/internal/pkg/metrics"
	"passwordCrackerEngine/internal/port"
	"sync"
	"time"
)

const (
	DefaultGracePeriod      = 5 * time.Second
	DefaultProgressInterval = time.Second
)

// DefaultSettings are the run settings used when nothing is configured.
func DefaultSettings() domain.RunSettings {
	return domain.RunSettings{
		Workers:          1,
		BufferSize:       concurrency.DefaultBufferSize,
		Mode:             domain.ModeQueue,
		GracePeriod:      DefaultGracePeriod,
		ProgressInterval: DefaultProgressInterval,
	}
}

// Engine runs one search at a time: a single generator feeding a pool of
// workers that share one opened target.
type Engine struct {
	settings domain.RunSettings
	observer port.Observer

	mu   sync.Mutex
	live *run
}

// run is the state of a single search.
type run struct {
	ctl     *Controller
	arbiter *Arbiter
	ledger  *concurrency.Ledger
	pool    *concurrency.WorkerPool
	tracker *metrics.ProgressTracker
	stop    context.CancelFunc
	stopped chan struct{}
}

func NewEngine(settings domain.RunSettings, observer port.Observer) *Engine {
	defaults := DefaultSettings()
	if settings.BufferSize <= 0 {
		settings.BufferSize = defaults.BufferSize
	}
	if !settings.Mode.Valid() {
		settings.Mode = defaults.Mode
	}
	if settings.GracePeriod <= 0 {
		settings.GracePeriod = defaults.GracePeriod
	}
	return &Engine{
		settings: settings,
		observer: events.OrNop(observer),
	}
}

func (e *Engine) Settings() domain.RunSettings {
	return e.settings
}

// Resume rebuilds the source described by cp and continues the search from
// its position.
func (e *Engine) Resume(ctx context.Context, workers int, target port.TargetOpener, cp domain.Checkpoint) (domain.Outcome, error) {
	src, err := algorithm.Open(cp.Spec, &cp)
	if err != nil {
		return domain.Outcome{}, err
	}
	defer src.Close()
	return e.Run(ctx, workers, target, src)
}

// Run searches src until a worker finds the password, the source runs dry
// or ctx is cancelled. Cancelling ctx is the interrupt signal: it yields a
// Cancelled outcome carrying the checkpoint to resume from, not an error.
// Errors are returned only for a target that cannot be opened or an oracle
// that fails; an interrupt during Open is still a cancellation.
func (e *Engine) Run(ctx context.Context, workers int, target port.TargetOpener, src algorithm.Source) (domain.Outcome, error) {
	if workers < 1 {
		return domain.Outcome{}, fmt.Errorf("%w: %d", domain.ErrInvalidWorkers, workers)
	}

	// An interrupt that lands before or during Open is a cancellation at the
	// source's starting point, not a target failure.
	if ctx.Err() != nil {
		return e.cancelledBeforeStart(src), nil
	}
	oracle, err := target.Open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return e.cancelledBeforeStart(src), nil
		}
		return domain.Outcome{}, fmt.Errorf("%w: %s: %w", domain.ErrTargetOpen, target.Describe(), err)
	}

	started := time.Now()
	start := src.Checkpoint()
	size, known := src.Size()

	r := &run{
		ctl:     NewController(),
		ledger:  concurrency.NewLedger(start),
		tracker: metrics.NewProgressTracker(start.Position, size, known),
		stopped: make(chan struct{}),
	}
	r.arbiter = NewArbiter(r.ctl, e.observer)
	r.pool = concurrency.NewWorkerPool(workers, oracle, r.arbiter, r.ledger, e.observer)
	dist := concurrency.NewDistributor(src, e.settings.Mode, e.settings.BufferSize, r.ledger, r.tracker, e.observer)

	e.notify(domain.Event{Kind: domain.EventRunStarted, Position: start.Position})

	// Workers and dispatch are stopped explicitly; ctx only signals intent.
	runCtx, cancelRun := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelRun()
	dispatchCtx, stop := context.WithCancel(runCtx)
	defer stop()
	r.stop = stop

	r.pool.Start(runCtx, dist)
	e.setLive(r)
	defer e.setLive(nil)
	go func() {
		defer close(r.stopped)
		dist.Run(dispatchCtx, r.pool.Done())
	}()

	outcome, err := e.await(ctx, r)
	if err != nil {
		e.notify(domain.Event{Kind: domain.EventRunFinished, Err: err})
		return domain.Outcome{}, err
	}

	outcome.Dispatched = r.tracker.Snapshot().Dispatched
	outcome.Duration = time.Since(started)
	e.notify(domain.Event{Kind: domain.EventRunFinished, Outcome: &outcome})
	return outcome, nil
}

// await races the terminal paths of a run: a match, the pool running out
// of work or failing, and the interrupt.
func (e *Engine) await(ctx context.Context, r *run) (domain.Outcome, error) {
	var tick <-chan time.Time
	if e.settings.ProgressInterval > 0 {
		ticker := time.NewTicker(e.settings.ProgressInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	interrupt := ctx.Done()
	for {
		select {
		case <-r.arbiter.Done():
			return e.finishFound(r), nil

		case <-r.pool.Done():
			r.stop()
			<-r.stopped
			if _, _, ok := r.arbiter.Winner(); ok {
				return e.finishFound(r), nil
			}
			if err := r.pool.Err(); err != nil {
				r.ctl.Terminate()
				return domain.Outcome{}, err
			}
			if !r.ctl.TryFinish() {
				// Only this loop cancels, so a failed finish means a match
				// was accepted after the check above.
				return e.finishFound(r), nil
			}
			return domain.Exhausted(), nil

		case <-interrupt:
			interrupt = nil
			if !r.ctl.TryCancel() {
				continue
			}
			e.notify(domain.Event{Kind: domain.EventCancelRequested, Position: r.tracker.Snapshot().Dispatched})
			return e.finishCancelled(r), nil

		case <-tick:
			snap := e.snapshot(r)
			e.notify(domain.Event{Kind: domain.EventProgress, Progress: &snap})
		}
	}
}

func (e *Engine) finishFound(r *run) domain.Outcome {
	r.pool.Halt()
	r.stop()
	<-r.stopped
	// Attempts still running on other workers are discarded; wait for them
	// only as long as the grace period allows.
	e.drain(r.pool)

	winner, _, _ := r.arbiter.Winner()
	return domain.Found(winner)
}

func (e *Engine) finishCancelled(r *run) domain.Outcome {
	r.stop()
	<-r.stopped
	r.pool.Halt()
	timedOut := !e.drain(r.pool)
	if timedOut {
		e.notify(domain.Event{
			Kind: domain.EventCancellationTimeout,
			Err:  fmt.Errorf("%w after %s", domain.ErrCancellationTimeout, e.settings.GracePeriod),
		})
	}

	cp := r.ledger.Watermark()
	cp.CreatedAt = time.Now()
	r.ctl.Terminate()

	outcome := domain.Cancelled(cp)
	outcome.DrainTimedOut = timedOut
	return outcome
}

func (e *Engine) cancelledBeforeStart(src algorithm.Source) domain.Outcome {
	cp := src.Checkpoint()
	cp.CreatedAt = time.Now()
	outcome := domain.Cancelled(cp)
	e.notify(domain.Event{Kind: domain.EventRunFinished, Outcome: &outcome})
	return outcome
}

// drain waits for every worker to return, bounded by the grace period. It
// reports whether the pool finished in time.
func (e *Engine) drain(pool *concurrency.WorkerPool) bool {
	timer := time.NewTimer(e.settings.GracePeriod)
	defer timer.Stop()
	select {
	case <-pool.Done():
		return true
	case <-timer.C:
		return false
	}
}

// Progress is a snapshot of the run in flight, if any.
func (e *Engine) Progress() (domain.Progress, bool) {
	e.mu.Lock()
	live := e.live
	e.mu.Unlock()
	if live == nil {
		return domain.Progress{}, false
	}
	return e.snapshot(live), true
}

func (e *Engine) snapshot(r *run) domain.Progress {
	snap := r.tracker.Snapshot()
	snap.Resources = r.pool.GetMetrics()
	return snap
}

func (e *Engine) setLive(r *run) {
	e.mu.Lock()
	e.live = r
	e.mu.Unlock()
}

func (e *Engine) notify(ev domain.Event) {
	events.Stamp(e.observer, ev)
}
