package metrics

import (
	"passwordCrackerEngine/internal/core/domain"
	"sync/atomic"
	"time"
)

// ProgressTracker counts dispatched candidates. It is bumped once per
// candidate handed to the pool, never per worker attempt, so broadcast runs
// are not inflated.
type ProgressTracker struct {
	count    atomic.Uint64
	offset   uint64
	total    uint64
	hasTotal bool
	start    time.Time
	now      func() time.Time
}

// NewProgressTracker starts counting at offset (the resume position) against
// total, which is only meaningful when hasTotal is set.
func NewProgressTracker(offset, total uint64, hasTotal bool) *ProgressTracker {
	return &ProgressTracker{
		offset:   offset,
		total:    total,
		hasTotal: hasTotal,
		start:    time.Now(),
		now:      time.Now,
	}
}

func (p *ProgressTracker) Dispatched() {
	p.count.Add(1)
}

// Count is the number of candidates dispatched by this run.
func (p *ProgressTracker) Count() uint64 {
	return p.count.Load()
}

// Snapshot reports position, throughput and, when the total is known, the
// completed fraction and an ETA extrapolated from the current rate.
func (p *ProgressTracker) Snapshot() domain.Progress {
	count := p.count.Load()
	elapsed := p.now().Sub(p.start)

	snap := domain.Progress{
		Dispatched: p.offset + count,
		Elapsed:    elapsed,
	}
	if secs := elapsed.Seconds(); secs > 0 {
		snap.Rate = float64(count) / secs
	}
	if !p.hasTotal {
		return snap
	}

	snap.HasTotal = true
	snap.Total = p.total
	if p.total > 0 {
		snap.Fraction = float64(snap.Dispatched) / float64(p.total)
		if snap.Fraction > 1 {
			snap.Fraction = 1
		}
	}
	if snap.Rate > 0 && snap.Dispatched < p.total {
		remaining := float64(p.total - snap.Dispatched)
		snap.ETA = time.Duration(remaining / snap.Rate * float64(time.Second))
	}
	return snap
}
