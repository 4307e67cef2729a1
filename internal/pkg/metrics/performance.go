package metrics

import (
	"runtime"
	"time"
)

// RunCost is what one search cost the process, measured around the engine
// call.
type RunCost struct {
	Started    time.Time     `json:"started"`
	Wall       time.Duration `json:"wall"`
	AllocBytes uint64        `json:"allocBytes"`
	Mallocs    uint64        `json:"mallocs"`
	GCCycles   uint32        `json:"gcCycles"`
	GCPause    time.Duration `json:"gcPause"`
}

// MeasureRun runs fn and records its wall time and the allocation and GC
// activity that happened meanwhile. Other goroutines' allocations count too.
func MeasureRun(fn func()) RunCost {
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	cost := RunCost{Started: time.Now()}

	fn()

	cost.Wall = time.Since(cost.Started)
	runtime.ReadMemStats(&after)
	cost.AllocBytes = after.TotalAlloc - before.TotalAlloc
	cost.Mallocs = after.Mallocs - before.Mallocs
	cost.GCCycles = after.NumGC - before.NumGC
	cost.GCPause = time.Duration(after.PauseTotalNs - before.PauseTotalNs)
	return cost
}

// PerCandidate spreads the wall time and allocations over n candidates.
func (c RunCost) PerCandidate(n uint64) (time.Duration, uint64) {
	if n == 0 {
		return 0, 0
	}
	return c.Wall / time.Duration(n), c.AllocBytes / n
}
