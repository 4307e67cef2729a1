package metrics

import (
	"passwordCrackerEngine/internal/core/domain"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
)

// Collector samples host CPU and memory for every live session.
type Collector struct {
	mu             sync.RWMutex
	metrics        map[string]*domain.ResourceMetrics
	stops          map[string]chan struct{}
	updateInterval time.Duration
}

func NewCollector(interval time.Duration) *Collector {
	if interval <= 0 {
		interval = time.Second
	}
	return &Collector{
		metrics:        make(map[string]*domain.ResourceMetrics),
		stops:          make(map[string]chan struct{}),
		updateInterval: interval,
	}
}

func (c *Collector) StartCollection(sessionID string) {
	c.mu.Lock()
	if _, exists := c.metrics[sessionID]; exists {
		c.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	c.metrics[sessionID] = &domain.ResourceMetrics{
		LastUpdated: time.Now(),
	}
	c.stops[sessionID] = stop
	c.mu.Unlock()

	go c.collect(sessionID, stop)
}

func (c *Collector) StopCollection(sessionID string) {
	c.mu.Lock()
	if stop, ok := c.stops[sessionID]; ok {
		close(stop)
	}
	delete(c.metrics, sessionID)
	delete(c.stops, sessionID)
	c.mu.Unlock()
}

// GetMetrics returns a copy of the latest sample, or nil for unknown sessions.
func (c *Collector) GetMetrics(sessionID string) *domain.ResourceMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if metrics, exists := c.metrics[sessionID]; exists {
		snapshot := *metrics
		return &snapshot
	}
	return nil
}

func (c *Collector) collect(sessionID string, stop <-chan struct{}) {
	ticker := time.NewTicker(c.updateInterval)
	defer ticker.Stop()

	for {
		c.sample(sessionID)

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

func (c *Collector) sample(sessionID string) {
	// cpu.Percent with a zero interval compares against the previous call.
	cpuUsage, _ := cpu.Percent(0, false)
	vm, _ := mem.VirtualMemory()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.mu.Lock()
	defer c.mu.Unlock()
	metrics, exists := c.metrics[sessionID]
	if !exists {
		return
	}
	if len(cpuUsage) > 0 {
		metrics.CPUUsage = cpuUsage[0]
	}
	if vm != nil {
		metrics.SystemMemUsed = vm.UsedPercent
	}
	metrics.MemoryUsageMB = int64(m.Alloc / 1024 / 1024)
	metrics.LastUpdated = time.Now()
}

// UpdateAttempts folds worker pool counters into the session's sample.
func (c *Collector) UpdateAttempts(sessionID string, pool domain.ResourceMetrics) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if metrics, exists := c.metrics[sessionID]; exists {
		metrics.TotalAttempts = pool.TotalAttempts
		metrics.ActiveThreads = pool.ActiveThreads
		metrics.AttemptsPerSec = pool.AttemptsPerSec
		metrics.AverageLatency = pool.AverageLatency
	}
}
