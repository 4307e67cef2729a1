package metrics

import (
	"passwordCrackerEngine/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EngineMetrics turns engine events into Prometheus series. It implements
// port.Observer so it can sit next to the log observer.
type EngineMetrics struct {
	// Attempts counts finished oracle calls.
	Attempts prometheus.Counter

	// GenerationErrors counts malformed candidates the sources reported.
	GenerationErrors prometheus.Counter

	// Matches counts matches by whether they won the run.
	Matches *prometheus.CounterVec

	// Outcomes counts finished runs by outcome kind.
	Outcomes *prometheus.CounterVec

	// Dispatched is the dispatch position of the current run.
	Dispatched prometheus.Gauge

	// ActiveWorkers is the number of started workers that have not returned.
	ActiveWorkers prometheus.Gauge

	// ReceiversLost counts workers dropped by the distributor.
	ReceiversLost prometheus.Counter
}

// NewEngineMetrics registers the engine series with reg. A nil reg means the
// default registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &EngineMetrics{
		Attempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cracker",
			Subsystem: "engine",
			Name:      "attempts_total",
			Help:      "Candidates evaluated against the target",
		}),
		GenerationErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cracker",
			Subsystem: "engine",
			Name:      "generation_errors_total",
			Help:      "Malformed candidates reported by the source",
		}),
		Matches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cracker",
			Subsystem: "engine",
			Name:      "matches_total",
			Help:      "Matches reported by workers, by whether they were accepted",
		}, []string{"accepted"}),
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cracker",
			Subsystem: "engine",
			Name:      "outcomes_total",
			Help:      "Finished runs by outcome",
		}, []string{"outcome"}),
		Dispatched: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "cracker",
			Subsystem: "engine",
			Name:      "dispatched",
			Help:      "Candidates dispatched by the current run",
		}),
		ActiveWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "cracker",
			Subsystem: "engine",
			Name:      "active_workers",
			Help:      "Workers currently running",
		}),
		ReceiversLost: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cracker",
			Subsystem: "engine",
			Name:      "receivers_lost_total",
			Help:      "Workers the distributor stopped sending to",
		}),
	}
}

func (m *EngineMetrics) Notify(e domain.Event) {
	switch e.Kind {
	case domain.EventAttempt:
		m.Attempts.Inc()
	case domain.EventGenerationError:
		m.GenerationErrors.Inc()
	case domain.EventMatch:
		m.Matches.WithLabelValues("true").Inc()
	case domain.EventLateMatch:
		m.Matches.WithLabelValues("false").Inc()
	case domain.EventWorkerStarted:
		m.ActiveWorkers.Inc()
	case domain.EventWorkerStopped:
		m.ActiveWorkers.Dec()
	case domain.EventReceiverGone:
		m.ReceiversLost.Inc()
	case domain.EventProgress:
		if e.Progress != nil {
			m.Dispatched.Set(float64(e.Progress.Dispatched))
		}
	case domain.EventRunFinished:
		if e.Outcome != nil {
			m.Outcomes.WithLabelValues(string(e.Outcome.Kind)).Inc()
			m.Dispatched.Set(float64(e.Outcome.Dispatched))
		}
	}
}
