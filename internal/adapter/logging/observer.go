// Package logging turns engine events into structured log records.
package logging

import (
	"context"
	"io"
	"log/slog"
	"passwordCrackerEngine/internal/core/domain"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Observer logs engine events with slog. Progress is sampled and bursts of
// generation errors are rate limited so a bad wordlist cannot flood the log.
type Observer struct {
	logger     *slog.Logger
	progress   rate.Sometimes
	genErrors  *rate.Limiter
	suppressed atomic.Int64
}

type Options struct {
	// ProgressEvery is the minimum gap between two logged progress lines.
	ProgressEvery time.Duration
	// GenerationErrorBurst is how many generation errors are logged before
	// throttling to one per second.
	GenerationErrorBurst int
}

func NewObserver(logger *slog.Logger, opts Options) *Observer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = 5 * time.Second
	}
	if opts.GenerationErrorBurst <= 0 {
		opts.GenerationErrorBurst = 10
	}
	return &Observer{
		logger:    logger,
		progress:  rate.Sometimes{First: 1, Interval: opts.ProgressEvery},
		genErrors: rate.NewLimiter(rate.Every(time.Second), opts.GenerationErrorBurst),
	}
}

func (o *Observer) Notify(e domain.Event) {
	ctx := context.Background()
	switch e.Kind {
	case domain.EventRunStarted:
		o.logger.InfoContext(ctx, "search started", "position", e.Position)
	case domain.EventWorkerStarted, domain.EventWorkerStopped:
		o.logger.DebugContext(ctx, string(e.Kind), "worker", e.WorkerID)
	case domain.EventAttempt:
		// Too frequent to log.
	case domain.EventGenerationError:
		if !o.genErrors.Allow() {
			o.suppressed.Add(1)
			return
		}
		attrs := []any{"position", e.Position, "error", e.Err}
		if n := o.suppressed.Swap(0); n > 0 {
			attrs = append(attrs, "suppressed", n)
		}
		o.logger.WarnContext(ctx, "skipping malformed candidate", attrs...)
	case domain.EventReceiverGone:
		o.logger.WarnContext(ctx, "worker stopped receiving", "worker", e.WorkerID, "seq", e.Position)
	case domain.EventDispatchHalted:
		o.logger.InfoContext(ctx, "dispatch halted", "reason", e.Err)
	case domain.EventMatch:
		o.logger.InfoContext(ctx, "password found", "worker", e.WorkerID)
	case domain.EventLateMatch:
		o.logger.WarnContext(ctx, "match arrived after the run ended", "worker", e.WorkerID)
	case domain.EventProgress:
		if e.Progress == nil {
			return
		}
		p := *e.Progress
		o.progress.Do(func() {
			attrs := []any{"dispatched", p.Dispatched, "rate", int64(p.Rate), "elapsed", p.Elapsed.Round(time.Second)}
			if p.HasTotal {
				attrs = append(attrs, "total", p.Total, "percent", int(p.Fraction*100), "eta", p.ETA.Round(time.Second))
			}
			o.logger.InfoContext(ctx, "progress", attrs...)
		})
	case domain.EventCancelRequested:
		o.logger.InfoContext(ctx, "cancelling, waiting for in-flight attempts", "dispatched", e.Position)
	case domain.EventCancellationTimeout:
		o.logger.WarnContext(ctx, "grace period elapsed, some attempts were discarded", "error", e.Err)
	case domain.EventOracleFailure:
		o.logger.ErrorContext(ctx, "target check failed", "worker", e.WorkerID, "error", e.Err)
	case domain.EventRunFinished:
		if e.Outcome == nil {
			o.logger.ErrorContext(ctx, "search aborted", "error", e.Err)
			return
		}
		attrs := []any{"outcome", e.Outcome.Kind, "dispatched", e.Outcome.Dispatched, "duration", e.Outcome.Duration.Round(time.Millisecond)}
		if e.Outcome.Checkpoint != nil {
			attrs = append(attrs, "checkpoint", e.Outcome.Checkpoint.Position)
		}
		o.logger.InfoContext(ctx, "search finished", attrs...)
	default:
		o.logger.DebugContext(ctx, "event", "kind", e.Kind)
	}
}

// NewLogger builds the process logger: text or JSON on w, at level.
func NewLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a config level name to a slog level, defaulting to Info.
func ParseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}
