package service

import (
	"context"
	"errors"
	"fmt"
	"passwordCrackerEngine/internal/core/algorithm"
	"passwordCrackerEngine/internal/core/domain"
	"passwordCrackerEngine/internal/pkg/events"
	"passwordCrackerEngine/internal/pkg/metrics"
	"passwordCrackerEngine/internal/port"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const MetricsUpdateInterval = time.Second

// TargetFactory builds the opener for a session's target path.
type TargetFactory func(path string) port.TargetOpener

type StartRequest struct {
	TargetPath string
	Spec       domain.SourceSpec
	Workers    int
}

// CrackingService runs searches as persisted sessions: every run is recorded
// with its source, and a cancelled run keeps the checkpoint it can be
// resumed from.
type CrackingService struct {
	repo       port.Repository
	targets    TargetFactory
	settings   domain.RunSettings
	observer   port.Observer
	activeJobs sync.Map
	metrics    *metrics.Collector
	reporter   *metrics.Reporter
	now        func() time.Time
}

// activeRun is a session currently owned by this process.
type activeRun struct {
	engine *Engine
	cancel context.CancelFunc
}

type Option func(*CrackingService)

// WithReporter appends a JSON record per finished run.
func WithReporter(r *metrics.Reporter) Option {
	return func(s *CrackingService) { s.reporter = r }
}

// WithCollector replaces the default resource sampler.
func WithCollector(c *metrics.Collector) Option {
	return func(s *CrackingService) { s.metrics = c }
}

func NewCrackingService(repo port.Repository, targets TargetFactory, settings domain.RunSettings, observer port.Observer, opts ...Option) *CrackingService {
	s := &CrackingService{
		repo:     repo,
		targets:  targets,
		settings: settings,
		observer: events.OrNop(observer),
		metrics:  metrics.NewCollector(MetricsUpdateInterval),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSession records a new session and runs it to an outcome. Cancelling
// ctx interrupts the run; the session is then saved with its checkpoint.
func (s *CrackingService) StartSession(ctx context.Context, req StartRequest) (*domain.Session, domain.Outcome, error) {
	src, err := algorithm.Open(req.Spec, nil)
	if err != nil {
		return nil, domain.Outcome{}, err
	}

	workers := req.Workers
	if workers <= 0 {
		workers = s.settings.Workers
	}
	now := s.now()
	session := &domain.Session{
		ID:         uuid.NewString(),
		TargetPath: req.TargetPath,
		Spec:       req.Spec,
		Workers:    workers,
		Status:     domain.StatusRunning,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	run, runCtx, _ := s.claim(ctx, session.ID)
	if err := s.repo.SaveSession(ctx, session); err != nil {
		s.release(session.ID, run)
		src.Close()
		return nil, domain.Outcome{}, fmt.Errorf("save session: %w", err)
	}

	return s.execute(runCtx, run, session, src)
}

// ResumeSession continues a cancelled or failed session from its last
// checkpoint. workers overrides the stored worker count when positive.
func (s *CrackingService) ResumeSession(ctx context.Context, id string, workers int) (*domain.Session, domain.Outcome, error) {
	run, runCtx, ok := s.claim(ctx, id)
	if !ok {
		return nil, domain.Outcome{}, fmt.Errorf("%w: %s", domain.ErrSessionActive, id)
	}
	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		s.release(id, run)
		return nil, domain.Outcome{}, err
	}
	if session.Status == domain.StatusComplete {
		s.release(id, run)
		return session, domain.Outcome{}, fmt.Errorf("%w: %s", domain.ErrSessionComplete, id)
	}

	src, err := algorithm.Open(session.Spec, session.Checkpoint)
	if err != nil {
		s.release(id, run)
		return session, domain.Outcome{}, err
	}
	if workers > 0 {
		session.Workers = workers
	}
	session.Status = domain.StatusRunning
	return s.execute(runCtx, run, session, src)
}

// claim registers id as running in this process. It fails when another
// caller already holds it.
func (s *CrackingService) claim(ctx context.Context, id string) (*activeRun, context.Context, bool) {
	runCtx, cancel := context.WithCancel(ctx)
	run := &activeRun{engine: NewEngine(s.settings, s.observer), cancel: cancel}
	if _, loaded := s.activeJobs.LoadOrStore(id, run); loaded {
		cancel()
		return nil, nil, false
	}
	return run, runCtx, true
}

func (s *CrackingService) release(id string, run *activeRun) {
	run.cancel()
	s.activeJobs.CompareAndDelete(id, run)
}

func (s *CrackingService) execute(ctx context.Context, run *activeRun, session *domain.Session, src algorithm.Source) (*domain.Session, domain.Outcome, error) {
	defer src.Close()

	s.metrics.StartCollection(session.ID)
	defer func() {
		s.release(session.ID, run)
		s.metrics.StopCollection(session.ID)
	}()

	var (
		outcome domain.Outcome
		runErr  error
	)
	cost := metrics.MeasureRun(func() {
		outcome, runErr = run.engine.Run(ctx, session.Workers, s.targets(session.TargetPath), src)
	})

	// The run context is gone after an interrupt; the result still has to
	// be written.
	saveCtx := context.WithoutCancel(ctx)
	s.finalizeSession(session, outcome, runErr)
	if sample := s.metrics.GetMetrics(session.ID); sample != nil {
		sample.TotalAttempts = int64(outcome.Dispatched)
		if err := s.repo.SaveMetrics(saveCtx, session.ID, sample); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("save metrics: %w", err))
		}
	}
	if err := s.repo.UpdateSession(saveCtx, session); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("save session %s: %w", session.ID, err))
	}
	if err := s.report(session, outcome, cost, runErr); err != nil {
		runErr = errors.Join(runErr, err)
	}

	return session, outcome, runErr
}

func (s *CrackingService) finalizeSession(session *domain.Session, outcome domain.Outcome, runErr error) {
	session.UpdatedAt = s.now()
	if runErr != nil {
		session.Status = domain.StatusFailed
		return
	}

	session.Attempts = outcome.Dispatched
	switch outcome.Kind {
	case domain.OutcomeFound:
		session.Status = domain.StatusComplete
		session.Password = outcome.Password
		session.Checkpoint = nil
	case domain.OutcomeExhausted:
		session.Status = domain.StatusComplete
		session.Checkpoint = nil
	case domain.OutcomeCancelled:
		session.Status = domain.StatusCancelled
		session.Checkpoint = outcome.Checkpoint
	}
}

func (s *CrackingService) report(session *domain.Session, outcome domain.Outcome, cost metrics.RunCost, runErr error) error {
	if s.reporter == nil {
		return nil
	}
	rec := metrics.RunRecord{
		SessionID:  session.ID,
		Target:     session.TargetPath,
		Source:     session.Spec.Kind,
		Workers:    session.Workers,
		Status:     session.Status,
		Outcome:    outcome.Kind,
		Dispatched: outcome.Dispatched,
		Cost:       cost,
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	if err := s.reporter.Write(rec); err != nil {
		return fmt.Errorf("write run report: %w", err)
	}
	return nil
}

func (s *CrackingService) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	return s.repo.GetSession(ctx, id)
}

func (s *CrackingService) ListSessions(ctx context.Context, filter port.SessionFilter) ([]domain.Session, error) {
	return s.repo.ListSessions(ctx, filter)
}

func (s *CrackingService) DeleteSession(ctx context.Context, id string) error {
	if _, running := s.activeJobs.Load(id); running {
		return fmt.Errorf("%w: %s", domain.ErrSessionActive, id)
	}
	return s.repo.DeleteSession(ctx, id)
}

// StopSession interrupts a running session the same way a cancelled context
// does: the run drains and the session is saved with its checkpoint.
func (s *CrackingService) StopSession(id string) error {
	value, ok := s.activeJobs.Load(id)
	if !ok {
		return fmt.Errorf("%w: %s is not running", domain.ErrSessionNotFound, id)
	}
	value.(*activeRun).cancel()
	return nil
}

// Progress reports the live position of a running session together with the
// latest resource sample.
func (s *CrackingService) Progress(id string) (domain.Progress, error) {
	value, ok := s.activeJobs.Load(id)
	if !ok {
		return domain.Progress{}, fmt.Errorf("%w: %s is not running", domain.ErrSessionNotFound, id)
	}
	progress, live := value.(*activeRun).engine.Progress()
	if !live {
		return domain.Progress{}, fmt.Errorf("%w: %s is not running", domain.ErrSessionNotFound, id)
	}

	s.metrics.UpdateAttempts(id, progress.Resources)
	if sample := s.metrics.GetMetrics(id); sample != nil {
		progress.Resources = *sample
	}
	return progress, nil
}

func (s *CrackingService) ActiveSessions() []string {
	var ids []string
	s.activeJobs.Range(func(key, _ interface{}) bool {
		ids = append(ids, key.(string))
		return true
	})
	sort.Strings(ids)
	return ids
}
