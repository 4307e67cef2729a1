package service

import (
	"context"
	"errors"
	"fmt"
	"passwordCrackerEngine/internal/core/algorithm"
	"passwordCrackerEngine/internal/core/domain"
	"passwordCrackerEngine/internal/mocks"
	"passwordCrackerEngine/internal/pkg/events"
	"passwordCrackerEngine/internal/port"
	"passwordCrackerEngine/internal/utils/random"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type oracleFunc func(domain.Candidate) (bool, error)

func (f oracleFunc) Attempt(c domain.Candidate) (bool, error) { return f(c) }

// recordingOracle remembers every candidate it was asked about.
type recordingOracle struct {
	mu       sync.Mutex
	seen     map[uint64]int
	attempts int
	hook     func(attempts int)
}

func newRecordingOracle() *recordingOracle {
	return &recordingOracle{seen: map[uint64]int{}}
}

func (o *recordingOracle) Attempt(c domain.Candidate) (bool, error) {
	n, err := strconv.ParseUint(c.String(), 10, 64)
	if err != nil {
		return false, err
	}
	o.mu.Lock()
	o.seen[n]++
	o.attempts++
	attempts := o.attempts
	o.mu.Unlock()
	if o.hook != nil {
		o.hook(attempts)
	}
	return false, nil
}

func (o *recordingOracle) evaluated(pos uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.seen[pos] > 0
}

func (o *recordingOracle) lowest() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	lowest := ^uint64(0)
	for pos := range o.seen {
		if pos < lowest {
			lowest = pos
		}
	}
	return lowest
}

func rangeSpec(n uint64) domain.SourceSpec {
	return domain.SourceSpec{Kind: domain.SourceRange, Range: &domain.RangeSpec{Lower: 0, Upper: n - 1}}
}

func rangeSource(t *testing.T, n uint64) algorithm.Source {
	t.Helper()
	src, err := algorithm.Open(rangeSpec(n), nil)
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })
	return src
}

func targetFor(oracle port.Oracle) *mocks.MockTarget {
	target := mocks.NewMockTarget()
	target.On("Open", mock.Anything).Return(oracle, nil)
	return target
}

func settings(mode domain.DistributionMode) domain.RunSettings {
	s := DefaultSettings()
	s.Mode = mode
	s.ProgressInterval = 0
	return s
}

func TestEngine_FindsPasswordRegardlessOfWorkers(t *testing.T) {
	for _, mode := range []domain.DistributionMode{domain.ModeQueue, domain.ModeBroadcast} {
		for _, workers := range []int{1, 2, 8, 64} {
			t.Run(fmt.Sprintf("%s/%d", mode, workers), func(t *testing.T) {
				oracle := mocks.NewMockOracle().Password("500")
				engine := NewEngine(settings(mode), nil)

				outcome, err := engine.Run(context.Background(), workers, targetFor(oracle), rangeSource(t, 1000))

				require.NoError(t, err)
				assert.Equal(t, domain.OutcomeFound, outcome.Kind)
				assert.Equal(t, "500", outcome.Password.String())
				assert.Nil(t, outcome.Checkpoint)
				assert.GreaterOrEqual(t, outcome.Dispatched, uint64(501))
			})
		}
	}
}

func TestEngine_FindsPasswordAtEdges(t *testing.T) {
	for _, password := range []string{"0", "999"} {
		t.Run(password, func(t *testing.T) {
			oracle := mocks.NewMockOracle().Password(password)
			outcome, err := NewEngine(settings(domain.ModeQueue), nil).Run(context.Background(), 4, targetFor(oracle), rangeSource(t, 1000))

			require.NoError(t, err)
			assert.Equal(t, domain.OutcomeFound, outcome.Kind)
			assert.Equal(t, password, outcome.Password.String())
		})
	}
}

func TestEngine_RandomPositions(t *testing.T) {
	for i := 0; i < 10; i++ {
		password := strconv.FormatUint(random.Index(5000), 10)
		workers := int(random.Index(16)) + 1
		t.Run(fmt.Sprintf("%s_with_%d", password, workers), func(t *testing.T) {
			oracle := mocks.NewMockOracle().Password(password)
			outcome, err := NewEngine(settings(domain.ModeQueue), nil).Run(context.Background(), workers, targetFor(oracle), rangeSource(t, 5000))

			require.NoError(t, err)
			assert.Equal(t, domain.OutcomeFound, outcome.Kind)
			assert.Equal(t, password, outcome.Password.String())
		})
	}
}

func TestEngine_Exhausted(t *testing.T) {
	tests := []struct {
		name      string
		mode      domain.DistributionMode
		workers   int
		wantCalls int
	}{
		{name: "queue", mode: domain.ModeQueue, workers: 4, wantCalls: 100},
		{name: "broadcast", mode: domain.ModeBroadcast, workers: 3, wantCalls: 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := mocks.NewMockOracle()
			oracle.On("Attempt", mock.Anything).Return(false, nil)
			rec := events.NewRecorder()

			outcome, err := NewEngine(settings(tt.mode), rec).Run(context.Background(), tt.workers, targetFor(oracle), rangeSource(t, 100))

			require.NoError(t, err)
			assert.Equal(t, domain.OutcomeExhausted, outcome.Kind)
			assert.Equal(t, uint64(100), outcome.Dispatched, "progress counts dispatches, not attempts")
			oracle.AssertNumberOfCalls(t, "Attempt", tt.wantCalls)
			assert.Equal(t, 1, rec.Count(domain.EventRunStarted))
			assert.Equal(t, 1, rec.Count(domain.EventRunFinished))
		})
	}
}

func TestEngine_EmptySource(t *testing.T) {
	oracle := mocks.NewMockOracle()
	spec := domain.SourceSpec{Kind: domain.SourceRange, Range: &domain.RangeSpec{Lower: 5, Upper: 5}}
	src, err := algorithm.Open(spec, &domain.Checkpoint{Spec: spec, Position: 1})
	require.NoError(t, err)

	outcome, err := NewEngine(settings(domain.ModeQueue), nil).Run(context.Background(), 2, targetFor(oracle), src)

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeExhausted, outcome.Kind)
	oracle.AssertNotCalled(t, "Attempt", mock.Anything)
}

func TestEngine_TargetOpenFailure(t *testing.T) {
	target := mocks.NewMockTarget()
	target.On("Open", mock.Anything).Return(nil, errors.New("no such file"))
	rec := events.NewRecorder()

	outcome, err := NewEngine(settings(domain.ModeQueue), rec).Run(context.Background(), 8, target, rangeSource(t, 10))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTargetOpen)
	assert.Contains(t, err.Error(), "no such file")
	assert.Empty(t, outcome.Kind)
	assert.Empty(t, rec.Events(), "no worker may start")
}

func TestEngine_InvalidWorkerCount(t *testing.T) {
	target := mocks.NewMockTarget()
	_, err := NewEngine(settings(domain.ModeQueue), nil).Run(context.Background(), 0, target, rangeSource(t, 10))

	assert.ErrorIs(t, err, domain.ErrInvalidWorkers)
	target.AssertNotCalled(t, "Open", mock.Anything)
}

func TestEngine_OracleFailureIsFatal(t *testing.T) {
	oracle := mocks.NewMockOracle()
	oracle.On("Attempt", mocks.Candidate("7")).Return(false, errors.New("read error"))
	oracle.On("Attempt", mock.Anything).Return(false, nil)
	rec := events.NewRecorder()

	outcome, err := NewEngine(settings(domain.ModeQueue), rec).Run(context.Background(), 4, targetFor(oracle), rangeSource(t, 100000))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOracle)
	assert.Empty(t, outcome.Kind)
	assert.Equal(t, 1, rec.Count(domain.EventOracleFailure))
}

func TestEngine_CancelThenResumeCoversEverything(t *testing.T) {
	const total = 20000

	tests := []struct {
		name     string
		mode     domain.DistributionMode
		workers  int
		cancelAt int
	}{
		{name: "first attempt", mode: domain.ModeQueue, workers: 4, cancelAt: 1},
		{name: "early", mode: domain.ModeQueue, workers: 8, cancelAt: 50},
		{name: "later", mode: domain.ModeQueue, workers: 3, cancelAt: 777},
		{name: "single worker", mode: domain.ModeQueue, workers: 1, cancelAt: 300},
		{name: "broadcast", mode: domain.ModeBroadcast, workers: 3, cancelAt: 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			first := newRecordingOracle()
			first.hook = func(attempts int) {
				if attempts == tt.cancelAt {
					cancel()
				}
			}

			outcome, err := NewEngine(settings(tt.mode), nil).Run(ctx, tt.workers, targetFor(first), rangeSource(t, total))
			require.NoError(t, err)
			require.Equal(t, domain.OutcomeCancelled, outcome.Kind)
			require.NotNil(t, outcome.Checkpoint)
			assert.False(t, outcome.DrainTimedOut)
			assert.False(t, outcome.Checkpoint.CreatedAt.IsZero())

			cp := *outcome.Checkpoint
			assert.Less(t, cp.Position, uint64(total))
			for pos := uint64(0); pos < cp.Position; pos++ {
				require.True(t, first.evaluated(pos), "candidate %d before the checkpoint was never evaluated", pos)
			}

			second := newRecordingOracle()
			resumed, err := NewEngine(settings(tt.mode), nil).Resume(context.Background(), tt.workers, targetFor(second), cp)
			require.NoError(t, err)
			assert.Equal(t, domain.OutcomeExhausted, resumed.Kind)
			assert.Equal(t, uint64(total), resumed.Dispatched)

			assert.Equal(t, cp.Position, second.lowest(), "resume starts exactly at the checkpoint")
			for pos := cp.Position; pos < total; pos++ {
				require.True(t, second.evaluated(pos), "candidate %d skipped after resume", pos)
			}
		})
	}
}

func TestEngine_LateMatchIsRefoundOnResume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	proceed := make(chan struct{})
	rec := events.NewRecorder()
	observer := events.Multi(rec, events.Func(func(e domain.Event) {
		if e.Kind == domain.EventCancelRequested {
			close(proceed)
		}
	}))
	oracle := oracleFunc(func(c domain.Candidate) (bool, error) {
		if c.String() != "5" {
			return false, nil
		}
		cancel()
		<-proceed
		return true, nil
	})

	outcome, err := NewEngine(settings(domain.ModeQueue), observer).Run(ctx, 1, targetFor(oracle), rangeSource(t, 100))

	require.NoError(t, err)
	require.Equal(t, domain.OutcomeCancelled, outcome.Kind)
	assert.Equal(t, uint64(5), outcome.Checkpoint.Position)
	assert.Equal(t, 1, rec.Count(domain.EventLateMatch))
	assert.Zero(t, rec.Count(domain.EventMatch))

	resumed, err := NewEngine(settings(domain.ModeQueue), nil).Resume(context.Background(), 4, targetFor(mocks.NewMockOracle().Password("5")), *outcome.Checkpoint)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFound, resumed.Kind)
	assert.Equal(t, "5", resumed.Password.String())
}

func TestEngine_CancellationTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reached := make(chan struct{})
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	oracle := oracleFunc(func(c domain.Candidate) (bool, error) {
		if c.String() == "3" {
			close(reached)
			<-release
		}
		return false, nil
	})

	s := settings(domain.ModeQueue)
	s.GracePeriod = 50 * time.Millisecond
	rec := events.NewRecorder()
	engine := NewEngine(s, rec)

	go func() {
		<-reached
		cancel()
	}()
	outcome, err := engine.Run(ctx, 2, targetFor(oracle), rangeSource(t, 1000000))

	require.NoError(t, err)
	require.Equal(t, domain.OutcomeCancelled, outcome.Kind)
	assert.True(t, outcome.DrainTimedOut)
	assert.LessOrEqual(t, outcome.Checkpoint.Position, uint64(3))
	assert.Equal(t, 1, rec.Count(domain.EventCancellationTimeout))
}

func TestEngine_CancelBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	target := mocks.NewMockTarget()
	outcome, err := NewEngine(settings(domain.ModeQueue), nil).Run(ctx, 2, target, rangeSource(t, 1000000))

	require.NoError(t, err)
	require.Equal(t, domain.OutcomeCancelled, outcome.Kind)
	assert.Zero(t, outcome.Checkpoint.Position)
	target.AssertNotCalled(t, "Open", mock.Anything)
}

func TestEngine_CancelWhileOpeningTarget(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	target := mocks.NewMockTarget()
	target.On("Open", mock.Anything).Run(func(mock.Arguments) { cancel() }).Return(nil, context.Canceled)
	src := rangeSource(t, 100)

	outcome, err := NewEngine(settings(domain.ModeQueue), nil).Run(ctx, 2, target, src)

	require.NoError(t, err)
	require.Equal(t, domain.OutcomeCancelled, outcome.Kind)
	assert.Zero(t, outcome.Checkpoint.Position)
	assert.Equal(t, domain.SourceRange, outcome.Checkpoint.Spec.Kind)
}

func TestEngine_ProgressPolledDuringStartup(t *testing.T) {
	engine := NewEngine(settings(domain.ModeQueue), nil)
	stop := make(chan struct{})
	polled := make(chan struct{})
	go func() {
		defer close(polled)
		for {
			select {
			case <-stop:
				return
			default:
				if snap, live := engine.Progress(); live {
					_ = snap.Resources.AttemptsPerSec
				}
			}
		}
	}()

	for i := 0; i < 20; i++ {
		oracle := mocks.NewMockOracle()
		oracle.On("Attempt", mock.Anything).Return(false, nil)
		outcome, err := engine.Run(context.Background(), 4, targetFor(oracle), rangeSource(t, 50))
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeExhausted, outcome.Kind)
	}
	close(stop)
	<-polled
}

func TestEngine_Progress(t *testing.T) {
	reached := make(chan struct{})
	release := make(chan struct{})
	oracle := oracleFunc(func(c domain.Candidate) (bool, error) {
		if c.String() == "50" {
			close(reached)
			<-release
		}
		return false, nil
	})

	s := settings(domain.ModeQueue)
	s.ProgressInterval = time.Millisecond
	rec := events.NewRecorder()
	engine := NewEngine(s, rec)

	_, live := engine.Progress()
	assert.False(t, live)

	src := rangeSource(t, 1000)
	done := make(chan domain.Outcome, 1)
	go func() {
		outcome, _ := engine.Run(context.Background(), 1, targetFor(oracle), src)
		done <- outcome
	}()

	<-reached
	snap, live := engine.Progress()
	require.True(t, live)
	assert.True(t, snap.HasTotal)
	assert.Equal(t, uint64(1000), snap.Total)
	assert.GreaterOrEqual(t, snap.Dispatched, uint64(51))
	assert.Equal(t, 1, snap.Resources.ActiveThreads)
	assert.Eventually(t, func() bool { return rec.Count(domain.EventProgress) > 0 }, time.Second, time.Millisecond)

	close(release)
	outcome := <-done
	assert.Equal(t, domain.OutcomeExhausted, outcome.Kind)
	_, live = engine.Progress()
	assert.False(t, live)
}

func TestEngine_ResumeRejectsBadCheckpoint(t *testing.T) {
	cp := domain.Checkpoint{Spec: rangeSpec(10), Position: 11}
	_, err := NewEngine(settings(domain.ModeQueue), nil).Resume(context.Background(), 1, mocks.NewMockTarget(), cp)
	assert.ErrorIs(t, err, domain.ErrInvalidSource)
}
