package concurrency

import (
	"context"
	"errors"
	"passwordCrackerEngine/internal/core/domain"
	"passwordCrackerEngine/internal/mocks"
	"passwordCrackerEngine/internal/pkg/events"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type firstWins struct {
	mu     sync.Mutex
	closed bool
	winner domain.Candidate
	calls  int
}

func (s *firstWins) Submit(candidate domain.Candidate, workerID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.closed || s.winner != nil {
		return false
	}
	s.winner = candidate
	return true
}

func (s *firstWins) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func runPool(t *testing.T, pool *WorkerPool, d *Distributor) StopReason {
	t.Helper()
	pool.Start(context.Background(), d)
	reason := d.Run(context.Background(), pool.Done())
	select {
	case <-pool.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("workers did not stop")
	}
	return reason
}

func TestWorkerPool_FindsMatch(t *testing.T) {
	tests := []struct {
		name       string
		workers    int
		mode       domain.DistributionMode
		wantReason StopReason
	}{
		// The matching worker leaves; dispatch ends once nobody is left.
		{name: "single worker", workers: 1, mode: domain.ModeQueue, wantReason: StopNoReceivers},
		{name: "queue", workers: 8, mode: domain.ModeQueue, wantReason: StopExhausted},
		// Every worker sees the password and leaves.
		{name: "broadcast", workers: 4, mode: domain.ModeBroadcast, wantReason: StopNoReceivers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newSliceSource(200)
			ledger := NewLedger(src.Checkpoint())
			oracle := mocks.NewMockOracle().Password("c150")
			sink := &firstWins{}
			pool := NewWorkerPool(tt.workers, oracle, sink, ledger, nil)
			d := NewDistributor(src, tt.mode, 16, ledger, nil, nil)

			reason := runPool(t, pool, d)

			assert.Equal(t, tt.wantReason, reason)
			require.NoError(t, pool.Err())
			assert.Equal(t, "c150", sink.winner.String())
			assert.Equal(t, tt.workers, pool.Size())
		})
	}
}

func TestWorkerPool_AcksEveryEvaluatedCandidate(t *testing.T) {
	src := newSliceSource(300)
	ledger := NewLedger(src.Checkpoint())
	oracle := mocks.NewMockOracle()
	oracle.On("Attempt", mock.Anything).Return(false, nil)
	rec := events.NewRecorder()
	pool := NewWorkerPool(4, oracle, &firstWins{}, ledger, rec)
	d := NewDistributor(src, domain.ModeQueue, 8, ledger, nil, nil)

	runPool(t, pool, d)

	assert.Zero(t, ledger.Pending())
	assert.Equal(t, uint64(300), ledger.Watermark().Position)
	oracle.AssertNumberOfCalls(t, "Attempt", 300)
	assert.Equal(t, 300, rec.Count(domain.EventAttempt))
	assert.Equal(t, 4, rec.Count(domain.EventWorkerStarted))
	assert.Equal(t, 4, rec.Count(domain.EventWorkerStopped))

	m := pool.GetMetrics()
	assert.Equal(t, int64(300), m.TotalAttempts)
	assert.Zero(t, m.ActiveThreads)
	assert.Positive(t, m.AverageLatency)
}

func TestWorkerPool_RejectedMatchIsNotAcked(t *testing.T) {
	src := newSliceSource(20)
	ledger := NewLedger(src.Checkpoint())
	oracle := mocks.NewMockOracle().Password("c7")
	sink := &firstWins{}
	sink.close()
	pool := NewWorkerPool(1, oracle, sink, ledger, nil)
	d := NewDistributor(src, domain.ModeQueue, 1, ledger, nil, nil)

	runPool(t, pool, d)

	assert.Equal(t, 1, sink.calls)
	assert.Nil(t, sink.winner)
	assert.Equal(t, uint64(7), ledger.Watermark().Position)
}

func TestWorkerPool_OracleFailureIsFatal(t *testing.T) {
	src := newSliceSource(1 << 20)
	ledger := NewLedger(src.Checkpoint())
	oracle := mocks.NewMockOracle()
	oracle.On("Attempt", mocks.Candidate("c3")).Return(false, errors.New("disk gone"))
	oracle.On("Attempt", mock.Anything).Return(false, nil)
	rec := events.NewRecorder()
	pool := NewWorkerPool(4, oracle, &firstWins{}, ledger, rec)
	d := NewDistributor(src, domain.ModeQueue, 8, ledger, nil, nil)

	reason := runPool(t, pool, d)

	assert.Equal(t, StopNoReceivers, reason)
	require.Error(t, pool.Err())
	assert.ErrorIs(t, pool.Err(), domain.ErrOracle)
	assert.Contains(t, pool.Err().Error(), "disk gone")
	assert.Equal(t, 1, rec.Count(domain.EventOracleFailure))
}

func TestWorkerPool_Halt(t *testing.T) {
	src := newSliceSource(1 << 20)
	ledger := NewLedger(src.Checkpoint())
	oracle := mocks.NewMockOracle()
	oracle.On("Attempt", mock.Anything).Return(false, nil)
	pool := NewWorkerPool(2, oracle, &firstWins{}, ledger, nil)
	d := NewDistributor(src, domain.ModeQueue, 8, ledger, nil, nil)

	pool.Start(context.Background(), d)
	result := make(chan StopReason, 1)
	go func() {
		result <- d.Run(context.Background(), pool.Done())
	}()

	assert.Eventually(t, func() bool { return pool.GetMetrics().TotalAttempts > 10 }, time.Second, time.Millisecond)
	pool.Halt()
	pool.Halt()

	select {
	case <-pool.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("workers ignored halt")
	}
	assert.Equal(t, StopNoReceivers, <-result)
	assert.NoError(t, pool.Err())

	// Everything after the watermark was never evaluated.
	attempts := uint64(pool.GetMetrics().TotalAttempts)
	assert.LessOrEqual(t, ledger.Watermark().Position, attempts)
}
