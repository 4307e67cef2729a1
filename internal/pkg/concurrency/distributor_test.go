package concurrency

import (
	"context"
	"errors"
	"passwordCrackerEngine/internal/core/domain"
	"passwordCrackerEngine/internal/pkg/events"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(jobs <-chan Job, gone chan struct{}, limit int) *[]string {
	var out []string
	go func() {
		defer close(gone)
		for job := range jobs {
			out = append(out, job.Candidate.String())
			if limit > 0 && len(out) == limit {
				return
			}
		}
	}()
	return &out
}

func TestDistributor_QueueDeliversEachCandidateOnce(t *testing.T) {
	src := newSliceSource(500)
	ledger := NewLedger(src.Checkpoint())
	progress := &counter{}
	d := NewDistributor(src, domain.ModeQueue, 0, ledger, progress, nil)

	var mu sync.Mutex
	seen := map[string]int{}
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		gone := make(chan struct{})
		jobs := d.Attach(i, gone)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer close(gone)
			for job := range jobs {
				mu.Lock()
				seen[job.Candidate.String()]++
				mu.Unlock()
				ledger.Ack(job.Seq)
			}
		}()
	}

	reason := d.Run(context.Background(), make(chan struct{}))
	wg.Wait()

	assert.Equal(t, StopExhausted, reason)
	assert.Len(t, seen, 500)
	for c, n := range seen {
		assert.Equal(t, 1, n, c)
	}
	assert.Equal(t, 500, progress.n)
	assert.Equal(t, uint64(500), ledger.Watermark().Position)
}

func TestDistributor_BroadcastDeliversEverythingToEveryone(t *testing.T) {
	src := newSliceSource(50)
	progress := &counter{}
	d := NewDistributor(src, domain.ModeBroadcast, 4, NewLedger(src.Checkpoint()), progress, nil)

	var outs []*[]string
	var gones []chan struct{}
	for i := 0; i < 3; i++ {
		gone := make(chan struct{})
		outs = append(outs, collect(d.Attach(i, gone), gone, 0))
		gones = append(gones, gone)
	}

	reason := d.Run(context.Background(), make(chan struct{}))
	for _, g := range gones {
		<-g
	}

	assert.Equal(t, StopExhausted, reason)
	assert.Equal(t, 50, progress.n, "progress counts dispatches, not deliveries")
	for _, out := range outs {
		require.Len(t, *out, 50)
		assert.Equal(t, "c0", (*out)[0])
		assert.Equal(t, "c49", (*out)[49])
	}
}

func TestDistributor_Backpressure(t *testing.T) {
	src := newSliceSource(1000)
	ledger := NewLedger(src.Checkpoint())
	progress := &counter{}
	d := NewDistributor(src, domain.ModeQueue, 2, ledger, progress, nil)
	jobs := d.Attach(0, make(chan struct{}))

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan StopReason, 1)
	go func() {
		result <- d.Run(ctx, make(chan struct{}))
	}()

	// Two buffered, the third is blocked in send.
	assert.Eventually(t, func() bool { return ledger.Pending() == 3 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, uint64(3), ledger.Pending())

	cancel()
	select {
	case reason := <-result:
		assert.Equal(t, StopRequested, reason)
	case <-time.After(time.Second):
		t.Fatal("distributor did not stop")
	}
	assert.Equal(t, 2, progress.n)
	assert.Equal(t, uint64(0), ledger.Watermark().Position)

	var drained int
	for range jobs {
		drained++
	}
	assert.Equal(t, 2, drained)
}

func TestDistributor_BroadcastDropsGoneReceiver(t *testing.T) {
	src := newSliceSource(100)
	rec := events.NewRecorder()
	d := NewDistributor(src, domain.ModeBroadcast, 1, NewLedger(src.Checkpoint()), nil, rec)

	quitter := make(chan struct{})
	short := collect(d.Attach(0, quitter), quitter, 3)
	stayer := make(chan struct{})
	long := collect(d.Attach(1, stayer), stayer, 0)

	reason := d.Run(context.Background(), make(chan struct{}))
	<-stayer

	assert.Equal(t, StopExhausted, reason)
	assert.Len(t, *short, 3)
	assert.Len(t, *long, 100)
	assert.Equal(t, 1, rec.Count(domain.EventReceiverGone))
	assert.Zero(t, rec.Count(domain.EventDispatchHalted))
}

func TestDistributor_StopsWhenAllReceiversGone(t *testing.T) {
	for _, mode := range []domain.DistributionMode{domain.ModeQueue, domain.ModeBroadcast} {
		t.Run(string(mode), func(t *testing.T) {
			src := newSliceSource(1 << 20)
			rec := events.NewRecorder()
			d := NewDistributor(src, mode, 1, NewLedger(src.Checkpoint()), nil, rec)

			gone := make(chan struct{})
			collect(d.Attach(0, gone), gone, 5)

			reason := d.Run(context.Background(), gone)
			assert.Equal(t, StopNoReceivers, reason)
			require.Equal(t, 1, rec.Count(domain.EventDispatchHalted))

			for _, e := range rec.Events() {
				if e.Kind == domain.EventDispatchHalted {
					assert.True(t, errors.Is(e.Err, domain.ErrChannelClosed))
				}
			}
		})
	}
}

func TestDistributor_NoReceivers(t *testing.T) {
	src := newSliceSource(10)
	d := NewDistributor(src, domain.ModeQueue, 1, NewLedger(src.Checkpoint()), nil, nil)
	assert.Equal(t, StopNoReceivers, d.Run(context.Background(), make(chan struct{})))
}

func TestDistributor_GenerationErrors(t *testing.T) {
	tests := []struct {
		name        string
		recoverable bool
		wantCount   int
	}{
		{name: "recoverable is skipped", recoverable: true, wantCount: 9},
		{name: "unrecoverable ends generation", recoverable: false, wantCount: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newSliceSource(10)
			src.errs[4] = &domain.GenerationError{Position: 4, Recoverable: tt.recoverable, Err: errors.New("bad line")}
			rec := events.NewRecorder()
			d := NewDistributor(src, domain.ModeQueue, 16, NewLedger(src.Checkpoint()), nil, rec)

			gone := make(chan struct{})
			out := collect(d.Attach(0, gone), gone, 0)

			reason := d.Run(context.Background(), make(chan struct{}))
			<-gone

			assert.Equal(t, StopExhausted, reason)
			assert.Len(t, *out, tt.wantCount)
			assert.NotContains(t, *out, "c4")
			assert.Equal(t, 1, rec.Count(domain.EventGenerationError))
		})
	}
}

func TestDistributor_AttachAfterRunPanics(t *testing.T) {
	src := newSliceSource(0)
	d := NewDistributor(src, domain.ModeQueue, 1, NewLedger(src.Checkpoint()), nil, nil)
	gone := make(chan struct{})
	collect(d.Attach(0, gone), gone, 0)
	d.Run(context.Background(), make(chan struct{}))

	assert.Panics(t, func() {
		d.Attach(1, make(chan struct{}))
	})
}
