package concurrency

import (
	"passwordCrackerEngine/internal/core/domain"
	"sync"
)

// Ledger tracks candidates that were handed to workers but not yet
// evaluated. Its watermark is the source cursor of the oldest such
// candidate, which is where a resumed run has to start so nothing is skipped.
type Ledger struct {
	mu     sync.Mutex
	base   uint64 // lowest unacknowledged sequence
	next   uint64 // next sequence to hand out
	marks  map[uint64]domain.Checkpoint
	acked  map[uint64]struct{}
	cursor domain.Checkpoint
}

func NewLedger(start domain.Checkpoint) *Ledger {
	return &Ledger{
		marks:  make(map[uint64]domain.Checkpoint),
		acked:  make(map[uint64]struct{}),
		cursor: start,
	}
}

// Cursor records the source state before its next pull.
func (l *Ledger) Cursor(cp domain.Checkpoint) {
	l.mu.Lock()
	l.cursor = cp
	l.mu.Unlock()
}

// Push registers a candidate pulled from the current cursor and returns its
// sequence number.
func (l *Ledger) Push() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	seq := l.next
	l.marks[seq] = l.cursor
	l.next++
	return seq
}

// Ack marks seq as evaluated. Repeated or stale acks are ignored.
func (l *Ledger) Ack(seq uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if seq < l.base || seq >= l.next {
		return
	}
	l.acked[seq] = struct{}{}
	for {
		if _, ok := l.acked[l.base]; !ok {
			return
		}
		delete(l.acked, l.base)
		delete(l.marks, l.base)
		l.base++
	}
}

func (l *Ledger) Watermark() domain.Checkpoint {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.base < l.next {
		return l.marks[l.base]
	}
	return l.cursor
}

// Pending is the number of candidates between the watermark and the cursor.
func (l *Ledger) Pending() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.next - l.base
}
