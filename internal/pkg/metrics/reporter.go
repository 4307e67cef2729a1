package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"passwordCrackerEngine/internal/core/domain"
	"sync"
	"time"
)

// RunRecord is one line of the run report.
type RunRecord struct {
	Time       time.Time          `json:"time"`
	SessionID  string             `json:"session"`
	Target     string             `json:"target"`
	Source     domain.SourceKind  `json:"source"`
	Workers    int                `json:"workers"`
	Status     domain.JobStatus   `json:"status"`
	Outcome    domain.OutcomeKind `json:"outcome,omitempty"`
	Dispatched uint64             `json:"dispatched"`
	// NanosPerCandidate is wall time divided by dispatched candidates.
	NanosPerCandidate int64   `json:"nsPerCandidate,omitempty"`
	Error             string  `json:"error,omitempty"`
	Cost              RunCost `json:"cost"`
}

// Reporter appends run records to a file, one JSON object per line.
type Reporter struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

func NewReporter(path string) (*Reporter, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open run report %s: %w", path, err)
	}
	return &Reporter{file: file, enc: json.NewEncoder(file)}, nil
}

// Write appends rec. Records from concurrent sessions never interleave.
func (r *Reporter) Write(rec RunRecord) error {
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}
	if per, _ := rec.Cost.PerCandidate(rec.Dispatched); per > 0 {
		rec.NanosPerCandidate = per.Nanoseconds()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enc.Encode(rec)
}

func (r *Reporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}
