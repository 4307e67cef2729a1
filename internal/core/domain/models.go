package domain

import (
	"fmt"
	"time"
)

// Candidate is one password guess. Sources hand out fresh slices; nothing
// downstream mutates them.
type Candidate []byte

func (c Candidate) String() string {
	return string(c)
}

// SourceSpec is everything needed to rebuild a candidate source from scratch.
// Exactly one of the per-kind sections is meaningful, selected by Kind.
type SourceSpec struct {
	Kind     SourceKind    `json:"kind" yaml:"kind"`
	Wordlist *WordlistSpec `json:"wordlist,omitempty" yaml:"wordlist,omitempty"`
	Range    *RangeSpec    `json:"range,omitempty" yaml:"range,omitempty"`
	Date     *DateSpec     `json:"date,omitempty" yaml:"date,omitempty"`
	Query    *QuerySpec    `json:"query,omitempty" yaml:"query,omitempty"`
	Brute    *BruteSpec    `json:"brute,omitempty" yaml:"brute,omitempty"`
}

type WordlistSpec struct {
	Paths []string `json:"paths" yaml:"paths"`
	Rules []string `json:"rules,omitempty" yaml:"rules,omitempty"`
}

type RangeSpec struct {
	Lower uint64 `json:"lower" yaml:"lower"`
	Upper uint64 `json:"upper" yaml:"upper"`
	Pad   bool   `json:"pad,omitempty" yaml:"pad,omitempty"`
}

type DateSpec struct {
	Start  time.Time `json:"start" yaml:"start"`
	End    time.Time `json:"end" yaml:"end"`
	Layout string    `json:"layout,omitempty" yaml:"layout,omitempty"`
}

type QuerySpec struct {
	Mask string `json:"mask" yaml:"mask"`
}

type BruteSpec struct {
	Charset   string `json:"charset,omitempty" yaml:"charset,omitempty"`
	MinLength int    `json:"minLength" yaml:"min_length"`
	MaxLength int    `json:"maxLength" yaml:"max_length"`
}

// Checkpoint is a resumable snapshot of a source. Position is the ordinal of
// the next candidate the source would emit; Index, Offset and Step are
// generator cursors (file index, byte offset of the current line, rule step)
// that only the wordlist source uses.
type Checkpoint struct {
	Spec      SourceSpec `json:"spec"`
	Position  uint64     `json:"position"`
	Index     int        `json:"index,omitempty"`
	Offset    int64      `json:"offset,omitempty"`
	Step      int        `json:"step,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type Outcome struct {
	Kind       OutcomeKind `json:"kind"`
	Password   Candidate   `json:"password,omitempty"`
	Checkpoint *Checkpoint `json:"checkpoint,omitempty"`
	Dispatched uint64      `json:"dispatched"`
	Duration   time.Duration
	// DrainTimedOut is set when cancellation gave up waiting for in-flight
	// attempts; the checkpoint is still safe but may repeat a few candidates.
	DrainTimedOut bool `json:"drainTimedOut,omitempty"`
}

func Found(password Candidate) Outcome {
	return Outcome{Kind: OutcomeFound, Password: password}
}

func Exhausted() Outcome {
	return Outcome{Kind: OutcomeExhausted}
}

func Cancelled(cp Checkpoint) Outcome {
	return Outcome{Kind: OutcomeCancelled, Checkpoint: &cp}
}

// GenerationError reports malformed source input at a given position.
// Recoverable errors only cost the offending candidate.
type GenerationError struct {
	Position    uint64
	Recoverable bool
	Err         error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation error at position %d: %v", e.Position, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

type RunSettings struct {
	Workers          int              `json:"workers"`
	BufferSize       int              `json:"bufferSize"`
	Mode             DistributionMode `json:"mode"`
	GracePeriod      time.Duration    `json:"gracePeriod"`
	ProgressInterval time.Duration    `json:"progressInterval"`
}

type ResourceMetrics struct {
	CPUUsage       float64
	MemoryUsageMB  int64
	SystemMemUsed  float64
	AttemptsPerSec int64
	TotalAttempts  int64
	ActiveThreads  int
	AverageLatency time.Duration
	LastUpdated    time.Time
}

type Progress struct {
	Dispatched uint64          `json:"dispatched"`
	Total      uint64          `json:"total,omitempty"`
	HasTotal   bool            `json:"hasTotal"`
	Fraction   float64         `json:"fraction,omitempty"`
	Rate       float64         `json:"rate"`
	ETA        time.Duration   `json:"eta,omitempty"`
	Elapsed    time.Duration   `json:"elapsed"`
	Resources  ResourceMetrics `json:"resources"`
}

type Session struct {
	ID         string      `json:"id"`
	TargetPath string      `json:"targetPath"`
	Spec       SourceSpec  `json:"spec"`
	Checkpoint *Checkpoint `json:"checkpoint,omitempty"`
	Workers    int         `json:"workers"`
	Status     JobStatus   `json:"status"`
	Password   Candidate   `json:"password,omitempty"`
	Attempts   uint64      `json:"attempts"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}
