package algorithm

import (
	"fmt"
	"io"
	"math/bits"
	"passwordCrackerEngine/internal/core/domain"
)

// indexed is a source whose i-th candidate can be computed directly, so the
// whole cursor is the position.
type indexed struct {
	spec     domain.SourceSpec
	size     uint64
	position uint64
	at       func(i uint64) domain.Candidate
}

func (s *indexed) Next() (domain.Candidate, error) {
	if s.position >= s.size {
		return nil, io.EOF
	}
	c := s.at(s.position)
	s.position++
	return c, nil
}

func (s *indexed) Size() (uint64, bool) {
	return s.size, true
}

func (s *indexed) Checkpoint() domain.Checkpoint {
	return domain.Checkpoint{Spec: s.spec, Position: s.position}
}

func (s *indexed) Kind() domain.SourceKind {
	return s.spec.Kind
}

func (s *indexed) Close() error {
	return nil
}

func (s *indexed) resume(cp domain.Checkpoint) error {
	if cp.Position > s.size {
		return fmt.Errorf("%w: checkpoint position %d beyond size %d", domain.ErrInvalidSource, cp.Position, s.size)
	}
	s.position = cp.Position
	return nil
}

// mulCheck multiplies a and b, reporting false on uint64 overflow.
func mulCheck(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}

func addCheck(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry == 0
}

// odometer renders index i of the space spanned by alphabets; the last slot
// turns fastest.
func odometer(alphabets [][]string, i uint64) domain.Candidate {
	digits := make([]int, len(alphabets))
	n := 0
	for slot := len(alphabets) - 1; slot >= 0; slot-- {
		base := uint64(len(alphabets[slot]))
		digits[slot] = int(i % base)
		i /= base
		n += len(alphabets[slot][digits[slot]])
	}
	out := make(domain.Candidate, 0, n)
	for slot, d := range digits {
		out = append(out, alphabets[slot][d]...)
	}
	return out
}

func symbols(charset string) []string {
	var out []string
	for _, r := range charset {
		out = append(out, string(r))
	}
	return out
}
