package concurrency

import (
	"fmt"
	"io"
	"passwordCrackerEngine/internal/core/domain"
)

// sliceSource hands out c0, c1, ... and fails at the positions listed in errs.
type sliceSource struct {
	n    int
	pos  int
	errs map[int]error
}

func newSliceSource(n int) *sliceSource {
	return &sliceSource{n: n, errs: map[int]error{}}
}

func (s *sliceSource) Next() (domain.Candidate, error) {
	if s.pos >= s.n {
		return nil, io.EOF
	}
	pos := s.pos
	s.pos++
	if err, ok := s.errs[pos]; ok {
		return nil, err
	}
	return domain.Candidate(fmt.Sprintf("c%d", pos)), nil
}

func (s *sliceSource) Checkpoint() domain.Checkpoint {
	return domain.Checkpoint{Position: uint64(s.pos)}
}

type counter struct {
	n int
}

func (c *counter) Dispatched() { c.n++ }
