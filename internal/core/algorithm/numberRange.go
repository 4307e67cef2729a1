package algorithm

import (
	"fmt"
	"passwordCrackerEngine/internal/core/domain"
	"strconv"
	"strings"
)

// NumberRange emits lower..upper inclusive, optionally zero padded to the
// width of upper (PINs, years, numeric document passwords).
type NumberRange struct {
	indexed
	lower uint64
	width int
}

func NewNumberRange(spec domain.SourceSpec) (*NumberRange, error) {
	r := spec.Range
	if r == nil {
		return nil, fmt.Errorf("%w: range source without bounds", domain.ErrInvalidSource)
	}
	if r.Lower > r.Upper {
		return nil, fmt.Errorf("%w: lower bound %d above upper bound %d", domain.ErrInvalidSource, r.Lower, r.Upper)
	}
	size, ok := addCheck(r.Upper-r.Lower, 1)
	if !ok {
		return nil, fmt.Errorf("%w: range covers the whole uint64 space", domain.ErrInvalidSource)
	}

	n := &NumberRange{lower: r.Lower}
	if r.Pad {
		n.width = len(strconv.FormatUint(r.Upper, 10))
	}
	n.indexed = indexed{spec: spec, size: size, at: n.at}
	return n, nil
}

func (n *NumberRange) at(i uint64) domain.Candidate {
	s := strconv.FormatUint(n.lower+i, 10)
	if pad := n.width - len(s); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}
	return domain.Candidate(s)
}
