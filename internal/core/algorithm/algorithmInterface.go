package algorithm

import (
	"fmt"
	"passwordCrackerEngine/internal/core/domain"
)

// Source is a resumable, ordered stream of candidates.
//
// Next returns io.EOF once the space is exhausted and keeps returning it on
// every later call. A *domain.GenerationError marks malformed input; when it
// is recoverable the stream continues with the following candidate.
// Sources are not safe for concurrent use: the distributor owns them.
type Source interface {
	Next() (domain.Candidate, error)
	Size() (uint64, bool)
	Checkpoint() domain.Checkpoint
	Kind() domain.SourceKind
	Close() error
}

// Open builds the source described by spec. When cp is non-nil the source is
// positioned so that its first candidate is the one cp was taken before.
func Open(spec domain.SourceSpec, cp *domain.Checkpoint) (Source, error) {
	if cp != nil && cp.Spec.Kind != spec.Kind {
		return nil, fmt.Errorf("%w: checkpoint is for %q, not %q", domain.ErrInvalidSource, cp.Spec.Kind, spec.Kind)
	}

	var (
		src Source
		err error
	)
	switch spec.Kind {
	case domain.SourceWordlist:
		src, err = NewDictionary(spec)
	case domain.SourceRange:
		src, err = NewNumberRange(spec)
	case domain.SourceDate:
		src, err = NewDates(spec)
	case domain.SourceQuery:
		src, err = NewMask(spec)
	case domain.SourceBrute:
		src, err = NewBruteForce(spec)
	default:
		return nil, fmt.Errorf("%w: unknown source kind %q", domain.ErrInvalidSource, spec.Kind)
	}
	if err != nil {
		return nil, err
	}

	if cp != nil {
		if r, ok := src.(interface {
			resume(domain.Checkpoint) error
		}); ok {
			if err := r.resume(*cp); err != nil {
				src.Close()
				return nil, err
			}
		}
	}
	return src, nil
}
