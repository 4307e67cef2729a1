package algorithm

import (
	"fmt"
	"passwordCrackerEngine/internal/core/domain"
)

// BruteForce walks every string over a charset, shortest lengths first and in
// charset order within a length.
type BruteForce struct {
	indexed
	alphabet []string
	counts   []uint64 // counts[k] = candidates of length MinLength+k
	minLen   int
}

func NewBruteForce(spec domain.SourceSpec) (*BruteForce, error) {
	if spec.Brute == nil {
		return nil, fmt.Errorf("%w: brute source without settings", domain.ErrInvalidSource)
	}
	settings := *spec.Brute
	if settings.Charset == "" {
		settings.Charset = domain.CharsetAll
	}
	if settings.MinLength < 1 || settings.MaxLength < settings.MinLength {
		return nil, fmt.Errorf("%w: invalid length range %d..%d", domain.ErrInvalidSource, settings.MinLength, settings.MaxLength)
	}
	spec.Brute = &settings

	b := &BruteForce{
		alphabet: symbols(settings.Charset),
		minLen:   settings.MinLength,
	}
	if err := b.calculateTotalCombinations(settings.MaxLength); err != nil {
		return nil, err
	}
	b.indexed.spec = spec
	b.indexed.at = b.at
	return b, nil
}

func (b *BruteForce) calculateTotalCombinations(maxLen int) error {
	base := uint64(len(b.alphabet))
	perLength := uint64(1)
	for l := 1; l < b.minLen; l++ {
		var ok bool
		if perLength, ok = mulCheck(perLength, base); !ok {
			return fmt.Errorf("%w: %d^%d candidates overflow the search space", domain.ErrInvalidSource, base, l)
		}
	}

	var total uint64
	for l := b.minLen; l <= maxLen; l++ {
		var ok bool
		if perLength, ok = mulCheck(perLength, base); !ok {
			return fmt.Errorf("%w: %d^%d candidates overflow the search space", domain.ErrInvalidSource, base, l)
		}
		if total, ok = addCheck(total, perLength); !ok {
			return fmt.Errorf("%w: search space overflows at length %d", domain.ErrInvalidSource, l)
		}
		b.counts = append(b.counts, perLength)
	}
	b.indexed.size = total
	return nil
}

func (b *BruteForce) at(i uint64) domain.Candidate {
	for k, count := range b.counts {
		if i < count {
			slots := make([][]string, b.minLen+k)
			for s := range slots {
				slots[s] = b.alphabet
			}
			return odometer(slots, i)
		}
		i -= count
	}
	return nil
}
