package algorithm

import (
	"fmt"
	"passwordCrackerEngine/internal/core/domain"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// maxGroupRepeat bounds {n}. Every group charset has at least ten symbols,
// so any longer run already overflows a uint64 search space.
const maxGroupRepeat = 64

var (
	maskSlots = map[byte][]string{
		'l': symbols(domain.CharsetLower),
		'u': symbols(domain.CharsetUpper),
		'd': symbols(domain.CharsetDigits),
		's': symbols(domain.CharsetSpecial),
		'a': symbols(domain.CharsetAll),
	}
	literalQuestion = []string{"?"}

	// [lower]{1}[digits]{3} shorthand
	groupPattern = regexp.MustCompile(`\[([a-z]+)\]\{(\d+)\}`)
	groupSymbols = map[string]string{
		"lower":   "?l",
		"upper":   "?u",
		"digits":  "?d",
		"special": "?s",
		"all":     "?a",
	}
)

// Mask expands a query such as "?u?l?l?d" or "pin-[digits]{4}" into every
// matching candidate.
type Mask struct {
	indexed
	slots [][]string
}

func NewMask(spec domain.SourceSpec) (*Mask, error) {
	if spec.Query == nil || spec.Query.Mask == "" {
		return nil, fmt.Errorf("%w: query source without a mask", domain.ErrInvalidSource)
	}
	expanded, err := expandMaskPattern(spec.Query.Mask)
	if err != nil {
		return nil, err
	}
	slots, size, err := parseMask(expanded)
	if err != nil {
		return nil, fmt.Errorf("mask %q: %w", spec.Query.Mask, err)
	}

	m := &Mask{slots: slots}
	m.indexed = indexed{
		spec: spec,
		size: size,
		at: func(i uint64) domain.Candidate {
			return odometer(m.slots, i)
		},
	}
	return m, nil
}

func expandMaskPattern(pattern string) (string, error) {
	var badGroup error
	out := groupPattern.ReplaceAllStringFunc(pattern, func(group string) string {
		match := groupPattern.FindStringSubmatch(group)
		symbol, ok := groupSymbols[match[1]]
		if !ok {
			badGroup = fmt.Errorf("%w: unknown charset group %q", domain.ErrInvalidSource, match[1])
			return group
		}
		count, err := strconv.Atoi(match[2])
		if err != nil || count > maxGroupRepeat {
			badGroup = fmt.Errorf("%w: repeat count in %q must be at most %d", domain.ErrInvalidSource, group, maxGroupRepeat)
			return group
		}
		return strings.Repeat(symbol, count)
	})
	return out, badGroup
}

// parseMask splits mask into slots and sizes the space as it goes, so an
// oversized mask is rejected before it is fully built.
func parseMask(mask string) ([][]string, uint64, error) {
	var slots [][]string
	size := uint64(1)
	add := func(slot []string) error {
		var ok bool
		if size, ok = mulCheck(size, uint64(len(slot))); !ok {
			return fmt.Errorf("%w: mask overflows the search space", domain.ErrInvalidSource)
		}
		slots = append(slots, slot)
		return nil
	}

	for i := 0; i < len(mask); {
		var slot []string
		width := 2
		switch {
		case mask[i] == '?' && i+1 >= len(mask):
			return nil, 0, fmt.Errorf("%w: dangling '?' at end of mask", domain.ErrInvalidSource)
		case mask[i] == '?' && mask[i+1] == '?':
			slot = literalQuestion
		case mask[i] == '?':
			var ok bool
			if slot, ok = maskSlots[mask[i+1]]; !ok {
				return nil, 0, fmt.Errorf("%w: unknown mask symbol ?%c", domain.ErrInvalidSource, mask[i+1])
			}
		default:
			var r rune
			r, width = utf8.DecodeRuneInString(mask[i:])
			if r == utf8.RuneError && width <= 1 {
				return nil, 0, fmt.Errorf("%w: mask is not valid UTF-8", domain.ErrInvalidSource)
			}
			slot = []string{mask[i : i+width]}
		}
		if err := add(slot); err != nil {
			return nil, 0, err
		}
		i += width
	}
	if len(slots) == 0 {
		return nil, 0, fmt.Errorf("%w: empty mask", domain.ErrInvalidSource)
	}
	return slots, size, nil
}
