package intent

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrUnsafePattern is returned for rule patterns that fail the safety checks
var ErrUnsafePattern = errors.New("unsafe pattern")

const (
	maxPatternLength   = 1000
	maxAlternations    = 100
	maxQuantifierBound = 1000
)

var (
	nestedQuantifierPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\([^)]*[+*]\)[+*]`),
		regexp.MustCompile(`\([^)]*\{[^}]+\}\)[+*]`),
	}
	boundedQuantifier = regexp.MustCompile(`\{(\d+)(?:,(\d+))?\}`)
)

// ValidatePattern rejects patterns that are oversized or prone to
// catastrophic backtracking in engines other than RE2
func ValidatePattern(pattern string) error {
	if len(pattern) > maxPatternLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrUnsafePattern, maxPatternLength)
	}

	for _, np := range nestedQuantifierPatterns {
		if np.MatchString(pattern) {
			return fmt.Errorf("%w: contains nested quantifiers", ErrUnsafePattern)
		}
	}

	if n := countAlternations(pattern); n > maxAlternations {
		return fmt.Errorf("%w: %d alternation branches exceed %d", ErrUnsafePattern, n, maxAlternations)
	}

	for _, m := range boundedQuantifier.FindAllStringSubmatch(pattern, -1) {
		for _, bound := range m[1:] {
			if bound == "" {
				continue
			}
			if n, err := strconv.Atoi(bound); err != nil || n > maxQuantifierBound {
				return fmt.Errorf("%w: repetition bound %s exceeds %d", ErrUnsafePattern, bound, maxQuantifierBound)
			}
		}
	}

	return nil
}

// countAlternations counts top-level alternation branches
func countAlternations(pattern string) int {
	count := 1
	depth := 0
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '(':
			depth++
		case ')':
			depth--
		case '|':
			if depth == 0 {
				count++
			}
		case '\\':
			i++
		}
	}
	return count
}
