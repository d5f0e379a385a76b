package pattern

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Separator delimits steps in a pattern string.
const Separator = ":"

// Parse converts "d1:d2:...:dn" (milliseconds) into step durations.
//
// An empty or blank string yields zero steps. Any token that is not a
// non-negative decimal integer, including an empty token, rejects the whole
// pattern with ErrInvalidPattern and zero steps.
func Parse(s string) ([]time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	tokens := strings.Split(s, Separator)
	steps := make([]time.Duration, 0, len(tokens))
	for i, tok := range tokens {
		ms, err := strconv.ParseUint(strings.TrimSpace(tok), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: token %d %q", ErrInvalidPattern, i+1, tok)
		}
		steps = append(steps, time.Duration(ms)*time.Millisecond)
	}
	return steps, nil
}

// Format renders steps back into pattern syntax.
func Format(steps []time.Duration) string {
	parts := make([]string, len(steps))
	for i, d := range steps {
		parts[i] = strconv.FormatInt(d.Milliseconds(), 10)
	}
	return strings.Join(parts, Separator)
}

// Total returns the summed duration of all steps.
func Total(steps []time.Duration) time.Duration {
	var sum time.Duration
	for _, d := range steps {
		sum += d
	}
	return sum
}
