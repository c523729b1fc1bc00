// Package tempo parses tempo notation and paces repetitions through their phases.
package tempo

import (
	"strconv"
	"strings"
	"unicode"

	"setpace/internal/core/model"
)

// Parse reads a tempo such as "3-1-2-0" or "3120". It never fails: an
// unreadable field in the dash form takes that field's default, and any other
// malformed input yields model.DefaultTempoSpec.
func Parse(text string) model.TempoSpec {
	compact := stripSpace(text)

	if strings.Contains(compact, "-") {
		parts := strings.Split(compact, "-")
		if len(parts) == 4 {
			defaults := model.DefaultTempoSpec
			return model.TempoSpec{
				Eccentric:   field(parts[0], defaults.Eccentric),
				BottomPause: field(parts[1], defaults.BottomPause),
				Concentric:  field(parts[2], defaults.Concentric),
				TopPause:    field(parts[3], defaults.TopPause),
			}
		}
	}

	if len(compact) == 4 && isDigits(compact) {
		return model.TempoSpec{
			Eccentric:   int(compact[0] - '0'),
			BottomPause: int(compact[1] - '0'),
			Concentric:  int(compact[2] - '0'),
			TopPause:    int(compact[3] - '0'),
		}
	}

	return model.DefaultTempoSpec
}

// Valid reports whether text reads without falling back to any default.
func Valid(text string) bool {
	compact := stripSpace(text)
	if strings.Contains(compact, "-") {
		parts := strings.Split(compact, "-")
		if len(parts) != 4 {
			return false
		}
		for _, part := range parts {
			if value, err := strconv.Atoi(part); err != nil || value < 0 {
				return false
			}
		}
		return true
	}
	return len(compact) == 4 && isDigits(compact)
}

// TimeUnderTension returns the seconds one rep keeps the muscle loaded.
func TimeUnderTension(spec model.TempoSpec) int {
	return spec.TimeUnderTension()
}

// SetTimeUnderTension returns the seconds under tension for a whole set.
func SetTimeUnderTension(spec model.TempoSpec, reps int) int {
	if reps < 0 {
		reps = 0
	}
	return spec.TimeUnderTension() * reps
}

// TimeUnderTensionOf parses text and returns its per-rep time under tension.
func TimeUnderTensionOf(text string) int {
	return TimeUnderTension(Parse(text))
}

// SetTimeUnderTensionOf parses text and returns the per-set time under tension.
func SetTimeUnderTensionOf(text string, reps int) int {
	return SetTimeUnderTension(Parse(text), reps)
}

func stripSpace(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
}

func field(part string, fallback int) int {
	value, err := strconv.Atoi(part)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func isDigits(text string) bool {
	for i := 0; i < len(text); i++ {
		if text[i] < '0' || text[i] > '9' {
			return false
		}
	}
	return true
}
