package application

import "strings"

// Score bounds and weights.
const (
	scoreBase           = 5
	scoreMin            = 5
	scoreMax            = 10
	scoreLongThreshold  = 12
	scorePatternDeficit = 2
)

// DefaultCommonPatterns are the substrings that mark a password as built on a
// well-known phrase or sequence.
var DefaultCommonPatterns = []string{"123456", "password", "qwerty", "iloveyou", "admin"}

// Scorer computes the bounded [5, 10] quality score of a password.
type Scorer struct {
	patterns []string
}

// NewScorer creates a Scorer penalizing the given patterns. Patterns are
// lowercased since they are matched against the lowercased password. A nil
// slice selects DefaultCommonPatterns; an empty non-nil slice disables the
// penalty.
func NewScorer(patterns []string) *Scorer {
	if patterns == nil {
		patterns = DefaultCommonPatterns
	}
	lowered := make([]string, len(patterns))
	for i, p := range patterns {
		lowered[i] = strings.ToLower(p)
	}
	return &Scorer{patterns: lowered}
}

var defaultScorer = NewScorer(nil)

// Score rates password with DefaultCommonPatterns.
func Score(password string) int {
	return defaultScorer.Score(password)
}

// Score rates password: base 5, one point each for length >= 12, lowercase,
// uppercase, digit and special character, minus 2 when the lowercased
// password contains a common pattern, clamped to [5, 10].
//
// Because the floor equals the base, the penalty only shows once at least two
// bonus points were earned.
func (s *Scorer) Score(password string) int {
	score := scoreBase

	if passwordLength(password) >= scoreLongThreshold {
		score++
	}

	classes := detectClasses(password)
	for _, ok := range []bool{classes.lower, classes.upper, classes.digit, classes.special} {
		if ok {
			score++
		}
	}

	if s.hasCommonPattern(password) {
		score -= scorePatternDeficit
	}

	return max(scoreMin, min(score, scoreMax))
}

func (s *Scorer) hasCommonPattern(password string) bool {
	if len(s.patterns) == 0 {
		return false
	}
	lowered := strings.ToLower(password)
	for _, p := range s.patterns {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}
