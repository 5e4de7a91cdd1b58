package app

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"trivia-session-service/internal/domain"
)

// Curve is the linear decay used for correct answers: MaxPoints at zero elapsed time,
// MinPoints when the time limit is reached.
type Curve struct {
	MaxPoints int
	MinPoints int
}

// DefaultCurve is used when the configured curve is unusable.
var DefaultCurve = Curve{MaxPoints: 1000, MinPoints: 100}

func (c Curve) normalized() Curve {
	if c.MaxPoints <= 0 {
		return DefaultCurve
	}
	if c.MinPoints < 0 {
		c.MinPoints = 0
	}
	if c.MinPoints > c.MaxPoints {
		c.MinPoints = c.MaxPoints
	}
	return c
}

// Award returns the points for a correct answer given after elapsed out of limit.
func (c Curve) Award(elapsed, limit time.Duration) int {
	c = c.normalized()
	if limit <= 0 {
		return c.MaxPoints
	}
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > limit {
		elapsed = limit
	}
	span := int64(c.MaxPoints - c.MinPoints)
	lost := span * int64(elapsed) / int64(limit)
	return c.MaxPoints - int(lost)
}

// Matcher decides whether an answer is correct for a question.
type Matcher interface {
	Match(q domain.Question, a domain.Answer) bool
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(q domain.Question, a domain.Answer) bool

func (f MatcherFunc) Match(q domain.Question, a domain.Answer) bool { return f(q, a) }

// NormalizedMatcher compares case and whitespace insensitively, with a numeric fallback.
var NormalizedMatcher Matcher = MatcherFunc(matchNormalized)

// ExactMatcher requires the trimmed text to equal an accepted answer.
var ExactMatcher Matcher = MatcherFunc(func(q domain.Question, a domain.Answer) bool {
	if q.Type == domain.QuestionMCQ {
		return matchChoice(q, a, strings.TrimSpace)
	}
	text := strings.TrimSpace(a.Text)
	for _, accepted := range q.Accept {
		if strings.TrimSpace(accepted) == text {
			return true
		}
	}
	return false
})

// MatcherByName resolves the configured matcher; unknown names get NormalizedMatcher.
// Either way card questions with a known subtype are judged by their own check.
func MatcherByName(name string) Matcher {
	if name == "exact" {
		return WithCardChecks(ExactMatcher)
	}
	return WithCardChecks(NormalizedMatcher)
}

// CardChecks holds the answer checks of card subtypes that have no accept list.
var CardChecks = map[string]MatcherFunc{
	"robot_pair_to_target":  matchRobotPair,
	"word_ladder_lisa_nora": matchWordLadder,
}

// WithCardChecks routes card questions with a subtype in CardChecks to that check and
// everything else to m.
func WithCardChecks(m Matcher) Matcher {
	return MatcherFunc(func(q domain.Question, a domain.Answer) bool {
		if q.EffectiveMode() == domain.ModeCard {
			if check, ok := CardChecks[q.Subtype]; ok {
				return check(q, a)
			}
		}
		return m.Match(q, a)
	})
}

var integers = regexp.MustCompile(`-?\d+`)

// matchRobotPair wants two positive integers a and b with a*b-5 == 72.
func matchRobotPair(_ domain.Question, a domain.Answer) bool {
	nums := integers.FindAllString(a.Text, 2)
	if len(nums) < 2 {
		return false
	}
	x, err := strconv.Atoi(nums[0])
	if err != nil || x <= 0 {
		return false
	}
	y, err := strconv.Atoi(nums[1])
	if err != nil || y <= 0 {
		return false
	}
	return x*y-5 == 72
}

// matchWordLadder wants a chain that mentions both ends, ЛИСА and НОРА.
func matchWordLadder(_ domain.Question, a domain.Answer) bool {
	u := strings.ToUpper(strings.TrimSpace(a.Text))
	return strings.Contains(u, "ЛИСА") && strings.Contains(u, "НОРА")
}

var spaces = regexp.MustCompile(`\s+`)

func normalizeAnswer(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	s = spaces.ReplaceAllString(s, " ")
	return strings.ToLower(s)
}

func matchNormalized(q domain.Question, a domain.Answer) bool {
	if q.Type == domain.QuestionMCQ {
		return matchChoice(q, a, normalizeAnswer)
	}
	if len(q.Accept) == 0 {
		return false
	}
	given := normalizeAnswer(a.Text)
	if given == "" {
		return false
	}
	for _, accepted := range q.Accept {
		if normalizeAnswer(accepted) == given {
			return true
		}
	}
	want, err := strconv.ParseFloat(normalizeAnswer(q.Accept[0]), 64)
	if err != nil {
		return false
	}
	got, err := strconv.ParseFloat(given, 64)
	if err != nil {
		return false
	}
	return got == want
}

// matchChoice accepts either the option index or the option text.
func matchChoice(q domain.Question, a domain.Answer, norm func(string) string) bool {
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return false
	}
	if a.Choice != nil {
		return *a.Choice == q.CorrectIndex
	}
	given := norm(a.Text)
	return given != "" && given == norm(q.Options[q.CorrectIndex])
}

// Score is the pure scoring function: a nil answer means the player never answered.
func Score(m Matcher, curve Curve, q domain.Question, a *domain.Answer, limit time.Duration) (bool, int) {
	if a == nil {
		return false, 0
	}
	if m == nil {
		m = WithCardChecks(NormalizedMatcher)
	}
	if !m.Match(q, *a) {
		return false, 0
	}
	return true, curve.Award(time.Duration(a.ElapsedMs)*time.Millisecond, limit)
}
