package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"trivia-session-service/internal/domain"
)

func TestCurveAwardDecaysLinearly(t *testing.T) {
	limit := 40 * time.Second
	curve := DefaultCurve

	assert.Equal(t, 1000, curve.Award(0, limit))
	assert.Equal(t, 550, curve.Award(20*time.Second, limit))
	assert.Equal(t, 100, curve.Award(limit, limit))
	assert.Equal(t, 100, curve.Award(time.Minute, limit), "clamped at the floor")
	assert.Equal(t, 1000, curve.Award(-time.Second, limit))

	prev := curve.Award(0, limit)
	for ms := 500; ms <= 40000; ms += 500 {
		got := curve.Award(time.Duration(ms)*time.Millisecond, limit)
		if got > prev {
			t.Fatalf("award increased at %dms: %d > %d", ms, got, prev)
		}
		prev = got
	}
}

func TestCurveNormalization(t *testing.T) {
	assert.Equal(t, DefaultCurve, Curve{}.normalized())
	assert.Equal(t, Curve{MaxPoints: 10, MinPoints: 10}, Curve{MaxPoints: 10, MinPoints: 50}.normalized())
	assert.Equal(t, Curve{MaxPoints: 10, MinPoints: 0}, Curve{MaxPoints: 10, MinPoints: -5}.normalized())
	assert.Equal(t, 500, Curve{MaxPoints: 500, MinPoints: 100}.Award(time.Second, 0))
}

func TestNormalizedMatcher(t *testing.T) {
	text := func(accept ...string) domain.Question {
		return domain.Question{Type: domain.QuestionText, Accept: accept}
	}
	cases := []struct {
		name string
		q    domain.Question
		ans  string
		want bool
	}{
		{"case and spaces", text("New  York"), "  new york ", true},
		{"second accepted", text("USA", "United States"), "united states", true},
		{"decimal comma", text("3.14"), "3,14", true},
		{"numeric equality", text("4"), "4.0", true},
		{"wrong", text("Paris"), "Lyon", false},
		{"empty answer", text("0"), "   ", false},
		{"no accepted answers", text(), "x", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizedMatcher.Match(tc.q, domain.Answer{Text: tc.ans}))
		})
	}
}

func TestMatchersOnMultipleChoice(t *testing.T) {
	q := domain.Question{Type: domain.QuestionMCQ, Options: []string{"Red", "Green"}, CorrectIndex: 1}
	one, zero := 1, 0

	assert.True(t, NormalizedMatcher.Match(q, domain.Answer{Choice: &one}))
	assert.False(t, NormalizedMatcher.Match(q, domain.Answer{Choice: &zero, Text: "green"}), "choice wins over text")
	assert.True(t, NormalizedMatcher.Match(q, domain.Answer{Text: " GREEN "}))
	assert.False(t, ExactMatcher.Match(q, domain.Answer{Text: "green"}))
	assert.True(t, ExactMatcher.Match(q, domain.Answer{Text: "Green "}))

	broken := q
	broken.CorrectIndex = 5
	assert.False(t, NormalizedMatcher.Match(broken, domain.Answer{Choice: &one}))
}

func TestMatcherByName(t *testing.T) {
	q := domain.Question{Type: domain.QuestionText, Accept: []string{"Paris"}}
	assert.False(t, MatcherByName("exact").Match(q, domain.Answer{Text: "paris"}))
	assert.True(t, MatcherByName("normalized").Match(q, domain.Answer{Text: "paris"}))
	assert.True(t, MatcherByName("").Match(q, domain.Answer{Text: "paris"}))
}

func TestCardChecks(t *testing.T) {
	robot := domain.Question{Type: domain.QuestionText, Mode: domain.ModeCard, Subtype: "robot_pair_to_target"}
	ladder := domain.Question{Type: domain.QuestionText, Mode: domain.ModeCard, Subtype: "word_ladder_lisa_nora"}
	m := MatcherByName("normalized")

	cases := []struct {
		name string
		q    domain.Question
		ans  string
		want bool
	}{
		{"robot pair", robot, "7 and 11", true},
		{"robot pair swapped", robot, "11*7", true},
		{"robot pair wrong product", robot, "7 12", false},
		{"robot pair negative", robot, "-7 -11", false},
		{"robot pair single number", robot, "77", false},
		{"ladder chain", ladder, "лиса - липа - лира - нора", true},
		{"ladder missing end", ladder, "ЛИСА ЛИПА", false},
		{"ladder empty", ladder, "  ", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, m.Match(tc.q, domain.Answer{Text: tc.ans}))
		})
	}

	plain := domain.Question{Type: domain.QuestionText, Mode: domain.ModeCard, Subtype: "robot_pair", Accept: []string{"no"}}
	assert.True(t, m.Match(plain, domain.Answer{Text: "No"}), "unknown subtypes use the accept list")

	ok, pts := Score(nil, DefaultCurve, robot, &domain.Answer{Text: "1 77"}, 40*time.Second)
	assert.True(t, ok)
	assert.Equal(t, 1000, pts)
}

func TestScore(t *testing.T) {
	q := domain.Question{Type: domain.QuestionText, Accept: []string{"42"}}
	limit := 40 * time.Second

	ok, pts := Score(NormalizedMatcher, DefaultCurve, q, nil, limit)
	assert.False(t, ok)
	assert.Zero(t, pts)

	ok, pts = Score(nil, DefaultCurve, q, &domain.Answer{Text: "42", ElapsedMs: 10000}, limit)
	assert.True(t, ok)
	assert.Equal(t, 775, pts)

	ok, pts = Score(NormalizedMatcher, DefaultCurve, q, &domain.Answer{Text: "41", ElapsedMs: 0}, limit)
	assert.False(t, ok)
	assert.Zero(t, pts)

	always := MatcherFunc(func(domain.Question, domain.Answer) bool { return true })
	ok, pts = Score(always, Curve{MaxPoints: 10, MinPoints: 0}, q, &domain.Answer{ElapsedMs: 40000}, limit)
	assert.True(t, ok)
	assert.Zero(t, pts)
}
