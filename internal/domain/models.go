package domain

import (
	"strings"
	"time"
)

// RoomStatus is the coarse lifecycle state of a room.
type RoomStatus string

const (
	StatusLobby      RoomStatus = "lobby"
	StatusInProgress RoomStatus = "in_progress"
	StatusFinished   RoomStatus = "finished"
)

// QuestionType tells how an answer is matched.
type QuestionType string

const (
	QuestionText QuestionType = "text"
	QuestionMCQ  QuestionType = "mcq"
)

const (
	ModeBase = "base"
	ModeCard = "card"
)

// FilterMode restricts which question modes a room draws from.
type FilterMode string

const (
	FilterAll       FilterMode = "all"
	FilterCardsOnly FilterMode = "cards_only"
	FilterNoCards   FilterMode = "no_cards"
)

// ParseFilterMode falls back to FilterAll for unknown values.
func ParseFilterMode(raw string) FilterMode {
	switch FilterMode(raw) {
	case FilterCardsOnly, FilterNoCards:
		return FilterMode(raw)
	default:
		return FilterAll
	}
}

// Allows reports whether a question mode passes the filter.
func (f FilterMode) Allows(mode string) bool {
	switch f {
	case FilterCardsOnly:
		return mode == ModeCard
	case FilterNoCards:
		return mode != ModeCard
	default:
		return true
	}
}

// Question is a catalog record. Rooms hold their own copy while a round runs.
type Question struct {
	ID           string       `json:"id" yaml:"id"`
	Category     string       `json:"category" yaml:"category"`
	Type         QuestionType `json:"type" yaml:"type"`
	Prompt       string       `json:"prompt" yaml:"prompt"`
	Options      []string     `json:"options,omitempty" yaml:"options,omitempty"`
	CorrectIndex int          `json:"correctIndex" yaml:"correctIndex"`
	Accept       []string     `json:"accept,omitempty" yaml:"accept,omitempty"`
	Mode         string       `json:"mode" yaml:"mode"`
	Subtype      string       `json:"subtype,omitempty" yaml:"subtype,omitempty"`
	Difficulty   string       `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	TimeLimit    int          `json:"timeRef,omitempty" yaml:"timeRef,omitempty"` // seconds, 0 = pick from range
	Tags         []string     `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Clone returns a deep copy so catalog reloads never touch a drawn question.
func (q Question) Clone() Question {
	c := q
	c.Options = append([]string(nil), q.Options...)
	c.Accept = append([]string(nil), q.Accept...)
	c.Tags = append([]string(nil), q.Tags...)
	return c
}

// CorrectText is the human readable answer revealed after a round.
func (q Question) CorrectText() string {
	if q.Type == QuestionMCQ {
		if q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Options) {
			return q.Options[q.CorrectIndex]
		}
		return ""
	}
	if len(q.Accept) > 0 {
		return q.Accept[0]
	}
	return ""
}

// EffectiveMode defaults an empty mode to ModeBase.
func (q Question) EffectiveMode() string {
	if q.Mode == "" {
		return ModeBase
	}
	return q.Mode
}

// CatalogCounts summarizes the question bank per category.
type CatalogCounts struct {
	Total      int            `json:"total"`
	Categories map[string]int `json:"categories"`
}

// Player is a room participant and their accumulated score.
type Player struct {
	ID        string
	Name      string
	Score     int
	Connected bool
	JoinedAt  time.Time
}

// PlayerView is the wire snapshot of a player.
type PlayerView struct {
	PlayerID  string `json:"playerId"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Connected bool   `json:"connected"`
}

// Answer is a single submission within a round.
type Answer struct {
	PlayerID    string
	Text        string
	Choice      *int
	SubmittedAt time.Time
	ElapsedMs   int64
}

// RoundResult is one player's outcome in a closed round.
type RoundResult struct {
	PlayerID  string `json:"playerId"`
	Name      string `json:"name"`
	Text      string `json:"text"`
	Choice    *int   `json:"choice"`
	IsCorrect bool   `json:"isCorrect"`
	Awarded   int    `json:"awarded"`
	TimeMs    int64  `json:"timeMs"`
	Score     int    `json:"score"`
}

// AnswerRecord is a persisted round result used by reports and exports.
type AnswerRecord struct {
	Round      int    `json:"round"`
	QuestionID string `json:"questionId"`
	Category   string `json:"category"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Text       string `json:"text"`
	Choice     *int   `json:"choice"`
	IsCorrect  bool   `json:"isCorrect"`
	Awarded    int    `json:"awarded"`
	TimeMs     int64  `json:"timeMs"`
}

// RoomReport is the read-only summary of a room at any status.
type RoomReport struct {
	RoomCode     string         `json:"roomCode"`
	Rounds       int            `json:"rounds"`
	CurrentRound int            `json:"currentRound"`
	Status       RoomStatus     `json:"status"`
	Players      []PlayerView   `json:"players"`
	Answers      []AnswerRecord `json:"answers"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// ForPlayer narrows a report to a single player. The bool is false when the player is unknown.
func (r RoomReport) ForPlayer(playerID string) (RoomReport, bool) {
	out := r
	out.Players = nil
	out.Answers = nil
	for _, p := range r.Players {
		if p.PlayerID == playerID {
			out.Players = append(out.Players, p)
		}
	}
	if len(out.Players) == 0 {
		return out, false
	}
	for _, a := range r.Answers {
		if a.PlayerID == playerID {
			out.Answers = append(out.Answers, a)
		}
	}
	return out, true
}

// NormalizeCode trims and uppercases a room code received from clients.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
