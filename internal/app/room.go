package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"trivia-session-service/internal/domain"
)

const (
	maxNameRunes   = 32
	maxAnswerRunes = 300
)

// RoomOptions are the per-room game rules.
type RoomOptions struct {
	MaxPlayers   int
	MinTimeLimit int // seconds
	MaxTimeLimit int // seconds
	RevealDelay  time.Duration
	Curve        Curve
	Matcher      Matcher
}

type roomDeps struct {
	catalog Catalog
	sched   Scheduler
	now     func() time.Time
	rnd     *rand.Rand
	logger  *slog.Logger
	record  func(domain.RoomReport)
}

// Room is the authoritative state of one game. Every exported method and every timer
// callback runs under mu, so commands against a room never interleave and messages reach
// each client in the order the transitions happened.
type Room struct {
	code        string
	roundsTotal int
	filter      domain.FilterMode
	opts        RoomOptions
	deps        roomDeps

	mu           sync.Mutex
	status       domain.RoomStatus
	currentRound int
	players      []*domain.Player
	byID         map[string]*domain.Player
	playerConn   map[string]string
	connPlayer   map[string]string
	clients      map[string]*Client
	adminConn    string
	question     *domain.Question
	questionOpen bool
	openedAt     time.Time
	timeLimit    int
	answers      map[string]domain.Answer
	used         map[string]struct{}
	history      []domain.AnswerRecord
	timer        roundTimer
	lastActivity time.Time
}

func newRoom(code string, rounds int, filter domain.FilterMode, opts RoomOptions, deps roomDeps) *Room {
	if deps.now == nil {
		deps.now = time.Now
	}
	if deps.sched == nil {
		deps.sched = WallScheduler()
	}
	if deps.rnd == nil {
		deps.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if deps.logger == nil {
		deps.logger = slog.Default()
	}
	if deps.catalog == nil {
		deps.catalog = emptyCatalog{}
	}
	return &Room{
		code:         code,
		roundsTotal:  rounds,
		filter:       filter,
		opts:         opts,
		deps:         deps,
		status:       domain.StatusLobby,
		byID:         make(map[string]*domain.Player),
		playerConn:   make(map[string]string),
		connPlayer:   make(map[string]string),
		clients:      make(map[string]*Client),
		answers:      make(map[string]domain.Answer),
		used:         make(map[string]struct{}),
		timer:        roundTimer{sched: deps.sched},
		lastActivity: deps.now(),
	}
}

// Code is the four-character room code; it never changes.
func (r *Room) Code() string {
	return r.code
}

// Status returns the current lifecycle state.
func (r *Room) Status() domain.RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Room) attachCreator(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adminConn = c.ID
	r.clients[c.ID] = c
	r.sendLocked(c.ID, domain.RoomCreatedMessage{
		Type:           domain.MsgRoomCreated,
		RoomCode:       r.code,
		Rounds:         r.roundsTotal,
		TaskFilterMode: r.filter,
	})
}

// AttachAdmin binds c as the room's admin when no admin connection is present.
func (r *Room) AttachAdmin(c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.adminConn != "" && r.adminConn != c.ID {
		return domain.ErrNotAuthorized
	}
	r.touchLocked()
	r.adminConn = c.ID
	r.clients[c.ID] = c
	r.sendLocked(c.ID, domain.RoomAttachedMessage{
		Type:           domain.MsgRoomAttach,
		RoomCode:       r.code,
		Players:        r.playersLocked(),
		Status:         r.status,
		TaskFilterMode: r.filter,
	})
	return nil
}

// Join adds a player bound to connection c and returns the new player id.
func (r *Room) Join(c *Client, rawName string) (string, error) {
	name := truncateRunes(strings.TrimSpace(rawName), maxNameRunes)

	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" {
		return "", domain.ErrInvalidName
	}
	if r.status != domain.StatusLobby {
		return "", domain.ErrRoomNotJoinable
	}
	if r.opts.MaxPlayers > 0 && len(r.players) >= r.opts.MaxPlayers {
		return "", domain.ErrRoomFull
	}
	if _, ok := r.connPlayer[c.ID]; ok {
		return "", fmt.Errorf("%w: connection already joined", domain.ErrInvalidState)
	}

	r.touchLocked()
	player := &domain.Player{
		ID:        r.newPlayerIDLocked(),
		Name:      name,
		Connected: true,
		JoinedAt:  r.deps.now(),
	}
	r.players = append(r.players, player)
	r.byID[player.ID] = player
	r.playerConn[player.ID] = c.ID
	r.connPlayer[c.ID] = player.ID
	r.clients[c.ID] = c

	snapshot := r.playersLocked()
	r.sendLocked(c.ID, domain.JoinedMessage{
		Type:     domain.MsgJoined,
		RoomCode: r.code,
		PlayerID: player.ID,
		Players:  snapshot,
	})
	r.broadcastLocked(domain.PlayersMessage{Type: domain.MsgPlayers, Players: snapshot})
	r.recordLocked()
	r.deps.logger.Debug("player joined", "room", r.code, "player", player.ID)
	return player.ID, nil
}

// Start moves the room out of the lobby and opens the first question.
func (r *Room) Start(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.adminConn == "" || connID != r.adminConn {
		return domain.ErrNotAuthorized
	}
	if r.status != domain.StatusLobby {
		return domain.ErrInvalidState
	}
	if len(r.players) == 0 {
		return domain.ErrEmptyRoom
	}
	if n := r.deps.catalog.Available(r.used, r.filter); n < r.roundsTotal {
		return fmt.Errorf("%w: %d questions available for %d rounds", domain.ErrInvalidState, n, r.roundsTotal)
	}

	r.touchLocked()
	r.status = domain.StatusInProgress
	r.currentRound = 0
	r.broadcastLocked(domain.GameStartedMessage{Type: domain.MsgGameStarted, Rounds: r.roundsTotal})
	r.deps.logger.Info("game started", "room", r.code, "rounds", r.roundsTotal, "players", len(r.players))
	r.advanceRoundLocked()
	return nil
}

// SubmitAnswer records the first answer of a player for the open round.
func (r *Room) SubmitAnswer(playerID, text string, choice *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.deps.now()
	// A window whose timer never fired is closed here before judging the answer.
	if r.questionOpen && !now.Before(r.deadlineLocked()) {
		r.deps.logger.Warn("closing overdue round", "room", r.code, "round", r.currentRound)
		r.closeRoundLocked()
	}
	if r.status != domain.StatusInProgress || !r.questionOpen {
		return domain.ErrInvalidState
	}
	if _, ok := r.byID[playerID]; !ok {
		return domain.ErrUnknownPlayer
	}
	if _, dup := r.answers[playerID]; dup {
		return domain.ErrDuplicateAnswer
	}

	r.touchLocked()
	elapsed := now.Sub(r.openedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	var picked *int
	if choice != nil {
		v := *choice
		picked = &v
	}
	r.answers[playerID] = domain.Answer{
		PlayerID:    playerID,
		Text:        truncateRunes(text, maxAnswerRunes),
		Choice:      picked,
		SubmittedAt: now,
		ElapsedMs:   elapsed.Milliseconds(),
	}
	if r.allAnsweredLocked() {
		r.closeRoundLocked()
	}
	return nil
}

// End finishes a running game immediately.
func (r *Room) End(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.adminConn == "" || connID != r.adminConn {
		return domain.ErrNotAuthorized
	}
	if r.status != domain.StatusInProgress {
		return domain.ErrInvalidState
	}
	r.touchLocked()
	r.finalizeLocked()
	return nil
}

// Disconnect forgets a connection. Players stay in the room, marked disconnected.
func (r *Room) Disconnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touchLocked()
	delete(r.clients, connID)
	if r.adminConn == connID {
		r.adminConn = ""
	}
	playerID, ok := r.connPlayer[connID]
	if !ok {
		return
	}
	delete(r.connPlayer, connID)
	delete(r.playerConn, playerID)
	if r.status == domain.StatusFinished {
		return
	}
	if p := r.byID[playerID]; p != nil {
		p.Connected = false
	}
	r.broadcastLocked(domain.PlayersMessage{Type: domain.MsgPlayers, Players: r.playersLocked()})
	if r.questionOpen && r.allAnsweredLocked() {
		r.closeRoundLocked()
	}
}

// Report is a read-only snapshot, valid at any status.
func (r *Room) Report() domain.RoomReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reportLocked()
}

// IdleFor reports whether nobody has been connected for at least d.
func (r *Room) IdleFor(now time.Time, d time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients) == 0 && now.Sub(r.lastActivity) >= d
}

// shutdown cancels the pending timer; the room is unusable afterwards.
func (r *Room) shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timer.stop()
	r.questionOpen = false
}

func (r *Room) advanceRoundLocked() {
	if r.status != domain.StatusInProgress {
		return
	}
	if r.currentRound >= r.roundsTotal {
		r.finalizeLocked()
		return
	}
	next := r.currentRound + 1
	q, err := r.deps.catalog.Draw(r.used, r.preferredModeLocked(next), r.filter)
	if err != nil {
		// The catalog can shrink through a reload after start.
		r.deps.logger.Error("draw question", "room", r.code, "round", next, "err", err)
		r.finalizeLocked()
		return
	}

	r.currentRound = next
	r.used[q.ID] = struct{}{}
	limit := q.TimeLimit
	if limit <= 0 {
		limit = r.randomTimeLimitLocked()
	}
	r.question = &q
	r.questionOpen = true
	r.openedAt = r.deps.now()
	r.timeLimit = limit
	r.answers = make(map[string]domain.Answer)

	msg := domain.QuestionMessage{
		Type:        domain.MsgQuestion,
		Round:       r.currentRound,
		TotalRounds: r.roundsTotal,
		QuestionID:  q.ID,
		Category:    q.Category,
		Prompt:      q.Prompt,
		QType:       q.Type,
		Mode:        q.EffectiveMode(),
		Subtype:     q.Subtype,
		TimeLimit:   limit,
	}
	if q.Type == domain.QuestionMCQ {
		msg.Options = append([]string(nil), q.Options...)
	}
	r.broadcastLocked(msg)
	r.timer.arm(time.Duration(limit)*time.Second, r.expireRound)
	r.deps.logger.Debug("question opened", "room", r.code, "round", r.currentRound, "question", q.ID, "limit", limit)
}

func (r *Room) expireRound(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.timer.claim(gen) {
		return
	}
	r.closeRoundLocked()
}

func (r *Room) nextRound(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.timer.claim(gen) {
		return
	}
	r.advanceRoundLocked()
}

// closeRoundLocked is idempotent: only the first call for an open window scores it.
func (r *Room) closeRoundLocked() {
	if !r.questionOpen || r.question == nil {
		return
	}
	r.questionOpen = false
	r.timer.stop()

	q := *r.question
	limit := time.Duration(r.timeLimit) * time.Second
	results := make([]domain.RoundResult, 0, len(r.players))
	for _, p := range r.players {
		var ans *domain.Answer
		if a, ok := r.answers[p.ID]; ok {
			a := a
			ans = &a
		}
		correct, awarded := Score(r.opts.Matcher, r.opts.Curve, q, ans, limit)
		p.Score += awarded

		res := domain.RoundResult{
			PlayerID:  p.ID,
			Name:      p.Name,
			IsCorrect: correct,
			Awarded:   awarded,
			TimeMs:    limit.Milliseconds(),
			Score:     p.Score,
		}
		if ans != nil {
			res.Text = ans.Text
			res.Choice = ans.Choice
			res.TimeMs = ans.ElapsedMs
		}
		results = append(results, res)
		r.history = append(r.history, domain.AnswerRecord{
			Round:      r.currentRound,
			QuestionID: q.ID,
			Category:   q.Category,
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Text:       res.Text,
			Choice:     res.Choice,
			IsCorrect:  correct,
			Awarded:    awarded,
			TimeMs:     res.TimeMs,
		})
	}
	r.question = nil

	reveal := domain.RevealMessage{
		Type:       domain.MsgReveal,
		Round:      r.currentRound,
		QuestionID: q.ID,
		Category:   q.Category,
		Prompt:     q.Prompt,
		QType:      q.Type,
		Correct:    q.CorrectText(),
		Results:    results,
		Scores:     r.playersLocked(),
	}
	if q.Type == domain.QuestionMCQ {
		idx := q.CorrectIndex
		reveal.Options = q.Options
		reveal.CorrectIndex = &idx
	} else {
		reveal.Accepted = q.Accept
	}
	r.broadcastLocked(reveal)
	r.recordLocked()
	r.deps.logger.Debug("round closed", "room", r.code, "round", r.currentRound, "answers", len(r.answers))

	r.timer.arm(r.opts.RevealDelay, r.nextRound)
}

func (r *Room) finalizeLocked() {
	if r.status == domain.StatusFinished {
		return
	}
	r.timer.stop()
	r.questionOpen = false
	r.question = nil
	r.status = domain.StatusFinished
	r.broadcastLocked(domain.FinalMessage{Type: domain.MsgFinal, Scores: r.rankedLocked()})
	r.recordLocked()
	r.deps.logger.Info("game finished", "room", r.code, "rounds_played", r.currentRound)
}

func (r *Room) deadlineLocked() time.Time {
	return r.openedAt.Add(time.Duration(r.timeLimit) * time.Second)
}

// allAnsweredLocked ignores disconnected players but needs at least one connected one.
func (r *Room) allAnsweredLocked() bool {
	connected := 0
	for _, p := range r.players {
		if !p.Connected {
			continue
		}
		connected++
		if _, ok := r.answers[p.ID]; !ok {
			return false
		}
	}
	return connected > 0
}

func (r *Room) preferredModeLocked(round int) string {
	switch r.filter {
	case domain.FilterCardsOnly:
		return domain.ModeCard
	case domain.FilterNoCards:
		return domain.ModeBase
	}
	if round%3 == 0 && r.deps.catalog.HasMode(domain.ModeCard, r.filter) {
		return domain.ModeCard
	}
	return domain.ModeBase
}

func (r *Room) randomTimeLimitLocked() int {
	lo, hi := r.opts.MinTimeLimit, r.opts.MaxTimeLimit
	if lo <= 0 {
		lo = 40
	}
	if hi < lo {
		hi = lo
	}
	return lo + r.deps.rnd.Intn(hi-lo+1)
}

func (r *Room) newPlayerIDLocked() string {
	for {
		id := "p_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		if _, taken := r.byID[id]; !taken {
			return id
		}
	}
}

func (r *Room) touchLocked() {
	r.lastActivity = r.deps.now()
}

func (r *Room) sendLocked(connID string, msg domain.Message) {
	c, ok := r.clients[connID]
	if !ok {
		return
	}
	if !c.Deliver(msg) {
		delete(r.clients, connID)
	}
}

func (r *Room) broadcastLocked(msg domain.Message) {
	for id, c := range r.clients {
		if !c.Deliver(msg) {
			r.deps.logger.Warn("dropping slow client", "room", r.code, "conn", id)
			delete(r.clients, id)
		}
	}
}

func (r *Room) recordLocked() {
	if r.deps.record != nil {
		r.deps.record(r.reportLocked())
	}
}

// playersLocked lists players in join order.
func (r *Room) playersLocked() []domain.PlayerView {
	out := make([]domain.PlayerView, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, domain.PlayerView{
			PlayerID:  p.ID,
			Name:      p.Name,
			Score:     p.Score,
			Connected: p.Connected,
		})
	}
	return out
}

// rankedLocked sorts by score descending; the stable sort keeps join order on ties.
func (r *Room) rankedLocked() []domain.PlayerView {
	out := r.playersLocked()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func (r *Room) reportLocked() domain.RoomReport {
	return domain.RoomReport{
		RoomCode:     r.code,
		Rounds:       r.roundsTotal,
		CurrentRound: r.currentRound,
		Status:       r.status,
		Players:      r.rankedLocked(),
		Answers:      append([]domain.AnswerRecord(nil), r.history...),
		UpdatedAt:    r.deps.now(),
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// NewRoom returns a lobby room with default options and no question source, for
// RoomRepository implementations that only need a value to hold. Players can join it,
// but Start fails with ErrInvalidState because no question is available.
func NewRoom(code string, rounds int) *Room {
	return newRoom(code, rounds, domain.FilterAll, RoomOptions{}, roomDeps{})
}

type emptyCatalog struct{}

func (emptyCatalog) Draw(map[string]struct{}, string, domain.FilterMode) (domain.Question, error) {
	return domain.Question{}, domain.ErrQuestionNotFound
}

func (emptyCatalog) Available(map[string]struct{}, domain.FilterMode) int { return 0 }

func (emptyCatalog) HasMode(string, domain.FilterMode) bool { return false }

func (emptyCatalog) Counts() domain.CatalogCounts { return domain.CatalogCounts{} }

func (emptyCatalog) Reload(context.Context) (domain.CatalogCounts, error) {
	return domain.CatalogCounts{}, nil
}
