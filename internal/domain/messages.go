package domain

// Outbound message types.
const (
	MsgError       = "error"
	MsgJoined      = "joined"
	MsgPlayers     = "players"
	MsgRoomCreated = "room_created"
	MsgRoomAttach  = "room_attached"
	MsgGameStarted = "game_started"
	MsgQuestion    = "question"
	MsgReveal      = "reveal"
	MsgFinal       = "final"
)

// Message is any value sent to a client; every implementation carries a "type" field.
type Message interface {
	MessageType() string
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (m ErrorMessage) MessageType() string { return m.Type }

func NewErrorMessage(text string) ErrorMessage {
	return ErrorMessage{Type: MsgError, Message: text}
}

type JoinedMessage struct {
	Type     string       `json:"type"`
	RoomCode string       `json:"roomCode"`
	PlayerID string       `json:"playerId"`
	Players  []PlayerView `json:"players"`
}

func (m JoinedMessage) MessageType() string { return m.Type }

type PlayersMessage struct {
	Type    string       `json:"type"`
	Players []PlayerView `json:"players"`
}

func (m PlayersMessage) MessageType() string { return m.Type }

type RoomCreatedMessage struct {
	Type           string     `json:"type"`
	RoomCode       string     `json:"roomCode"`
	Rounds         int        `json:"rounds"`
	TaskFilterMode FilterMode `json:"taskFilterMode"`
}

func (m RoomCreatedMessage) MessageType() string { return m.Type }

type RoomAttachedMessage struct {
	Type           string       `json:"type"`
	RoomCode       string       `json:"roomCode"`
	Players        []PlayerView `json:"players"`
	Status         RoomStatus   `json:"status"`
	TaskFilterMode FilterMode   `json:"taskFilterMode"`
}

func (m RoomAttachedMessage) MessageType() string { return m.Type }

type GameStartedMessage struct {
	Type   string `json:"type"`
	Rounds int    `json:"rounds"`
}

func (m GameStartedMessage) MessageType() string { return m.Type }

// QuestionMessage never carries the correct answer.
type QuestionMessage struct {
	Type        string       `json:"type"`
	Round       int          `json:"round"`
	TotalRounds int          `json:"totalRounds"`
	QuestionID  string       `json:"questionId"`
	Category    string       `json:"category"`
	Prompt      string       `json:"prompt"`
	QType       QuestionType `json:"qtype"`
	Mode        string       `json:"mode"`
	Subtype     string       `json:"subtype,omitempty"`
	Options     []string     `json:"options,omitempty"`
	TimeLimit   int          `json:"timeLimit"`
}

func (m QuestionMessage) MessageType() string { return m.Type }

type RevealMessage struct {
	Type         string        `json:"type"`
	Round        int           `json:"round"`
	QuestionID   string        `json:"questionId"`
	Category     string        `json:"category"`
	Prompt       string        `json:"prompt"`
	QType        QuestionType  `json:"qtype"`
	Correct      string        `json:"correct"`
	Accepted     []string      `json:"accepted,omitempty"`
	Options      []string      `json:"options,omitempty"`
	CorrectIndex *int          `json:"correctIndex,omitempty"`
	Results      []RoundResult `json:"results"`
	Scores       []PlayerView  `json:"scores"`
}

func (m RevealMessage) MessageType() string { return m.Type }

type FinalMessage struct {
	Type   string       `json:"type"`
	Scores []PlayerView `json:"scores"`
}

func (m FinalMessage) MessageType() string { return m.Type }
