package http

import (
	"encoding/json"
	"errors"
	"fmt"

	"trivia-session-service/internal/domain"
)

// Inbound message types.
const (
	cmdJoin       = "join"
	cmdAnswer     = "answer"
	cmdCreateRoom = "admin_create_room"
	cmdAttach     = "admin_attach"
	cmdStart      = "admin_start"
	cmdEnd        = "admin_end"
)

var errMalformed = errors.New("malformed message")

// command is the closed set of client requests; parseCommand is the only constructor.
type command interface {
	commandType() string
}

type joinCommand struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type answerCommand struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
	Text     string `json:"text"`
	Choice   *int   `json:"choice"`
}

type createRoomCommand struct {
	PreferredCode  string `json:"preferredCode"`
	Rounds         int    `json:"rounds"`
	TaskFilterMode string `json:"taskFilterMode"`
}

type attachCommand struct {
	RoomCode string `json:"roomCode"`
}

type startCommand struct {
	RoomCode string `json:"roomCode"`
}

type endCommand struct {
	RoomCode string `json:"roomCode"`
}

func (joinCommand) commandType() string       { return cmdJoin }
func (answerCommand) commandType() string     { return cmdAnswer }
func (createRoomCommand) commandType() string { return cmdCreateRoom }
func (attachCommand) commandType() string     { return cmdAttach }
func (startCommand) commandType() string      { return cmdStart }
func (endCommand) commandType() string        { return cmdEnd }

func parseCommand(data []byte) (command, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, errMalformed
	}

	switch head.Type {
	case cmdJoin:
		var c joinCommand
		if err := decode(data, &c); err != nil {
			return nil, err
		}
		c.RoomCode = domain.NormalizeCode(c.RoomCode)
		return withCode(c, c.RoomCode)
	case cmdAnswer:
		var c answerCommand
		if err := decode(data, &c); err != nil {
			return nil, err
		}
		c.RoomCode = domain.NormalizeCode(c.RoomCode)
		if c.PlayerID == "" {
			return nil, fmt.Errorf("%w: playerId is required", errMalformed)
		}
		return withCode(c, c.RoomCode)
	case cmdCreateRoom:
		var c createRoomCommand
		if err := decode(data, &c); err != nil {
			return nil, err
		}
		c.PreferredCode = domain.NormalizeCode(c.PreferredCode)
		return c, nil
	case cmdAttach:
		var c attachCommand
		if err := decode(data, &c); err != nil {
			return nil, err
		}
		c.RoomCode = domain.NormalizeCode(c.RoomCode)
		return withCode(c, c.RoomCode)
	case cmdStart:
		var c startCommand
		if err := decode(data, &c); err != nil {
			return nil, err
		}
		c.RoomCode = domain.NormalizeCode(c.RoomCode)
		return withCode(c, c.RoomCode)
	case cmdEnd:
		var c endCommand
		if err := decode(data, &c); err != nil {
			return nil, err
		}
		c.RoomCode = domain.NormalizeCode(c.RoomCode)
		return withCode(c, c.RoomCode)
	default:
		return nil, fmt.Errorf("unsupported message type %q", head.Type)
	}
}

func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	return nil
}

func withCode(c command, code string) (command, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: roomCode is required", errMalformed)
	}
	return c, nil
}
