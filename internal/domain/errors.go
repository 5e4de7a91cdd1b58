package domain

import "errors"

var (
	// ErrRoomNotFound is returned when no live room matches the code.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomNotJoinable is returned when a room has already left the lobby.
	ErrRoomNotJoinable = errors.New("game already in progress")
	// ErrRoomFull is returned when a room reached its player cap.
	ErrRoomFull = errors.New("room is full")
	// ErrInvalidName indicates an empty display name.
	ErrInvalidName = errors.New("player name is required")
	// ErrNotAuthorized is returned when a non-admin connection issues an admin command.
	ErrNotAuthorized = errors.New("not authorized for this room")
	// ErrInvalidState is returned when a command does not fit the room's current state.
	ErrInvalidState = errors.New("invalid room state")
	// ErrEmptyRoom is returned when starting a room without players.
	ErrEmptyRoom = errors.New("no players in room")
	// ErrUnknownPlayer indicates the player id is not part of the room.
	ErrUnknownPlayer = errors.New("player not found in room")
	// ErrDuplicateAnswer is returned for a second answer in the same round.
	ErrDuplicateAnswer = errors.New("answer already submitted for this round")
	// ErrRoomCreationFailed is returned when no free room code could be reserved.
	ErrRoomCreationFailed = errors.New("could not allocate room code")
	// ErrQuestionNotFound indicates the catalog has no question left to draw.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrResultsNotFound indicates no live or stored results exist for a room.
	ErrResultsNotFound = errors.New("results not found")
)
