package http

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	cmd, err := parseCommand([]byte(`{"type":"join","roomCode":" abcd ","playerName":"Alice"}`))
	require.NoError(t, err)
	assert.Equal(t, joinCommand{RoomCode: "ABCD", PlayerName: "Alice"}, cmd)

	cmd, err = parseCommand([]byte(`{"type":"answer","roomCode":"abcd","playerId":"p_1","choice":2}`))
	require.NoError(t, err)
	answer := cmd.(answerCommand)
	require.NotNil(t, answer.Choice)
	assert.Equal(t, 2, *answer.Choice)
	assert.Equal(t, "ABCD", answer.RoomCode)

	cmd, err = parseCommand([]byte(`{"type":"admin_create_room","preferredCode":"wxyz","rounds":3,"taskFilterMode":"cards_only"}`))
	require.NoError(t, err)
	assert.Equal(t, createRoomCommand{PreferredCode: "WXYZ", Rounds: 3, TaskFilterMode: "cards_only"}, cmd)

	for _, typ := range []string{cmdAttach, cmdStart, cmdEnd} {
		cmd, err = parseCommand([]byte(`{"type":"` + typ + `","roomCode":"abcd"}`))
		require.NoError(t, err)
		assert.Equal(t, typ, cmd.commandType())
	}
}

func TestParseCommandRejects(t *testing.T) {
	cases := map[string]string{
		"not json":         `{`,
		"missing code":     `{"type":"admin_start"}`,
		"missing player":   `{"type":"answer","roomCode":"ABCD","text":"x"}`,
		"wrong field type": `{"type":"admin_create_room","rounds":"three"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			cmd, err := parseCommand([]byte(raw))
			assert.Nil(t, cmd)
			assert.True(t, errors.Is(err, errMalformed), "got %v", err)
		})
	}

	_, err := parseCommand([]byte(`{"type":"shutdown"}`))
	require.EqualError(t, err, `unsupported message type "shutdown"`)
}
