package app_test

import (
	"bytes"
	"testing"

	"trivia-session-service/internal/app"
	"trivia-session-service/internal/domain"
)

func TestWritePlayerCSV(t *testing.T) {
	choice := 2
	report := domain.RoomReport{
		RoomCode: "ABCD",
		Answers: []domain.AnswerRecord{
			{Round: 1, QuestionID: "q1", Category: "geo", PlayerID: "p_1", Text: "Paris, France", IsCorrect: true, Awarded: 820, TimeMs: 8000},
			{Round: 2, QuestionID: "q7", Category: "math", PlayerID: "p_1", Choice: &choice, Awarded: 0, TimeMs: 40000},
		},
	}

	var buf bytes.Buffer
	if err := app.WritePlayerCSV(&buf, report); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "round,questionId,category,answerText,answerChoice,isCorrect,awarded,timeMs\n" +
		"1,q1,geo,\"Paris, France\",,true,820,8000\n" +
		"2,q7,math,,2,false,0,40000\n"
	if buf.String() != want {
		t.Fatalf("unexpected csv:\n%s", buf.String())
	}
}

func TestWriteRoomCSV(t *testing.T) {
	report := domain.RoomReport{
		Players: []domain.PlayerView{
			{PlayerID: "p_1", Name: "Alice", Score: 1600},
			{PlayerID: "p_2", Name: "Bob", Score: 0},
		},
	}
	var buf bytes.Buffer
	if err := app.WriteRoomCSV(&buf, report); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "playerId,name,score\np_1,Alice,1600\np_2,Bob,0\n"
	if buf.String() != want {
		t.Fatalf("unexpected csv:\n%s", buf.String())
	}
}
