package app

import (
	"encoding/csv"
	"io"
	"strconv"

	"trivia-session-service/internal/domain"
)

// WritePlayerCSV writes one row per recorded round of a player report.
func WritePlayerCSV(w io.Writer, report domain.RoomReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"round", "questionId", "category", "answerText", "answerChoice", "isCorrect", "awarded", "timeMs"}); err != nil {
		return err
	}
	for _, a := range report.Answers {
		choice := ""
		if a.Choice != nil {
			choice = strconv.Itoa(*a.Choice)
		}
		row := []string{
			strconv.Itoa(a.Round),
			a.QuestionID,
			a.Category,
			a.Text,
			choice,
			strconv.FormatBool(a.IsCorrect),
			strconv.Itoa(a.Awarded),
			strconv.FormatInt(a.TimeMs, 10),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRoomCSV writes the room scoreboard.
func WriteRoomCSV(w io.Writer, report domain.RoomReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"playerId", "name", "score"}); err != nil {
		return err
	}
	for _, p := range report.Players {
		if err := cw.Write([]string{p.PlayerID, p.Name, strconv.Itoa(p.Score)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
