package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"trivia-session-service/internal/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadJSONTasks(t *testing.T) {
	path := writeFile(t, "tasks.json", `{
  "science": [
    {"type": "mcq", "title": "H2O is?", "options": ["Salt", "Water"], "correctIndex": 1, "difficulty": 2},
    {"type": "text", "title": " Speed of light (km/s)? ", "accept": [300000, "299792"], "timeRef": 30},
    {"type": "mcq", "title": "Broken", "options": []}
  ],
  "art": [
    {"prompt": "Painter of the Mona Lisa?", "answers": ["Leonardo", "da Vinci"]},
    {"type": "card", "title": "Robots", "mode": "card"}
  ]
}`)

	qs, err := NewTaskLoader(path).LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(qs) != 3 {
		t.Fatalf("expected 3 questions, got %d: %+v", len(qs), qs)
	}

	art := qs[0]
	if art.ID != "q1" || art.Category != "art" || art.Type != domain.QuestionText || art.Accept[1] != "da Vinci" {
		t.Fatalf("unexpected art question: %+v", art)
	}
	mcq := qs[1]
	if mcq.Type != domain.QuestionMCQ || mcq.CorrectIndex != 1 || mcq.Difficulty != "2" || mcq.Mode != domain.ModeBase {
		t.Fatalf("unexpected mcq: %+v", mcq)
	}
	text := qs[2]
	if text.Prompt != "Speed of light (km/s)?" || text.Accept[0] != "300000" || text.TimeLimit != 30 {
		t.Fatalf("unexpected text question: %+v", text)
	}
}

func TestLoadYAMLTasks(t *testing.T) {
	path := writeFile(t, "tasks.yaml", `
cards:
  - id: robots-1
    type: text
    title: Pair the robots
    accept: ["A-B"]
    mode: card
    subtype: robot_pair
`)
	qs, err := NewTaskLoader(path).LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(qs) != 1 || qs[0].ID != "robots-1" || qs[0].Mode != domain.ModeCard || qs[0].Subtype != "robot_pair" {
		t.Fatalf("unexpected questions: %+v", qs)
	}
}

func TestLoadMissingAndInvalidFiles(t *testing.T) {
	qs, err := NewTaskLoader(filepath.Join(t.TempDir(), "missing.json")).LoadQuestions(context.Background())
	if err != nil || qs != nil {
		t.Fatalf("expected empty bank for a missing file, got %v (%v)", qs, err)
	}

	path := writeFile(t, "bad.json", `{"science": [`)
	if _, err := NewTaskLoader(path).LoadQuestions(context.Background()); err == nil {
		t.Fatalf("expected parse error")
	}
}
