package catalog

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/pinkknives/skolapp-v3-sub001/internal/models"
	"github.com/pinkknives/skolapp-v3-sub001/internal/store/storetest"
)

const sample = `
quizzes:
  - title: Geography
    questions:
      - text: Which are in Europe?
        options:
          - {text: France, correct: true}
          - {text: Peru}
          - {text: Spain, correct: true}
      - text: Capital of France?
        type: free_text
        expected: Paris
  - title: Owned
    owner: teacher-2
    questions:
      - text: Open question
        type: free_text
`

func TestParseAndImport(t *testing.T) {
	f, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	st := storetest.New(t)
	quizzes, err := Import(context.Background(), st, f, "teacher-1")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(quizzes) != 2 {
		t.Fatalf("quizzes = %d", len(quizzes))
	}
	if quizzes[0].OwnerID != "teacher-1" || quizzes[1].OwnerID != "teacher-2" {
		t.Fatalf("owners = %q, %q", quizzes[0].OwnerID, quizzes[1].OwnerID)
	}

	questions, err := st.ListQuestions(context.Background(), quizzes[0].ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(questions) != 2 || questions[0].Type != models.QuestionMultipleChoice {
		t.Fatalf("unexpected questions %+v", questions)
	}
	if got := len(questions[0].CorrectOptionIDs()); got != 2 {
		t.Fatalf("correct options = %d", got)
	}
	if questions[1].ExpectedAnswer == nil || *questions[1].ExpectedAnswer != "Paris" {
		t.Fatalf("expected answer = %v", questions[1].ExpectedAnswer)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", ``, "empty"},
		{"no quizzes", `quizzes: []`, "no quizzes"},
		{"unknown key", "quizzes:\n  - title: x\n    color: red\n", "color"},
		{"missing title", "quizzes:\n  - questions:\n      - text: q\n        type: free_text\n", "title is required"},
		{"one option", "quizzes:\n  - title: x\n    questions:\n      - text: q\n        options: [{text: a, correct: true}]\n", "two options"},
		{"no correct", "quizzes:\n  - title: x\n    questions:\n      - text: q\n        options: [{text: a}, {text: b}]\n", "correct option"},
		{"free text with options", "quizzes:\n  - title: x\n    questions:\n      - text: q\n        type: free_text\n        options: [{text: a}]\n", "cannot carry options"},
		{"unknown type", "quizzes:\n  - title: x\n    questions:\n      - text: q\n        type: essay\n", "unknown type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestExportRoundTripsThroughParse(t *testing.T) {
	f, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var buf bytes.Buffer
	if err := Export(&buf, []models.Quiz{f.Quizzes[0].Model("teacher-1")}); err != nil {
		t.Fatalf("export: %v", err)
	}
	again, err := Parse(&buf)
	if err != nil {
		t.Fatalf("reparse: %v\n%s", err, buf.String())
	}
	if again.Quizzes[0].Owner != "teacher-1" || len(again.Quizzes[0].Questions) != 2 {
		t.Fatalf("unexpected export %+v", again.Quizzes[0])
	}
}
