// Package storetest provides SQLite-backed fixtures for tests.
package storetest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pinkknives/skolapp-v3-sub001/internal/database"
	"github.com/pinkknives/skolapp-v3-sub001/internal/models"
	"github.com/pinkknives/skolapp-v3-sub001/internal/store"
)

var seq atomic.Int64

// New opens a fresh in-memory database with the schema migrated.
func New(t testing.TB) *store.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))
	db, err := database.OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return store.New(db)
}

// ChoiceQuestion builds a multiple-choice question whose options are labelled
// by letters; correct lists the labels flagged correct.
func ChoiceQuestion(text string, labels []string, correct ...string) models.Question {
	q := models.Question{Type: models.QuestionMultipleChoice, Text: text}
	for i, l := range labels {
		isCorrect := false
		for _, c := range correct {
			if c == l {
				isCorrect = true
			}
		}
		q.Options = append(q.Options, models.Option{Text: l, IsCorrect: isCorrect, OrderNum: i})
	}
	return q
}

// TextQuestion builds a free-text question; an empty expected answer leaves it unresolved.
func TextQuestion(text, expected string) models.Question {
	q := models.Question{Type: models.QuestionFreeText, Text: text}
	if expected != "" {
		q.ExpectedAnswer = &expected
	}
	return q
}

// SeedQuiz stores a quiz owned by ownerID and returns it with ids populated.
func SeedQuiz(t testing.TB, s *store.Store, ownerID string, questions ...models.Question) *models.Quiz {
	t.Helper()
	for i := range questions {
		questions[i].OrderNum = i + 1
	}
	quiz := &models.Quiz{OwnerID: ownerID, Title: "quiz", Questions: questions}
	if err := s.CreateQuiz(context.Background(), quiz); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	return quiz
}

// OptionID returns the id of the option labelled label.
func OptionID(t testing.TB, q models.Question, label string) uint {
	t.Helper()
	for _, o := range q.Options {
		if o.Text == label {
			return o.ID
		}
	}
	t.Fatalf("option %q not found", label)
	return 0
}
