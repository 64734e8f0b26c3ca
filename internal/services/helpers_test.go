package services

import (
	"context"
	"testing"
	"time"

	"github.com/pinkknives/skolapp-v3-sub001/internal/apperr"
	"github.com/pinkknives/skolapp-v3-sub001/internal/models"
	"github.com/pinkknives/skolapp-v3-sub001/internal/realtime"
	"github.com/pinkknives/skolapp-v3-sub001/internal/store"
	"github.com/pinkknives/skolapp-v3-sub001/internal/store/storetest"
)

const owner = "teacher-1"

type testEnv struct {
	store        *store.Store
	broker       *realtime.Broker
	sessions     *SessionService
	participants *ParticipantService
	answers      *AnswerService
	summaries    *SummaryService
	quiz         *models.Quiz
	clock        *testClock
}

type testClock struct{ t time.Time }

func newClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func intPtr(v int) *int              { return &v }
func timePtr(t time.Time) *time.Time { return &t }
func strPtr(s string) *string        { return &s }

// newTestEnv seeds a quiz with three questions: Q0 multiple choice (A,B
// correct), Q1 free text "Paris", Q2 multiple choice (C correct).
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := storetest.New(t)
	quiz := storetest.SeedQuiz(t, st, owner,
		storetest.ChoiceQuestion("pick A and B", []string{"A", "B", "C"}, "A", "B"),
		storetest.TextQuestion("capital of France", "paris"),
		storetest.ChoiceQuestion("pick C", []string{"A", "B", "C"}, "C"),
	)
	broker := realtime.NewBroker()
	clock := newClock()

	env := &testEnv{
		store:        st,
		broker:       broker,
		sessions:     NewSessionService(st, broker, 3),
		participants: NewParticipantService(st, broker, 50),
		summaries:    NewSummaryService(st),
		quiz:         quiz,
		clock:        clock,
	}
	env.answers = NewAnswerService(st, env.participants, broker, false)
	env.sessions.now = clock.Now
	env.participants.now = clock.Now
	env.answers.now = clock.Now
	return env
}

func (e *testEnv) createSession(t *testing.T, in CreateSessionInput) *models.Session {
	t.Helper()
	in.QuizID = e.quiz.ID
	in.ControllerID = owner
	s, err := e.sessions.CreateSession(context.Background(), in)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return s
}

func (e *testEnv) join(t *testing.T, s *models.Session, name string) *models.Participant {
	t.Helper()
	p, err := e.participants.Join(context.Background(), JoinInput{Code: s.Code, DisplayName: name})
	if err != nil {
		t.Fatalf("join %s: %v", name, err)
	}
	return p
}

func (e *testEnv) control(t *testing.T, id uint, action models.ControlAction) *models.Session {
	t.Helper()
	s, err := e.sessions.Control(context.Background(), id, owner, action, ControlPayload{})
	if err != nil {
		t.Fatalf("%s: %v", action, err)
	}
	return s
}

func (e *testEnv) option(t *testing.T, question int, label string) uint {
	t.Helper()
	return storetest.OptionID(t, e.quiz.Questions[question], label)
}

func wantCode(t *testing.T, err error, code apperr.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if got := apperr.CodeOf(err); got != code {
		t.Fatalf("error code = %s (%v), want %s", got, err, code)
	}
}
