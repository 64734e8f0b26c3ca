package services

import (
	"context"
	"testing"
	"time"

	"github.com/pinkknives/skolapp-v3-sub001/internal/apperr"
	"github.com/pinkknives/skolapp-v3-sub001/internal/models"
	"github.com/pinkknives/skolapp-v3-sub001/internal/realtime"
)

func TestResubmissionReplacesAttempt(t *testing.T) {
	env := newTestEnv(t)
	s := env.createSession(t, CreateSessionInput{})
	p := env.join(t, s, "Alice")
	env.control(t, s.ID, models.ActionStart)
	ctx := context.Background()

	first, err := env.answers.Submit(ctx, SubmitInput{SessionID: s.ID, ParticipantID: p.ID, Answer: models.NewChoiceAnswer(env.option(t, 0, "A"))})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if first.IsCorrect || first.AttemptNo != 1 {
		t.Fatalf("first attempt = %+v", first)
	}

	env.clock.Advance(5 * time.Second)
	second, err := env.answers.Submit(ctx, SubmitInput{SessionID: s.ID, ParticipantID: p.ID, Answer: models.NewChoiceAnswer(env.option(t, 0, "B"), env.option(t, 0, "A"))})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if !second.IsCorrect || second.AttemptNo != 2 {
		t.Fatalf("second attempt = %+v", second)
	}
	if second.DurationSeconds != 5 {
		t.Fatalf("duration = %v, want 5", second.DurationSeconds)
	}

	all, _ := env.store.ListAttempts(ctx, s.ID)
	if len(all) != 1 {
		t.Fatalf("attempt rows = %d, want 1", len(all))
	}
	choice, ok := all[0].Answer.Choice()
	if !ok || len(choice.OptionIDs) != 2 {
		t.Fatalf("stored answer not replaced: %+v", all[0].Answer)
	}
}

func TestSyncSubmissionRequiresRunning(t *testing.T) {
	env := newTestEnv(t)
	s := env.createSession(t, CreateSessionInput{})
	p := env.join(t, s, "Alice")
	submit := func() error {
		_, err := env.answers.Submit(context.Background(), SubmitInput{SessionID: s.ID, ParticipantID: p.ID, Answer: models.NewChoiceAnswer(env.option(t, 0, "A"))})
		return err
	}

	wantCode(t, submit(), apperr.CodeSubmissionWindowClosed)
	env.control(t, s.ID, models.ActionStart)
	if err := submit(); err != nil {
		t.Fatalf("running submit: %v", err)
	}
	env.control(t, s.ID, models.ActionPause)
	wantCode(t, submit(), apperr.CodeSubmissionWindowClosed)
	env.control(t, s.ID, models.ActionEnd)
	wantCode(t, submit(), apperr.CodeSubmissionWindowClosed)
}

func TestSyncIgnoresClientIndex(t *testing.T) {
	env := newTestEnv(t)
	s := env.createSession(t, CreateSessionInput{})
	p := env.join(t, s, "Alice")
	env.control(t, s.ID, models.ActionStart)
	env.control(t, s.ID, models.ActionNext)

	a, err := env.answers.Submit(context.Background(), SubmitInput{
		SessionID: s.ID, ParticipantID: p.ID, QuestionIndex: intPtr(0), Answer: models.NewTextAnswer(" Paris "),
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if a.QuestionIndex != 1 || !a.IsCorrect {
		t.Fatalf("attempt = %+v, want index 1 correct", a)
	}
}

func TestSubmissionRequiresParticipant(t *testing.T) {
	env := newTestEnv(t)
	s := env.createSession(t, CreateSessionInput{})
	other := env.createSession(t, CreateSessionInput{})
	stranger := env.join(t, other, "Mallory")
	env.control(t, s.ID, models.ActionStart)

	_, err := env.answers.Submit(context.Background(), SubmitInput{SessionID: s.ID, ParticipantID: stranger.ID, Answer: models.NewChoiceAnswer(env.option(t, 0, "A"))})
	wantCode(t, err, apperr.CodeNotParticipant)

	_, err = env.answers.Submit(context.Background(), SubmitInput{SessionID: s.ID, GuestName: "Guest", Answer: models.NewChoiceAnswer(env.option(t, 0, "A"))})
	wantCode(t, err, apperr.CodeNotParticipant)
}

func TestAnonymousGuestIsRegistered(t *testing.T) {
	env := newTestEnv(t)
	s := env.createSession(t, CreateSessionInput{Settings: models.Settings{models.SettingAllowAnonymous: true}})
	env.control(t, s.ID, models.ActionStart)

	a, err := env.answers.Submit(context.Background(), SubmitInput{SessionID: s.ID, GuestName: "Guest", Answer: models.NewChoiceAnswer(env.option(t, 0, "A"))})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	p, err := env.store.GetParticipant(context.Background(), s.ID, a.ParticipantID)
	if err != nil {
		t.Fatalf("guest not registered: %v", err)
	}
	if p.DisplayName != "Guest" || p.Identity != nil {
		t.Fatalf("unexpected guest %+v", p)
	}
}

func TestRejectedGuestIsNotRegistered(t *testing.T) {
	env := newTestEnv(t)
	s := env.createSession(t, CreateSessionInput{Settings: models.Settings{models.SettingAllowAnonymous: true}})
	ctx := context.Background()

	// Broker handlers run on the publishing goroutine.
	var joined int
	client := env.broker.Connect("controller")
	_, err := client.Channel(realtime.RoomChannel(s.ID)).Subscribe(realtime.EventParticipantJoined, func(realtime.Message) { joined++ })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	tests := []struct {
		name   string
		answer models.Answer
		code   apperr.Code
	}{
		{"session idle", models.NewChoiceAnswer(env.option(t, 0, "A")), apperr.CodeSubmissionWindowClosed},
		{"wrong payload", models.NewTextAnswer("A"), apperr.CodeInvalidAnswer},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if i == 1 {
				env.control(t, s.ID, models.ActionStart)
			}
			_, err := env.answers.Submit(ctx, SubmitInput{SessionID: s.ID, GuestName: "Guest", Answer: tt.answer})
			wantCode(t, err, tt.code)
			if n, _ := env.store.CountParticipants(ctx, s.ID); n != 0 {
				t.Fatalf("rejected guest registered: %d participants", n)
			}
		})
	}
	if joined != 0 {
		t.Fatalf("participant.joined published %d times for rejected guests", joined)
	}

	a, err := env.answers.Submit(ctx, SubmitInput{SessionID: s.ID, GuestName: "Guest", Answer: models.NewChoiceAnswer(env.option(t, 0, "A"))})
	if err != nil {
		t.Fatalf("submit after start: %v", err)
	}
	if a.ParticipantID == 0 || joined != 1 {
		t.Fatalf("participant = %d, joined events = %d", a.ParticipantID, joined)
	}

	_, err = env.answers.Submit(ctx, SubmitInput{SessionID: s.ID, GuestName: " Guest ", Answer: models.NewChoiceAnswer(env.option(t, 0, "A"))})
	wantCode(t, err, apperr.CodeDisplayNameTaken)
	if n, _ := env.store.CountParticipants(ctx, s.ID); n != 1 {
		t.Fatalf("participants = %d, want 1", n)
	}
}

func TestSubmissionLosesToConcurrentNext(t *testing.T) {
	env := newTestEnv(t)
	s := env.createSession(t, CreateSessionInput{})
	p := env.join(t, s, "Alice")
	env.control(t, s.ID, models.ActionStart)
	ctx := context.Background()

	// The answer service reads the clock after loading the session, so the
	// question advances between admission and the write.
	advanced := false
	env.answers.now = func() time.Time {
		if !advanced {
			advanced = true
			if _, err := env.sessions.Next(ctx, s.ID, owner, ControlPayload{}); err != nil {
				t.Fatalf("next: %v", err)
			}
		}
		return env.clock.Now()
	}

	_, err := env.answers.Submit(ctx, SubmitInput{SessionID: s.ID, ParticipantID: p.ID, Answer: models.NewChoiceAnswer(env.option(t, 0, "A"))})
	wantCode(t, err, apperr.CodeSubmissionWindowClosed)

	attempts, err := env.store.ListAttempts(ctx, s.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(attempts) != 0 {
		t.Fatalf("attempt recorded after the question moved on: %+v", attempts)
	}
}

func TestSubmissionRejectsWrongPayload(t *testing.T) {
	env := newTestEnv(t)
	s := env.createSession(t, CreateSessionInput{})
	p := env.join(t, s, "Alice")
	env.control(t, s.ID, models.ActionStart)

	_, err := env.answers.Submit(context.Background(), SubmitInput{SessionID: s.ID, ParticipantID: p.ID, Answer: models.NewTextAnswer("A")})
	wantCode(t, err, apperr.CodeInvalidAnswer)

	foreign := env.option(t, 2, "C")
	_, err = env.answers.Submit(context.Background(), SubmitInput{SessionID: s.ID, ParticipantID: p.ID, Answer: models.NewChoiceAnswer(foreign)})
	wantCode(t, err, apperr.CodeInvalidAnswer)
}

func TestEnforcedQuestionWindow(t *testing.T) {
	env := newTestEnv(t)
	env.answers.enforceWindow = true
	s := env.createSession(t, CreateSessionInput{QuestionWindowSeconds: intPtr(10)})
	p := env.join(t, s, "Alice")
	env.control(t, s.ID, models.ActionStart)

	env.clock.Advance(9 * time.Second)
	if _, err := env.answers.Submit(context.Background(), SubmitInput{SessionID: s.ID, ParticipantID: p.ID, Answer: models.NewChoiceAnswer(env.option(t, 0, "A"))}); err != nil {
		t.Fatalf("in-window submit: %v", err)
	}
	env.clock.Advance(2 * time.Second)
	_, err := env.answers.Submit(context.Background(), SubmitInput{SessionID: s.ID, ParticipantID: p.ID, Answer: models.NewChoiceAnswer(env.option(t, 0, "A"))})
	wantCode(t, err, apperr.CodeSubmissionWindowClosed)

	env.answers.enforceWindow = false
	if _, err := env.answers.Submit(context.Background(), SubmitInput{SessionID: s.ID, ParticipantID: p.ID, Answer: models.NewChoiceAnswer(env.option(t, 0, "A"))}); err != nil {
		t.Fatalf("advisory window should accept late submit: %v", err)
	}
}

func TestAsyncSubmissionWindow(t *testing.T) {
	env := newTestEnv(t)
	now := env.clock.Now()
	s := env.createSession(t, CreateSessionInput{
		Mode:             models.ModeAsync,
		OpenAt:           timePtr(now.Add(time.Hour)),
		DueAt:            timePtr(now.Add(3 * time.Hour)),
		MaxAttempts:      intPtr(2),
		TimeLimitSeconds: intPtr(7200),
	})
	p := env.join(t, s, "Alice")
	submit := func(index int) error {
		_, err := env.answers.Submit(context.Background(), SubmitInput{
			SessionID: s.ID, ParticipantID: p.ID, QuestionIndex: intPtr(index), Answer: models.NewChoiceAnswer(env.option(t, 2, "C")),
		})
		return err
	}

	wantCode(t, submit(2), apperr.CodeSubmissionWindowClosed)

	env.clock.Advance(30 * time.Minute)
	wantCode(t, submit(2), apperr.CodeSubmissionWindowClosed)

	env.clock.Advance(45 * time.Minute)
	if err := submit(2); err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	if err := submit(2); err != nil {
		t.Fatalf("second attempt: %v", err)
	}
	wantCode(t, submit(2), apperr.CodeMaxAttemptsReached)
	wantCode(t, submit(7), apperr.CodeInvalidArgument)

	_, err := env.answers.Submit(context.Background(), SubmitInput{SessionID: s.ID, ParticipantID: p.ID, Answer: models.NewChoiceAnswer(env.option(t, 0, "A"))})
	wantCode(t, err, apperr.CodeInvalidArgument)

	// Joined at 09:00 with a two hour limit.
	env.clock.Advance(time.Hour)
	wantCode(t, submit(0), apperr.CodeSubmissionWindowClosed)
}

func TestAsyncDeadline(t *testing.T) {
	env := newTestEnv(t)
	now := env.clock.Now()
	s := env.createSession(t, CreateSessionInput{Mode: models.ModeAsync, DueAt: timePtr(now.Add(time.Hour))})
	p := env.join(t, s, "Alice")

	dur := 12.5
	a, err := env.answers.Submit(context.Background(), SubmitInput{
		SessionID: s.ID, ParticipantID: p.ID, QuestionIndex: intPtr(1), Answer: models.NewTextAnswer("paris"), DurationSeconds: &dur,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if a.DurationSeconds != 12.5 {
		t.Fatalf("duration = %v", a.DurationSeconds)
	}

	env.clock.Advance(2 * time.Hour)
	_, err = env.answers.Submit(context.Background(), SubmitInput{SessionID: s.ID, ParticipantID: p.ID, QuestionIndex: intPtr(1), Answer: models.NewTextAnswer("paris")})
	wantCode(t, err, apperr.CodeSubmissionWindowClosed)
}

func TestSubmitPublishesAnswerCount(t *testing.T) {
	env := newTestEnv(t)
	s := env.createSession(t, CreateSessionInput{})
	alice := env.join(t, s, "Alice")
	bob := env.join(t, s, "Bob")
	env.control(t, s.ID, models.ActionStart)

	client := env.broker.Connect("controller")
	counts := make(chan AnswerCount, 4)
	_, err := client.Channel(realtime.AnswersChannel(s.ID)).Subscribe(realtime.EventAnswerCount, func(m realtime.Message) {
		var c AnswerCount
		_ = m.Decode(&c)
		counts <- c
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	for _, p := range []uint{alice.ID, bob.ID, alice.ID} {
		if _, err := env.answers.Submit(context.Background(), SubmitInput{SessionID: s.ID, ParticipantID: p, Answer: models.NewChoiceAnswer(env.option(t, 0, "C"))}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	want := []int64{1, 2, 2}
	for i, w := range want {
		c := <-counts
		if c.QuestionIndex != 0 || c.Answered != w {
			t.Fatalf("count %d = %+v, want answered=%d", i, c, w)
		}
	}
}

func TestPresentAppliesRevealPolicy(t *testing.T) {
	tests := []struct {
		name   string
		policy models.RevealPolicy
		steps  []models.ControlAction
		want   bool
	}{
		{"immediate", models.RevealImmediate, nil, true},
		{"after question hidden", models.RevealAfterQuestion, nil, false},
		{"after question revealed", models.RevealAfterQuestion, []models.ControlAction{models.ActionReveal}, true},
		{"after question advanced", models.RevealAfterQuestion, []models.ControlAction{models.ActionNext}, true},
		{"after deadline hidden", models.RevealAfterDeadline, []models.ControlAction{models.ActionReveal}, false},
		{"after deadline ended", models.RevealAfterDeadline, []models.ControlAction{models.ActionEnd}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			s := env.createSession(t, CreateSessionInput{RevealPolicy: tt.policy})
			p := env.join(t, s, "Alice")
			env.control(t, s.ID, models.ActionStart)
			if _, err := env.answers.Submit(context.Background(), SubmitInput{SessionID: s.ID, ParticipantID: p.ID, Answer: models.NewChoiceAnswer(env.option(t, 0, "A"))}); err != nil {
				t.Fatalf("submit: %v", err)
			}
			for _, step := range tt.steps {
				env.control(t, s.ID, step)
			}

			views, err := env.answers.ListMine(context.Background(), s.ID, p.ID)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(views) != 1 {
				t.Fatalf("views = %d", len(views))
			}
			if got := views[0].IsCorrect != nil; got != tt.want {
				t.Fatalf("correctness visible = %v, want %v", got, tt.want)
			}
		})
	}
}
