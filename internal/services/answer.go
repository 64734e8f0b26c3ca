package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/pinkknives/skolapp-v3-sub001/internal/apperr"
	"github.com/pinkknives/skolapp-v3-sub001/internal/logger"
	"github.com/pinkknives/skolapp-v3-sub001/internal/models"
	"github.com/pinkknives/skolapp-v3-sub001/internal/realtime"
	"github.com/pinkknives/skolapp-v3-sub001/internal/store"
)

// SubmitInput is one participant submission. QuestionIndex and
// DurationSeconds are only honoured for async sessions; GuestName registers
// an anonymous participant when the session allows it.
type SubmitInput struct {
	SessionID       uint
	ParticipantID   uint
	GuestName       string
	QuestionIndex   *int
	Answer          models.Answer
	DurationSeconds *float64
}

// AnswerCount is published on the answers channel after each submission.
type AnswerCount struct {
	QuestionIndex int   `json:"question_index"`
	Answered      int64 `json:"answered"`
}

// AnswerService records submissions.
type AnswerService struct {
	store         *store.Store
	participants  *ParticipantService
	pub           realtime.Publisher
	enforceWindow bool
	now           func() time.Time
}

func NewAnswerService(st *store.Store, participants *ParticipantService, pub realtime.Publisher, enforceWindow bool) *AnswerService {
	return &AnswerService{store: st, participants: participants, pub: pub, enforceWindow: enforceWindow, now: time.Now}
}

func (s *AnswerService) Submit(ctx context.Context, in SubmitInput) (*models.Attempt, error) {
	ctx, span := tracer().Start(ctx, "AnswerService.Submit")
	defer span.End()
	span.SetAttributes(attribute.Int("session.id", int(in.SessionID)), attribute.Int("participant.id", int(in.ParticipantID)))

	attempt, err := s.submit(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperr.CodeOf(err)))
	}
	return attempt, err
}

func (s *AnswerService) submit(ctx context.Context, in SubmitInput) (*models.Attempt, error) {
	session, err := s.store.GetSession(ctx, in.SessionID)
	if err != nil {
		return nil, storeErr(err, "session not found")
	}
	participant, guest, err := s.resolveParticipant(ctx, session, in)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	index, maxAttempts, err := s.admit(session, participant, in, now)
	if err != nil {
		return nil, err
	}

	questions, err := s.store.ListQuestions(ctx, session.QuizID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "list questions", err)
	}
	if index < 0 || index >= len(questions) {
		return nil, apperr.New(apperr.CodeInvalidArgument, fmt.Sprintf("question index %d out of range", index))
	}
	question := questions[index]

	correct, err := Grade(question, in.Answer)
	if err != nil {
		return nil, err
	}

	opts := store.AttemptOptions{MaxAttempts: maxAttempts, Guard: admissionGuard(session, index)}
	if guest {
		opts.Guest = participant
	}
	attempt, err := s.store.RecordAttempt(ctx, store.AttemptWrite{
		SessionID:       session.ID,
		ParticipantID:   participant.ID,
		QuestionIndex:   index,
		QuestionID:      question.ID,
		Answer:          in.Answer,
		IsCorrect:       correct,
		AnsweredAt:      now,
		DurationSeconds: duration(session, participant, in, now),
	}, opts)
	switch {
	case errors.Is(err, store.ErrMaxAttempts):
		return nil, apperr.WithMetadata(apperr.CodeMaxAttemptsReached, "maximum attempts reached for this question",
			map[string]string{"max_attempts": fmt.Sprint(maxAttempts)})
	case errors.Is(err, store.ErrConflict):
		return nil, closed("session moved on before the answer was recorded")
	case guest && errors.Is(err, store.ErrDuplicate):
		return nil, createErr(participant.DisplayName, err)
	case err != nil:
		return nil, apperr.Wrap(apperr.CodeInternal, "record attempt", err)
	}

	if guest {
		s.participants.announce(ctx, participant)
	}
	s.publishCount(ctx, session.ID, index)
	logger.FromCtx(ctx).Info("answer recorded",
		"session_id", session.ID, "participant_id", attempt.ParticipantID,
		"question_index", index, "attempt_no", attempt.AttemptNo)
	return attempt, nil
}

// resolveParticipant returns the submitting participant. A guest comes back
// unsaved with guest set; it is stored together with its first attempt.
func (s *AnswerService) resolveParticipant(ctx context.Context, session *models.Session, in SubmitInput) (p *models.Participant, guest bool, err error) {
	if in.ParticipantID != 0 {
		p, err := s.store.GetParticipant(ctx, session.ID, in.ParticipantID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, apperr.New(apperr.CodeNotParticipant, "not a participant of this session")
		}
		if err != nil {
			return nil, false, storeErr(err, "participant not found")
		}
		return p, false, nil
	}
	if session.Settings.AllowAnonymous() && in.GuestName != "" {
		p, err := s.participants.prepare(ctx, session, in.GuestName, nil)
		return p, err == nil, err
	}
	return nil, false, apperr.New(apperr.CodeNotParticipant, "not a participant of this session")
}

// admit checks the submission window against the session snapshot and
// returns the question index and the attempt ceiling (0 for unlimited). The
// snapshot may be stale by the time the attempt is written, so the same
// window is pinned again inside the write by admissionGuard.
func (s *AnswerService) admit(session *models.Session, p *models.Participant, in SubmitInput, now time.Time) (int, int, error) {
	if session.Ended() {
		return 0, 0, closed("session has ended")
	}

	if session.Mode == models.ModeAsync {
		if in.QuestionIndex == nil {
			return 0, 0, apperr.New(apperr.CodeInvalidArgument, "question_index is required for async sessions")
		}
		if session.OpenAt != nil && now.Before(*session.OpenAt) {
			return 0, 0, closed("session is not open yet")
		}
		if session.DueAt != nil && now.After(*session.DueAt) {
			return 0, 0, closed("session deadline has passed")
		}
		if session.TimeLimitSeconds != nil {
			limit := p.JoinedAt.Add(time.Duration(*session.TimeLimitSeconds) * time.Second)
			if now.After(limit) {
				return 0, 0, closed("time limit exceeded")
			}
		}
		maxAttempts := 0
		if session.MaxAttempts != nil {
			maxAttempts = *session.MaxAttempts
		}
		return *in.QuestionIndex, maxAttempts, nil
	}

	if session.State != models.StateRunning {
		return 0, 0, closed(fmt.Sprintf("session is %s", session.State))
	}
	if s.enforceWindow {
		if deadline, ok := session.WindowDeadline(); ok && now.After(deadline) {
			return 0, 0, closed("question window has closed")
		}
	}
	return session.CurrentIndex, 0, nil
}

// admissionGuard pins what admit observed: a running session on the same
// question for sync sessions, a session that has not ended for async ones.
func admissionGuard(session *models.Session, index int) *store.SessionGuard {
	if session.Mode == models.ModeAsync {
		return &store.SessionGuard{NotState: models.StateEnded}
	}
	return &store.SessionGuard{State: models.StateRunning, CurrentIndex: &index}
}

func closed(msg string) error {
	return apperr.New(apperr.CodeSubmissionWindowClosed, msg)
}

func duration(session *models.Session, p *models.Participant, in SubmitInput, now time.Time) float64 {
	var since time.Time
	switch {
	case session.Mode == models.ModeAsync:
		if in.DurationSeconds != nil {
			return max(*in.DurationSeconds, 0)
		}
		since = p.JoinedAt
	case session.QuestionWindowStartedAt != nil:
		since = *session.QuestionWindowStartedAt
	case session.StartedAt != nil:
		since = *session.StartedAt
	default:
		return 0
	}
	return max(now.Sub(since).Seconds(), 0)
}

func (s *AnswerService) publishCount(ctx context.Context, sessionID uint, index int) {
	if s.pub == nil {
		return
	}
	answered, err := s.store.CountAnswered(ctx, sessionID, index)
	if err != nil {
		logger.FromCtx(ctx).Warn("count answers failed", "error", err)
		return
	}
	err = s.pub.Publish(ctx, realtime.AnswersChannel(sessionID), realtime.EventAnswerCount,
		AnswerCount{QuestionIndex: index, Answered: answered})
	if err != nil {
		publishFailed(ctx, "answer count", err)
	}
}

// AttemptView is an attempt as shown to its participant; IsCorrect is nil
// until the session's reveal policy allows it.
type AttemptView struct {
	ID              uint          `json:"id"`
	ParticipantID   uint          `json:"participant_id"`
	QuestionIndex   int           `json:"question_index"`
	QuestionID      uint          `json:"question_id"`
	Answer          models.Answer `json:"answer"`
	IsCorrect       *bool         `json:"is_correct,omitempty"`
	AttemptNo       int           `json:"attempt_no"`
	AnsweredAt      time.Time     `json:"answered_at"`
	DurationSeconds float64       `json:"duration_seconds"`
}

// Present applies the reveal policy to attempts of sessionID.
func (s *AnswerService) Present(ctx context.Context, sessionID uint, attempts ...models.Attempt) ([]AttemptView, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, storeErr(err, "session not found")
	}
	events, err := s.store.ListControlEvents(ctx, sessionID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "list control events", err)
	}
	revealed := lo.FilterMap(events, func(ev models.ControlEvent, _ int) (int, bool) {
		return payloadIndex(ev.Payload), ev.Type == models.ActionReveal
	})
	now := s.now().UTC()

	views := make([]AttemptView, 0, len(attempts))
	for _, a := range attempts {
		v := AttemptView{
			ID:              a.ID,
			ParticipantID:   a.ParticipantID,
			QuestionIndex:   a.QuestionIndex,
			QuestionID:      a.QuestionID,
			Answer:          a.Answer,
			AttemptNo:       a.AttemptNo,
			AnsweredAt:      a.AnsweredAt,
			DurationSeconds: a.DurationSeconds,
		}
		if correctnessVisible(session, a.QuestionIndex, revealed, now) {
			correct := a.IsCorrect
			v.IsCorrect = &correct
		}
		views = append(views, v)
	}
	return views, nil
}

func correctnessVisible(session *models.Session, index int, revealed []int, now time.Time) bool {
	if session.Ended() {
		return true
	}
	switch session.RevealPolicy {
	case models.RevealImmediate:
		return true
	case models.RevealAfterDeadline:
		return session.DueAt != nil && now.After(*session.DueAt)
	default:
		if session.Mode == models.ModeSync && session.CurrentIndex > index {
			return true
		}
		return lo.Contains(revealed, index)
	}
}

// ListMine returns the participant's own attempts with the reveal policy applied.
func (s *AnswerService) ListMine(ctx context.Context, sessionID, participantID uint) ([]AttemptView, error) {
	all, err := s.store.ListAttempts(ctx, sessionID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "list attempts", err)
	}
	mine := lo.Filter(all, func(a models.Attempt, _ int) bool { return a.ParticipantID == participantID })
	return s.Present(ctx, sessionID, mine...)
}
