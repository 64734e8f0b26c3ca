package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pinkknives/skolapp-v3-sub001/internal/apperr"
	"github.com/pinkknives/skolapp-v3-sub001/internal/logger"
	"github.com/pinkknives/skolapp-v3-sub001/internal/models"
	"github.com/pinkknives/skolapp-v3-sub001/internal/realtime"
	"github.com/pinkknives/skolapp-v3-sub001/internal/store"
)

const tracerName = "github.com/pinkknives/skolapp-v3-sub001/internal/services"

// tracer resolves the global provider on each call.
func tracer() trace.Tracer { return otel.Tracer(tracerName) }

// ControlPayload is the optional body of a control action.
type ControlPayload struct {
	QuestionWindowSeconds *int `json:"question_window_seconds,omitempty"`
}

// ControlMessage is published on the session's control channel after every
// successful action.
type ControlMessage struct {
	Event   models.ControlEvent `json:"event"`
	Session *models.Session     `json:"session"`
}

type SessionService struct {
	store   *store.Store
	pub     realtime.Publisher
	retries int
	now     func() time.Time
}

func NewSessionService(st *store.Store, pub realtime.Publisher, conflictRetries int) *SessionService {
	if conflictRetries < 0 {
		conflictRetries = 0
	}
	return &SessionService{store: st, pub: pub, retries: conflictRetries, now: time.Now}
}

func (s *SessionService) Start(ctx context.Context, sessionID uint, actorID string, p ControlPayload) (*models.Session, error) {
	return s.Control(ctx, sessionID, actorID, models.ActionStart, p)
}

func (s *SessionService) Pause(ctx context.Context, sessionID uint, actorID string) (*models.Session, error) {
	return s.Control(ctx, sessionID, actorID, models.ActionPause, ControlPayload{})
}

func (s *SessionService) Next(ctx context.Context, sessionID uint, actorID string, p ControlPayload) (*models.Session, error) {
	return s.Control(ctx, sessionID, actorID, models.ActionNext, p)
}

func (s *SessionService) Reveal(ctx context.Context, sessionID uint, actorID string) (*models.Session, error) {
	return s.Control(ctx, sessionID, actorID, models.ActionReveal, ControlPayload{})
}

func (s *SessionService) End(ctx context.Context, sessionID uint, actorID string) (*models.Session, error) {
	return s.Control(ctx, sessionID, actorID, models.ActionEnd, ControlPayload{})
}

// Control validates and applies one control action. The guard and the write
// are a single conditional update; a lost race re-reads the session and
// re-checks the guard up to the configured number of retries.
func (s *SessionService) Control(ctx context.Context, sessionID uint, actorID string, action models.ControlAction, p ControlPayload) (*models.Session, error) {
	ctx, span := tracer().Start(ctx, "SessionService.Control")
	defer span.End()
	span.SetAttributes(
		attribute.Int("session.id", int(sessionID)),
		attribute.String("control.action", string(action)),
	)

	session, err := s.control(ctx, sessionID, actorID, action, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperr.CodeOf(err)))
	}
	return session, err
}

func (s *SessionService) control(ctx context.Context, sessionID uint, actorID string, action models.ControlAction, p ControlPayload) (*models.Session, error) {
	if !action.Valid() {
		return nil, apperr.New(apperr.CodeInvalidArgument, fmt.Sprintf("unknown control action %q", action))
	}
	if p.QuestionWindowSeconds != nil && *p.QuestionWindowSeconds <= 0 {
		return nil, apperr.New(apperr.CodeInvalidArgument, "question_window_seconds must be positive")
	}
	log := logger.FromCtx(ctx).With("session_id", sessionID, "action", action)

	for attempt := 0; ; attempt++ {
		current, err := s.store.GetSession(ctx, sessionID)
		if err != nil {
			return nil, storeErr(err, "session not found")
		}
		if current.ControllerID != actorID {
			return nil, apperr.ErrForbidden
		}

		now := s.now().UTC()
		patch, err := planTransition(current, action, p, now)
		if err != nil {
			return nil, err
		}

		updated := current
		if patch != nil {
			updated, err = s.store.ConditionalUpdateSession(ctx, sessionID, current.Version, current.State, *patch)
			if errors.Is(err, store.ErrConflict) {
				if attempt < s.retries {
					log.Debug("control conflict, retrying", "attempt", attempt+1)
					continue
				}
				return nil, apperr.Wrap(apperr.CodeConflict, "session was modified concurrently", err)
			}
			if err != nil {
				return nil, storeErr(err, "session not found")
			}
		}

		event := models.ControlEvent{
			SessionID: sessionID,
			Type:      action,
			Payload:   eventPayload(current, updated, p),
			ActorID:   actorID,
			Version:   updated.Version,
		}
		if err := s.store.AppendControlEvent(ctx, &event); err != nil {
			return nil, apperr.Wrap(apperr.CodeInternal, "append control event", err)
		}

		if s.pub != nil {
			msg := ControlMessage{Event: event, Session: updated}
			if err := s.pub.Publish(ctx, realtime.ControlChannel(sessionID), realtime.EventControl, msg); err != nil {
				publishFailed(ctx, "control event", err)
			}
		}
		log.Info("control action applied", "state", updated.State, "index", updated.CurrentIndex, "version", updated.Version)
		return updated, nil
	}
}

// planTransition returns the patch for action, nil when the action is valid
// but changes nothing, or an InvalidTransition error.
func planTransition(sess *models.Session, action models.ControlAction, p ControlPayload, now time.Time) (*store.SessionPatch, error) {
	invalid := func() error {
		return apperr.WithMetadata(apperr.CodeInvalidTransition,
			fmt.Sprintf("cannot %s a session that is %s", action, sess.State),
			map[string]string{"state": string(sess.State), "action": string(action)})
	}
	running, live := models.StateRunning, models.StatusLive
	ended, endedStatus := models.StateEnded, models.StatusEnded

	switch action {
	case models.ActionStart:
		if sess.State != models.StateIdle && sess.State != models.StatePaused {
			return nil, invalid()
		}
		patch := &store.SessionPatch{State: &running, Status: &live}
		if sess.StartedAt == nil {
			patch.StartedAt = &now
		}
		if sess.State == models.StateIdle || p.QuestionWindowSeconds != nil {
			applyWindow(sess, patch, p, now)
		}
		return patch, nil

	case models.ActionPause:
		if sess.State != models.StateRunning {
			return nil, invalid()
		}
		paused := models.StatePaused
		return &store.SessionPatch{State: &paused}, nil

	case models.ActionNext:
		if sess.State != models.StateRunning && sess.State != models.StatePaused {
			return nil, invalid()
		}
		if sess.IsLastQuestion() {
			patch := &store.SessionPatch{State: &ended, Status: &endedStatus}
			if sess.EndedAt == nil {
				patch.EndedAt = &now
			}
			return patch, nil
		}
		index := sess.CurrentIndex + 1
		patch := &store.SessionPatch{State: &running, Status: &live, CurrentIndex: &index}
		applyWindow(sess, patch, p, now)
		return patch, nil

	case models.ActionReveal:
		if sess.Ended() {
			return nil, invalid()
		}
		// Empty patch: the version bump still serializes reveal against other writers.
		return &store.SessionPatch{}, nil

	case models.ActionEnd:
		if sess.Ended() {
			return nil, nil
		}
		patch := &store.SessionPatch{State: &ended, Status: &endedStatus}
		if sess.EndedAt == nil {
			patch.EndedAt = &now
		}
		return patch, nil
	}
	return nil, invalid()
}

// applyWindow restarts the per-question timer when one is supplied or configured.
// Async sessions have no per-question windows.
func applyWindow(sess *models.Session, patch *store.SessionPatch, p ControlPayload, now time.Time) {
	if sess.Mode == models.ModeAsync {
		return
	}
	seconds := p.QuestionWindowSeconds
	if seconds == nil {
		seconds = sess.QuestionWindowSeconds
	}
	if seconds == nil {
		return
	}
	patch.QuestionWindowSeconds = seconds
	patch.QuestionWindowStartedAt = &now
}

func eventPayload(before, after *models.Session, p ControlPayload) map[string]any {
	payload := map[string]any{
		"from_state":     before.State,
		"to_state":       after.State,
		"question_index": after.CurrentIndex,
	}
	if p.QuestionWindowSeconds != nil {
		payload["question_window_seconds"] = *p.QuestionWindowSeconds
	}
	return payload
}

// CreateSessionInput describes a new session for a quiz owned by ControllerID.
type CreateSessionInput struct {
	QuizID                uint                `json:"quiz_id" binding:"required"`
	ControllerID          string              `json:"-"`
	Mode                  models.SessionMode  `json:"mode"`
	QuestionWindowSeconds *int                `json:"question_window_seconds,omitempty"`
	OpenAt                *time.Time          `json:"open_at,omitempty"`
	DueAt                 *time.Time          `json:"due_at,omitempty"`
	MaxAttempts           *int                `json:"max_attempts,omitempty"`
	TimeLimitSeconds      *int                `json:"time_limit_seconds,omitempty"`
	RevealPolicy          models.RevealPolicy `json:"reveal_policy,omitempty"`
	Settings              models.Settings     `json:"settings,omitempty"`
}

func (in *CreateSessionInput) validate() error {
	if in.Mode == "" {
		in.Mode = models.ModeSync
	}
	if in.Mode != models.ModeSync && in.Mode != models.ModeAsync {
		return apperr.New(apperr.CodeInvalidArgument, fmt.Sprintf("unknown mode %q", in.Mode))
	}
	if in.RevealPolicy == "" {
		in.RevealPolicy = models.RevealAfterQuestion
	}
	if !in.RevealPolicy.Valid() {
		return apperr.New(apperr.CodeInvalidArgument, fmt.Sprintf("unknown reveal policy %q", in.RevealPolicy))
	}
	for name, v := range map[string]*int{
		"question_window_seconds": in.QuestionWindowSeconds,
		"max_attempts":            in.MaxAttempts,
		"time_limit_seconds":      in.TimeLimitSeconds,
	} {
		if v != nil && *v <= 0 {
			return apperr.New(apperr.CodeInvalidArgument, name+" must be positive")
		}
	}
	if in.OpenAt != nil && in.DueAt != nil && !in.OpenAt.Before(*in.DueAt) {
		return apperr.New(apperr.CodeInvalidArgument, "open_at must be before due_at")
	}
	return nil
}

func (s *SessionService) CreateSession(ctx context.Context, in CreateSessionInput) (*models.Session, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	quiz, err := s.store.GetQuiz(ctx, in.QuizID)
	if err != nil {
		return nil, storeErr(err, "quiz not found")
	}
	if quiz.OwnerID != in.ControllerID {
		return nil, apperr.ErrForbidden
	}
	questions, err := s.store.ListQuestions(ctx, in.QuizID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "list questions", err)
	}
	if len(questions) == 0 {
		return nil, apperr.New(apperr.CodeInvalidArgument, "quiz must have at least one question")
	}

	code, err := s.generateUniqueCode(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "generate join code", err)
	}

	session := models.Session{
		QuizID:                in.QuizID,
		ControllerID:          in.ControllerID,
		Code:                  code,
		Mode:                  in.Mode,
		Status:                models.StatusLobby,
		State:                 models.StateIdle,
		QuestionCount:         len(questions),
		QuestionWindowSeconds: in.QuestionWindowSeconds,
		OpenAt:                in.OpenAt,
		DueAt:                 in.DueAt,
		MaxAttempts:           in.MaxAttempts,
		TimeLimitSeconds:      in.TimeLimitSeconds,
		RevealPolicy:          in.RevealPolicy,
		Settings:              in.Settings,
	}
	if err := s.store.CreateSession(ctx, &session); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "create session", err)
	}
	logger.FromCtx(ctx).Info("session created", "session_id", session.ID, "quiz_id", in.QuizID, "mode", in.Mode)
	return &session, nil
}

func (s *SessionService) generateUniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < 20; i++ {
		code := fmt.Sprintf("%06d", rand.Intn(1000000))
		inUse, err := s.store.CodeInUse(ctx, code)
		if err != nil {
			return "", err
		}
		if !inUse {
			return code, nil
		}
	}
	return "", errors.New("no free join code after 20 tries")
}

// SessionView is a session as shown to clients, with the current question.
type SessionView struct {
	Session      *models.Session `json:"session"`
	Question     *QuestionView   `json:"question,omitempty"`
	Revealed     bool            `json:"revealed"`
	Participants int64           `json:"participants"`
	Answered     int64           `json:"answered"`
}

type QuestionView struct {
	ID      uint                `json:"id"`
	Index   int                 `json:"index"`
	Type    models.QuestionType `json:"type"`
	Text    string              `json:"text"`
	Options []OptionView        `json:"options,omitempty"`
}

type OptionView struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

// GetSession returns the session with its current question. Option
// correctness is included once the question was revealed or the session ended.
func (s *SessionService) GetSession(ctx context.Context, sessionID uint) (*SessionView, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, storeErr(err, "session not found")
	}
	view := &SessionView{Session: session}

	if view.Participants, err = s.store.CountParticipants(ctx, sessionID); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "count participants", err)
	}
	if session.State == models.StateIdle {
		return view, nil
	}

	questions, err := s.store.ListQuestions(ctx, session.QuizID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "list questions", err)
	}
	if session.CurrentIndex >= len(questions) {
		return view, nil
	}

	revealed, err := s.revealed(ctx, session)
	if err != nil {
		return nil, err
	}
	view.Revealed = revealed
	view.Question = questionView(questions[session.CurrentIndex], session.CurrentIndex, revealed)
	if view.Answered, err = s.store.CountAnswered(ctx, sessionID, session.CurrentIndex); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "count answers", err)
	}
	return view, nil
}

// revealed reports whether the current question's answer has been revealed.
func (s *SessionService) revealed(ctx context.Context, session *models.Session) (bool, error) {
	if session.Ended() {
		return true, nil
	}
	events, err := s.store.ListControlEvents(ctx, session.ID)
	if err != nil {
		return false, apperr.Wrap(apperr.CodeInternal, "list control events", err)
	}
	for _, ev := range events {
		if ev.Type == models.ActionReveal && payloadIndex(ev.Payload) == session.CurrentIndex {
			return true, nil
		}
	}
	return false, nil
}

func payloadIndex(payload map[string]any) int {
	switch v := payload["question_index"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return -1
}

func questionView(q models.Question, index int, revealed bool) *QuestionView {
	v := &QuestionView{ID: q.ID, Index: index, Type: q.Type, Text: q.Text}
	for _, o := range q.Options {
		opt := OptionView{ID: o.ID, Text: o.Text}
		if revealed {
			correct := o.IsCorrect
			opt.IsCorrect = &correct
		}
		v.Options = append(v.Options, opt)
	}
	return v
}

// Authorize returns the session when actorID controls it.
func (s *SessionService) Authorize(ctx context.Context, sessionID uint, actorID string) (*models.Session, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, storeErr(err, "session not found")
	}
	if session.ControllerID != actorID {
		return nil, apperr.ErrForbidden
	}
	return session, nil
}

func (s *SessionService) ListControlEvents(ctx context.Context, sessionID uint, actorID string) ([]models.ControlEvent, error) {
	if _, err := s.Authorize(ctx, sessionID, actorID); err != nil {
		return nil, err
	}
	events, err := s.store.ListControlEvents(ctx, sessionID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "list control events", err)
	}
	return events, nil
}

// storeErr maps storage sentinels to coded errors.
func storeErr(err error, notFound string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.Wrap(apperr.CodeNotFound, notFound, err)
	case errors.Is(err, store.ErrConflict):
		return apperr.Wrap(apperr.CodeConflict, "concurrent modification", err)
	default:
		return apperr.Wrap(apperr.CodeInternal, "storage failure", err)
	}
}

// publishFailed reports a fan-out failure. The change being announced is
// already committed, so the caller still succeeds; clients catch up from the
// session read and the control event log.
func publishFailed(ctx context.Context, what string, err error) {
	err = apperr.Wrap(apperr.CodeTransportUnavailable, "publish "+what, err)
	trace.SpanFromContext(ctx).RecordError(err)
	logger.FromCtx(ctx).Warn("publish failed", "what", what, "code", apperr.CodeOf(err), "error", err)
}
