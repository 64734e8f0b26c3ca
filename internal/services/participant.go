package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pinkknives/skolapp-v3-sub001/internal/apperr"
	"github.com/pinkknives/skolapp-v3-sub001/internal/logger"
	"github.com/pinkknives/skolapp-v3-sub001/internal/models"
	"github.com/pinkknives/skolapp-v3-sub001/internal/realtime"
	"github.com/pinkknives/skolapp-v3-sub001/internal/store"
)

const maxDisplayNameLen = 100

type ParticipantService struct {
	store           *store.Store
	pub             realtime.Publisher
	defaultCapacity int
	now             func() time.Time
}

func NewParticipantService(st *store.Store, pub realtime.Publisher, defaultCapacity int) *ParticipantService {
	return &ParticipantService{store: st, pub: pub, defaultCapacity: defaultCapacity, now: time.Now}
}

// JoinInput is a join request. Identity and ParticipantID must come from a
// verified token, never from the request body.
type JoinInput struct {
	Code        string `json:"code" binding:"required"`
	DisplayName string `json:"display_name" binding:"required"`
	// Identity is the account subject of an authenticated caller.
	Identity *string `json:"-"`
	// ParticipantID is set when the caller holds a participant token.
	ParticipantID uint `json:"-"`
}

// Join registers a participant in the open session using code. A caller whose
// identity or participant token already belongs to the session gets the
// existing participant back.
func (s *ParticipantService) Join(ctx context.Context, in JoinInput) (*models.Participant, error) {
	session, err := s.store.GetSessionByCode(ctx, strings.TrimSpace(in.Code))
	if err != nil {
		return nil, storeErr(err, "session not found or closed")
	}

	if in.ParticipantID != 0 {
		existing, err := s.store.GetParticipant(ctx, session.ID, in.ParticipantID)
		if err == nil {
			logger.FromCtx(ctx).Info("participant rejoined", "session_id", session.ID, "participant_id", existing.ID)
			return existing, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, storeErr(err, "participant not found")
		}
	}

	if in.Identity != nil && *in.Identity != "" {
		existing, err := s.store.FindParticipantByIdentity(ctx, session.ID, *in.Identity)
		if err == nil {
			logger.FromCtx(ctx).Info("participant rejoined", "session_id", session.ID, "participant_id", existing.ID)
			return existing, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, storeErr(err, "participant not found")
		}
	}
	return s.register(ctx, session, in.DisplayName, in.Identity)
}

// register creates a participant. The capacity check and the insert are not
// atomic, so concurrent joins may overshoot the limit slightly.
func (s *ParticipantService) register(ctx context.Context, session *models.Session, displayName string, identity *string) (*models.Participant, error) {
	p, err := s.prepare(ctx, session, displayName, identity)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateParticipant(ctx, p); err != nil {
		return nil, createErr(p.DisplayName, err)
	}
	s.announce(ctx, p)
	return p, nil
}

// prepare validates a join and returns the unsaved participant.
func (s *ParticipantService) prepare(ctx context.Context, session *models.Session, displayName string, identity *string) (*models.Participant, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "display name is required")
	}
	if len(name) > maxDisplayNameLen {
		return nil, apperr.New(apperr.CodeInvalidArgument, fmt.Sprintf("display name longer than %d characters", maxDisplayNameLen))
	}
	if session.Ended() {
		return nil, apperr.New(apperr.CodeInvalidTransition, "session has ended")
	}

	count, err := s.store.CountParticipants(ctx, session.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "count participants", err)
	}
	if limit := session.Settings.MaxParticipants(s.defaultCapacity); limit > 0 && int(count) >= limit {
		return nil, apperr.WithMetadata(apperr.CodeSessionFull, "session is full",
			map[string]string{"max_participants": fmt.Sprint(limit)})
	}

	now := s.now().UTC()
	return &models.Participant{
		SessionID:   session.ID,
		Identity:    identity,
		DisplayName: name,
		Status:      models.ParticipantJoined,
		JoinedAt:    now,
		LastSeen:    now,
	}, nil
}

// announce publishes participant.joined for a stored participant.
func (s *ParticipantService) announce(ctx context.Context, p *models.Participant) {
	if s.pub != nil {
		if err := s.pub.Publish(ctx, realtime.RoomChannel(p.SessionID), realtime.EventParticipantJoined, p); err != nil {
			publishFailed(ctx, "participant joined", err)
		}
	}
	logger.FromCtx(ctx).Info("participant joined", "session_id", p.SessionID, "participant_id", p.ID)
}

func createErr(name string, err error) error {
	if errors.Is(err, store.ErrDuplicate) {
		return apperr.Wrap(apperr.CodeDisplayNameTaken, fmt.Sprintf("display name %q is taken", name), err)
	}
	return apperr.Wrap(apperr.CodeInternal, "create participant", err)
}

func (s *ParticipantService) List(ctx context.Context, sessionID uint) ([]models.Participant, error) {
	list, err := s.store.ListParticipants(ctx, sessionID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "list participants", err)
	}
	return list, nil
}

// MarkActive, MarkDisconnected and Touch record websocket presence.

func (s *ParticipantService) MarkActive(ctx context.Context, sessionID, participantID uint) error {
	return s.setPresence(ctx, sessionID, participantID, models.ParticipantActive)
}

func (s *ParticipantService) MarkDisconnected(ctx context.Context, sessionID, participantID uint) error {
	return s.setPresence(ctx, sessionID, participantID, models.ParticipantDisconnected)
}

func (s *ParticipantService) Touch(ctx context.Context, sessionID, participantID uint) error {
	return s.setPresence(ctx, sessionID, participantID, models.ParticipantActive)
}

func (s *ParticipantService) setPresence(ctx context.Context, sessionID, participantID uint, status models.ParticipantStatus) error {
	err := s.store.UpdateParticipantPresence(ctx, sessionID, participantID, status, s.now().UTC())
	if err != nil {
		return storeErr(err, "participant not found")
	}
	return nil
}

// SweepStale marks participants whose last heartbeat is older than timeout as disconnected.
func (s *ParticipantService) SweepStale(ctx context.Context, timeout time.Duration) (int64, error) {
	n, err := s.store.MarkParticipantsDisconnected(ctx, s.now().UTC().Add(-timeout))
	if err != nil {
		return 0, apperr.Wrap(apperr.CodeInternal, "sweep stale participants", err)
	}
	return n, nil
}
