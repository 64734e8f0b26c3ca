package store

import (
	"context"
	"time"

	"github.com/pinkknives/skolapp-v3-sub001/internal/models"
)

func (s *Store) CreateParticipant(ctx context.Context, p *models.Participant) error {
	return translate(s.conn(ctx).Create(p).Error)
}

func (s *Store) GetParticipant(ctx context.Context, sessionID, participantID uint) (*models.Participant, error) {
	var p models.Participant
	err := s.conn(ctx).Where("id = ? AND session_id = ?", participantID, sessionID).First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *Store) FindParticipantByIdentity(ctx context.Context, sessionID uint, identity string) (*models.Participant, error) {
	var p models.Participant
	err := s.conn(ctx).Where("session_id = ? AND identity = ?", sessionID, identity).First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *Store) ListParticipants(ctx context.Context, sessionID uint) ([]models.Participant, error) {
	var list []models.Participant
	err := s.conn(ctx).Where("session_id = ?", sessionID).Order("joined_at ASC, id ASC").Find(&list).Error
	return list, err
}

func (s *Store) CountParticipants(ctx context.Context, sessionID uint) (int64, error) {
	var count int64
	err := s.conn(ctx).Model(&models.Participant{}).Where("session_id = ?", sessionID).Count(&count).Error
	return count, err
}

// UpdateParticipantPresence records a presence transition and heartbeat.
func (s *Store) UpdateParticipantPresence(ctx context.Context, sessionID, participantID uint, status models.ParticipantStatus, seen time.Time) error {
	res := s.conn(ctx).Model(&models.Participant{}).
		Where("id = ? AND session_id = ?", participantID, sessionID).
		Updates(map[string]any{"status": status, "last_seen": seen})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkParticipantsDisconnected flips active participants whose heartbeat is older than cutoff.
func (s *Store) MarkParticipantsDisconnected(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.conn(ctx).Model(&models.Participant{}).
		Where("status = ? AND last_seen < ?", models.ParticipantActive, cutoff).
		Update("status", models.ParticipantDisconnected)
	return res.RowsAffected, res.Error
}
