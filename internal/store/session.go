package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pinkknives/skolapp-v3-sub001/internal/models"

	"gorm.io/gorm"
)

// SessionPatch lists the columns a conditional update may change. Nil fields
// are left untouched.
type SessionPatch struct {
	State                   *models.SessionState
	Status                  *models.SessionStatus
	CurrentIndex            *int
	QuestionWindowSeconds   *int
	QuestionWindowStartedAt *time.Time
	StartedAt               *time.Time
	EndedAt                 *time.Time
}

func (p SessionPatch) columns() map[string]any {
	cols := map[string]any{}
	if p.State != nil {
		cols["state"] = *p.State
	}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	if p.CurrentIndex != nil {
		cols["current_index"] = *p.CurrentIndex
	}
	if p.QuestionWindowSeconds != nil {
		cols["question_window_seconds"] = *p.QuestionWindowSeconds
	}
	if p.QuestionWindowStartedAt != nil {
		cols["question_window_started_at"] = *p.QuestionWindowStartedAt
	}
	if p.StartedAt != nil {
		cols["started_at"] = *p.StartedAt
	}
	if p.EndedAt != nil {
		cols["ended_at"] = *p.EndedAt
	}
	return cols
}

func (p SessionPatch) Empty() bool {
	return len(p.columns()) == 0
}

func (s *Store) CreateSession(ctx context.Context, session *models.Session) error {
	if session.Version == 0 {
		session.Version = 1
	}
	return translate(s.conn(ctx).Create(session).Error)
}

func (s *Store) GetSession(ctx context.Context, id uint) (*models.Session, error) {
	var session models.Session
	if err := s.conn(ctx).First(&session, id).Error; err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

// GetSessionByCode returns the newest non-ended session using code.
func (s *Store) GetSessionByCode(ctx context.Context, code string) (*models.Session, error) {
	var session models.Session
	err := s.conn(ctx).
		Where("code = ? AND state != ?", code, models.StateEnded).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (s *Store) CodeInUse(ctx context.Context, code string) (bool, error) {
	var count int64
	err := s.conn(ctx).Model(&models.Session{}).
		Where("code = ? AND state != ?", code, models.StateEnded).
		Count(&count).Error
	return count > 0, err
}

// ConditionalUpdateSession applies patch only if the row still carries
// expectedVersion and expectedState, bumping the version. It returns
// ErrConflict when another writer got there first.
func (s *Store) ConditionalUpdateSession(ctx context.Context, id uint, expectedVersion int64, expectedState models.SessionState, patch SessionPatch) (*models.Session, error) {
	cols := patch.columns()
	cols["version"] = gorm.Expr("version + 1")

	var updated models.Session
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Session{}).
			Where("id = ? AND version = ? AND state = ?", id, expectedVersion, expectedState).
			Updates(cols)
		if res.Error != nil {
			return fmt.Errorf("conditional update session: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Session{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrNotFound
			}
			return ErrConflict
		}
		return tx.First(&updated, id).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &updated, nil
}

func (s *Store) AppendControlEvent(ctx context.Context, event *models.ControlEvent) error {
	if event.ID != 0 {
		return fmt.Errorf("control events are write-once")
	}
	return translate(s.conn(ctx).Create(event).Error)
}

func (s *Store) ListControlEvents(ctx context.Context, sessionID uint) ([]models.ControlEvent, error) {
	var events []models.ControlEvent
	err := s.conn(ctx).Where("session_id = ?", sessionID).Order("id ASC").Find(&events).Error
	return events, err
}
