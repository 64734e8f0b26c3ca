package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pinkknives/skolapp-v3-sub001/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttemptWrite is the payload of one submission.
type AttemptWrite struct {
	SessionID       uint
	ParticipantID   uint
	QuestionIndex   int
	QuestionID      uint
	Answer          models.Answer
	IsCorrect       bool
	AnsweredAt      time.Time
	DurationSeconds float64
}

// SessionGuard is re-checked against the session row inside the attempt
// transaction. Zero fields are not checked. On postgres the check takes the
// row lock, so a concurrent control update waits for the attempt to commit.
type SessionGuard struct {
	State        models.SessionState
	NotState     models.SessionState
	CurrentIndex *int
}

// AttemptOptions tune RecordAttempt. MaxAttempts > 0 caps replacements. A
// non-nil Guest is inserted in the same transaction and its ID becomes the
// attempt's participant.
type AttemptOptions struct {
	MaxAttempts int
	Guard       *SessionGuard
	Guest       *models.Participant
}

// UpsertAttempt inserts or replaces the attempt keyed by (session,
// participant, question index) in one statement, incrementing attempt_no on
// replacement. When maxAttempts > 0 a replacement is refused once attempt_no
// reached the ceiling and ErrMaxAttempts is returned.
func (s *Store) UpsertAttempt(ctx context.Context, w AttemptWrite, maxAttempts int) (*models.Attempt, error) {
	return s.RecordAttempt(ctx, w, AttemptOptions{MaxAttempts: maxAttempts})
}

// RecordAttempt is UpsertAttempt with an optional session guard and guest
// registration. A failed guard returns ErrConflict and leaves no rows behind.
func (s *Store) RecordAttempt(ctx context.Context, w AttemptWrite, opts AttemptOptions) (*models.Attempt, error) {
	var stored models.Attempt
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if opts.Guard != nil {
			if err := holdSession(tx, w.SessionID, *opts.Guard); err != nil {
				return err
			}
		}
		if opts.Guest != nil {
			if err := tx.Create(opts.Guest).Error; err != nil {
				return fmt.Errorf("create participant: %w", err)
			}
			w.ParticipantID = opts.Guest.ID
		}
		return upsertAttempt(tx, w, opts.MaxAttempts, &stored)
	})
	if err != nil {
		return nil, translate(err)
	}
	return &stored, nil
}

func holdSession(tx *gorm.DB, sessionID uint, g SessionGuard) error {
	q := tx.Model(&models.Session{}).Where("id = ?", sessionID)
	if g.State != "" {
		q = q.Where("state = ?", g.State)
	}
	if g.NotState != "" {
		q = q.Where("state <> ?", g.NotState)
	}
	if g.CurrentIndex != nil {
		q = q.Where("current_index = ?", *g.CurrentIndex)
	}
	res := q.UpdateColumn("version", gorm.Expr("version"))
	if res.Error != nil {
		return fmt.Errorf("hold session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func upsertAttempt(tx *gorm.DB, w AttemptWrite, maxAttempts int, stored *models.Attempt) error {
	row := models.Attempt{
		SessionID:       w.SessionID,
		ParticipantID:   w.ParticipantID,
		QuestionIndex:   w.QuestionIndex,
		QuestionID:      w.QuestionID,
		Answer:          w.Answer,
		IsCorrect:       w.IsCorrect,
		AttemptNo:       1,
		AnsweredAt:      w.AnsweredAt,
		DurationSeconds: w.DurationSeconds,
	}

	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}, {Name: "participant_id"}, {Name: "question_index"}},
		DoUpdates: clause.Assignments(map[string]any{
			"question_id":      w.QuestionID,
			"answer":           w.Answer,
			"is_correct":       w.IsCorrect,
			"answered_at":      w.AnsweredAt,
			"duration_seconds": w.DurationSeconds,
			"attempt_no":       gorm.Expr("attempts.attempt_no + 1"),
		}),
	}
	if maxAttempts > 0 {
		onConflict.Where = clause.Where{Exprs: []clause.Expression{
			gorm.Expr("attempts.attempt_no < ?", maxAttempts),
		}}
	}

	res := tx.Clauses(onConflict).Create(&row)
	if res.Error != nil {
		return fmt.Errorf("upsert attempt: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrMaxAttempts
	}
	return tx.Where("session_id = ? AND participant_id = ? AND question_index = ?",
		w.SessionID, w.ParticipantID, w.QuestionIndex).First(stored).Error
}

func (s *Store) GetAttempt(ctx context.Context, sessionID, participantID uint, questionIndex int) (*models.Attempt, error) {
	var a models.Attempt
	err := s.conn(ctx).
		Where("session_id = ? AND participant_id = ? AND question_index = ?", sessionID, participantID, questionIndex).
		First(&a).Error
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *Store) ListAttempts(ctx context.Context, sessionID uint) ([]models.Attempt, error) {
	var list []models.Attempt
	err := s.conn(ctx).Where("session_id = ?", sessionID).
		Order("question_index ASC, participant_id ASC").
		Find(&list).Error
	return list, err
}

// CountAnswered returns how many participants answered questionIndex.
func (s *Store) CountAnswered(ctx context.Context, sessionID uint, questionIndex int) (int64, error) {
	var count int64
	err := s.conn(ctx).Model(&models.Attempt{}).
		Where("session_id = ? AND question_index = ?", sessionID, questionIndex).
		Count(&count).Error
	return count, err
}
