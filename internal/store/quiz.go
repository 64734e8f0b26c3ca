package store

import (
	"context"

	"github.com/pinkknives/skolapp-v3-sub001/internal/models"

	"gorm.io/gorm"
)

func (s *Store) GetQuiz(ctx context.Context, quizID uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := s.conn(ctx).First(&quiz, quizID).Error; err != nil {
		return nil, translate(err)
	}
	return &quiz, nil
}

// ListQuestions returns the quiz questions in play order with their options.
func (s *Store) ListQuestions(ctx context.Context, quizID uint) ([]models.Question, error) {
	var questions []models.Question
	err := s.conn(ctx).Where("quiz_id = ?", quizID).
		Order("order_num ASC, id ASC").
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_num ASC, id ASC")
		}).
		Find(&questions).Error
	return questions, err
}

// CreateQuiz stores a quiz with its questions and options.
func (s *Store) CreateQuiz(ctx context.Context, quiz *models.Quiz) error {
	return translate(s.conn(ctx).Create(quiz).Error)
}
