package models

import "time"

type Attempt struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	SessionID       uint      `gorm:"not null;uniqueIndex:idx_attempt_key" json:"session_id"`
	ParticipantID   uint      `gorm:"not null;uniqueIndex:idx_attempt_key" json:"participant_id"`
	QuestionIndex   int       `gorm:"not null;uniqueIndex:idx_attempt_key" json:"question_index"`
	QuestionID      uint      `gorm:"not null" json:"question_id"`
	Answer          Answer    `gorm:"not null" json:"answer"`
	IsCorrect       bool      `gorm:"not null" json:"is_correct"`
	AttemptNo       int       `gorm:"not null;default:1" json:"attempt_no"`
	AnsweredAt      time.Time `json:"answered_at"`
	DurationSeconds float64   `json:"duration_seconds"`
}
