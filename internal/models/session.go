package models

import "time"

type SessionState string

const (
	StateIdle    SessionState = "idle"
	StateRunning SessionState = "running"
	StatePaused  SessionState = "paused"
	StateEnded   SessionState = "ended"
)

type SessionStatus string

const (
	StatusLobby SessionStatus = "lobby"
	StatusLive  SessionStatus = "live"
	StatusEnded SessionStatus = "ended"
)

// StatusFor derives the coarse status from a state.
func StatusFor(state SessionState) SessionStatus {
	switch state {
	case StateRunning, StatePaused:
		return StatusLive
	case StateEnded:
		return StatusEnded
	default:
		return StatusLobby
	}
}

type SessionMode string

const (
	ModeSync  SessionMode = "sync"
	ModeAsync SessionMode = "async"
)

type RevealPolicy string

const (
	RevealImmediate     RevealPolicy = "immediate"
	RevealAfterQuestion RevealPolicy = "after_question"
	RevealAfterDeadline RevealPolicy = "after_deadline"
)

func (p RevealPolicy) Valid() bool {
	switch p {
	case RevealImmediate, RevealAfterQuestion, RevealAfterDeadline:
		return true
	}
	return false
}

type Session struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	QuizID        uint          `gorm:"not null;index" json:"quiz_id"`
	ControllerID  string        `gorm:"size:100;not null;index" json:"controller_id"`
	Code          string        `gorm:"size:6;index" json:"code"`
	Mode          SessionMode   `gorm:"size:10;not null;default:'sync'" json:"mode"`
	Status        SessionStatus `gorm:"size:20;not null;default:'lobby'" json:"status"`
	State         SessionState  `gorm:"size:20;not null;default:'idle'" json:"state"`
	CurrentIndex  int           `gorm:"not null;default:0" json:"current_index"`
	QuestionCount int           `gorm:"not null" json:"question_count"`

	QuestionWindowSeconds   *int       `json:"question_window_seconds,omitempty"`
	QuestionWindowStartedAt *time.Time `json:"question_window_started_at,omitempty"`

	OpenAt           *time.Time   `json:"open_at,omitempty"`
	DueAt            *time.Time   `json:"due_at,omitempty"`
	MaxAttempts      *int         `json:"max_attempts,omitempty"`
	TimeLimitSeconds *int         `json:"time_limit_seconds,omitempty"`
	RevealPolicy     RevealPolicy `gorm:"size:20;not null;default:'after_question'" json:"reveal_policy"`

	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Settings  Settings   `gorm:"serializer:json" json:"settings,omitempty"`

	// Version is bumped by every conditional update.
	Version   int64     `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Session) IsLastQuestion() bool {
	return s.CurrentIndex >= s.QuestionCount-1
}

func (s *Session) Ended() bool {
	return s.State == StateEnded
}

// WindowDeadline returns when the current question window closes, if one is running.
func (s *Session) WindowDeadline() (time.Time, bool) {
	if s.QuestionWindowSeconds == nil || s.QuestionWindowStartedAt == nil || *s.QuestionWindowSeconds <= 0 {
		return time.Time{}, false
	}
	return s.QuestionWindowStartedAt.Add(time.Duration(*s.QuestionWindowSeconds) * time.Second), true
}

// Settings is the opaque per-session settings map.
type Settings map[string]any

const (
	SettingMaxParticipants = "maxParticipants"
	SettingAllowAnonymous  = "allowAnonymous"
)

// MaxParticipants returns the capacity limit, or fallback when unset.
func (s Settings) MaxParticipants(fallback int) int {
	switch v := s[SettingMaxParticipants].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return fallback
}

func (s Settings) AllowAnonymous() bool {
	v, _ := s[SettingAllowAnonymous].(bool)
	return v
}
