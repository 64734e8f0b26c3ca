package models

import "time"

type ParticipantStatus string

const (
	ParticipantJoined       ParticipantStatus = "joined"
	ParticipantActive       ParticipantStatus = "active"
	ParticipantDisconnected ParticipantStatus = "disconnected"
)

type Participant struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	SessionID   uint              `gorm:"not null;uniqueIndex:idx_participant_name" json:"session_id"`
	Identity    *string           `gorm:"size:100;index" json:"identity,omitempty"`
	DisplayName string            `gorm:"size:100;not null;uniqueIndex:idx_participant_name" json:"display_name"`
	Status      ParticipantStatus `gorm:"size:20;not null;default:'joined'" json:"status"`
	JoinedAt    time.Time         `json:"joined_at"`
	LastSeen    time.Time         `json:"last_seen"`
}
