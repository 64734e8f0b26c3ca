package models

import "time"

type ControlAction string

const (
	ActionStart  ControlAction = "start"
	ActionPause  ControlAction = "pause"
	ActionNext   ControlAction = "next"
	ActionReveal ControlAction = "reveal"
	ActionEnd    ControlAction = "end"
)

func (a ControlAction) Valid() bool {
	switch a {
	case ActionStart, ActionPause, ActionNext, ActionReveal, ActionEnd:
		return true
	}
	return false
}

// ControlEvent is the write-once audit record of a control action.
type ControlEvent struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	SessionID uint           `gorm:"not null;index" json:"session_id"`
	Type      ControlAction  `gorm:"size:20;not null" json:"type"`
	Payload   map[string]any `gorm:"serializer:json" json:"payload,omitempty"`
	ActorID   string         `gorm:"size:100;not null" json:"actor_id"`
	Version   int64          `gorm:"not null" json:"version"`
	CreatedAt time.Time      `json:"created_at"`
}
