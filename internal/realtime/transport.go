// Package realtime defines the pub/sub transport contract used by the
// session engine: named channels with per-event subscriptions and presence.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrClosed is returned by operations on a transport that is no longer connected.
var ErrClosed = errors.New("transport closed")

type Message struct {
	Channel   string          `json:"channel"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"ts"`
}

// Decode unmarshals the message payload into dst.
func (m Message) Decode(dst any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("message %s/%s has no data", m.Channel, m.Event)
	}
	return json.Unmarshal(m.Data, dst)
}

// NewMessage marshals data into a message.
func NewMessage(channel, event string, data any) (Message, error) {
	msg := Message{Channel: channel, Event: event, Timestamp: time.Now().UTC()}
	if data == nil {
		return msg, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return msg, fmt.Errorf("marshal %s/%s: %w", channel, event, err)
	}
	msg.Data = raw
	return msg, nil
}

type Role string

const (
	RoleController  Role = "controller"
	RoleParticipant Role = "participant"
)

// PresenceData is what a client advertises while present on a channel.
type PresenceData struct {
	Role          Role      `json:"role"`
	DisplayName   string    `json:"display_name"`
	JoinedAt      time.Time `json:"joined_at"`
	IsActive      bool      `json:"is_active"`
	ParticipantID uint      `json:"participant_id,omitempty"`
}

type PresenceMember struct {
	ClientID string       `json:"client_id"`
	Data     PresenceData `json:"data"`
}

type PresenceAction string

const (
	PresenceEnter  PresenceAction = "enter"
	PresenceLeave  PresenceAction = "leave"
	PresenceUpdate PresenceAction = "update"
)

type PresenceEvent struct {
	Channel string         `json:"channel"`
	Action  PresenceAction `json:"action"`
	Member  PresenceMember `json:"member"`
}

// Unsubscribe removes a previously registered handler.
type Unsubscribe func()

type Presence interface {
	Enter(ctx context.Context, data PresenceData) error
	Update(ctx context.Context, data PresenceData) error
	Leave(ctx context.Context) error
	Get(ctx context.Context) ([]PresenceMember, error)
	Subscribe(handler func(PresenceEvent)) (Unsubscribe, error)
}

type Channel interface {
	Name() string
	Publish(ctx context.Context, event string, data any) error
	// Subscribe registers handler for event; an empty event matches all events.
	Subscribe(event string, handler func(Message)) (Unsubscribe, error)
	Presence() Presence
}

// Transport is one client's link to the pub/sub fabric.
type Transport interface {
	ClientID() string
	Channel(name string) Channel
	// Done is closed when the link is lost or closed.
	Done() <-chan struct{}
	// Err reports why Done was closed.
	Err() error
	Close() error
}

// Publisher is the server-side fan-out surface.
type Publisher interface {
	Publish(ctx context.Context, channel, event string, data any) error
}
