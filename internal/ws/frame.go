// Package ws carries the realtime transport over websockets: Server binds a
// socket to the in-process broker, Client implements realtime.Transport on
// the participant side.
package ws

import (
	"encoding/json"

	"github.com/pinkknives/skolapp-v3-sub001/internal/realtime"
)

// Frame ops sent by clients.
const (
	OpSubscribe         = "subscribe"
	OpUnsubscribe       = "unsubscribe"
	OpPublish           = "publish"
	OpPresenceSubscribe = "presence.subscribe"
	OpPresenceEnter     = "presence.enter"
	OpPresenceUpdate    = "presence.update"
	OpPresenceLeave     = "presence.leave"
	OpPresenceGet       = "presence.get"
)

// Frame ops sent by the server.
const (
	OpWelcome  = "welcome"
	OpAck      = "ack"
	OpMessage  = "message"
	OpPresence = "presence"
)

// Frame is the single JSON envelope used in both directions.
type Frame struct {
	Op       string                    `json:"op"`
	ID       string                    `json:"id,omitempty"`
	Channel  string                    `json:"channel,omitempty"`
	Event    string                    `json:"event,omitempty"`
	Data     json.RawMessage           `json:"data,omitempty"`
	ClientID string                    `json:"client_id,omitempty"`
	Message  *realtime.Message         `json:"message,omitempty"`
	Presence *realtime.PresenceEvent   `json:"presence,omitempty"`
	Members  []realtime.PresenceMember `json:"members,omitempty"`
	Error    string                    `json:"error,omitempty"`
}
