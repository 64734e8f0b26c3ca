package realtime

import "fmt"

// Event names published by the engine.
const (
	EventControl           = "control"
	EventAnswerCount       = "answer.count"
	EventParticipantJoined = "participant.joined"
)

func ControlChannel(sessionID uint) string {
	return fmt.Sprintf("session:%d:control", sessionID)
}

func RoomChannel(sessionID uint) string {
	return fmt.Sprintf("session:%d:room", sessionID)
}

func AnswersChannel(sessionID uint) string {
	return fmt.Sprintf("session:%d:answers", sessionID)
}

// SessionChannels lists the channels a client opens for a session.
func SessionChannels(sessionID uint) []string {
	return []string{ControlChannel(sessionID), RoomChannel(sessionID), AnswersChannel(sessionID)}
}

// ChannelBelongsTo reports whether name is one of the session's channels.
func ChannelBelongsTo(name string, sessionID uint) bool {
	for _, ch := range SessionChannels(sessionID) {
		if ch == name {
			return true
		}
	}
	return false
}
