package events

import (
	"encoding/json"
	"fmt"
)

// Wire types of side-channel messages.
const (
	MessageWordDetected  = "word_detected"
	MessageWordsComplete = "words_complete"
	MessageSessionState  = "session_state"
	MessageTranscript    = "transcript"
)

// Room lifecycle messages exchanged between room participants and the hub.
const (
	MessageClientReady       = "client-ready"
	MessageParticipantJoined = "participant-joined"
	MessageParticipantLeft   = "participant-left"
	MessageRoomExpired       = "room-expired"
)

// ParticipantPayload identifies a room participant in join and leave
// messages.
type ParticipantPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Owner bool   `json:"owner"`
}

// ServerMessage is the `{type, payload}` envelope sent over the room's side
// channel.
type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// RawMessage is a received envelope with the payload left undecoded.
type RawMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func DecodeMessage(data []byte) (RawMessage, error) {
	var msg RawMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return RawMessage{}, fmt.Errorf("failed to decode side-channel message: %w", err)
	}
	if msg.Type == "" {
		return RawMessage{}, fmt.Errorf("side-channel message has no type")
	}
	return msg, nil
}

// DecodePayload unmarshals the payload of msg into v.
func (m RawMessage) DecodePayload(v any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("message %q has no payload", m.Type)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %q payload: %w", m.Type, err)
	}
	return nil
}
