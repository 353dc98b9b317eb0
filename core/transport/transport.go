// Package transport connects a session to its room: learner audio in,
// assistant audio out, and the `{type,payload}` side channel both ways.
package transport

import (
	"context"

	"github.com/koscakluka/vocablive/core/events"
)

// Event is a room occurrence delivered to the session.
type Event interface {
	isTransportEvent()
}

// ClientReady is sent by the learner's client once it can play audio.
type ClientReady struct{}

type ParticipantJoined struct {
	Participant events.ParticipantPayload
}

type ParticipantLeft struct {
	Participant events.ParticipantPayload
}

// RoomExpired means the room reached its end of life and everyone was
// ejected.
type RoomExpired struct{}

// Message is any other side-channel message.
type Message struct {
	Message events.RawMessage
}

func (ClientReady) isTransportEvent()       {}
func (ParticipantJoined) isTransportEvent() {}
func (ParticipantLeft) isTransportEvent()   {}
func (RoomExpired) isTransportEvent()       {}
func (Message) isTransportEvent()           {}

// Conn is a joined room. Audio and Events are closed once the connection is
// gone.
type Conn interface {
	Audio() <-chan []byte
	Events() <-chan Event

	SendAudio(ctx context.Context, pcm []byte) error
	SendMessage(ctx context.Context, msg events.ServerMessage) error
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, roomURL, token string) (Conn, error)
}
