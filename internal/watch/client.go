package watch

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/koscakluka/vocablive/core/events"
	"github.com/koscakluka/vocablive/core/transport"
)

// --- Bubble Tea messages ---

// ConnectedMsg is sent once the observer joined the room.
type ConnectedMsg struct{ conn transport.Conn }

// DisconnectedMsg is sent when the room connection ends.
type DisconnectedMsg struct{ Err error }

type WordDetectedMsg struct{ Word string }

type WordsCompleteMsg struct{ Word string }

type SessionStateMsg struct{ Payload events.SessionStatePayload }

type TranscriptMsg struct{ Payload events.TranscriptPayload }

type ParticipantMsg struct {
	Joined      bool
	Participant events.ParticipantPayload
}

type RoomExpiredMsg struct{}

// roomEventMsg carries room traffic the model does not render.
type roomEventMsg struct{}

// Client follows a room as an observer.
type Client struct {
	roomURL string
	dialer  transport.Dialer
}

func NewClient(roomURL string, dialer transport.Dialer) *Client {
	if dialer == nil {
		dialer = transport.NewDialer(transport.WithRole("observer"))
	}
	return &Client{roomURL: roomURL, dialer: dialer}
}

// Connect returns a command that joins the room.
func (c *Client) Connect(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		conn, err := c.dialer.Dial(ctx, c.roomURL, "")
		if err != nil {
			return DisconnectedMsg{Err: err}
		}
		return ConnectedMsg{conn: conn}
	}
}

// Next returns a command that waits for the next room event.
func Next(conn transport.Conn) tea.Cmd {
	if conn == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-conn.Events()
		if !ok {
			return DisconnectedMsg{}
		}
		return dispatch(event)
	}
}

func dispatch(event transport.Event) tea.Msg {
	switch event := event.(type) {
	case transport.ParticipantJoined:
		return ParticipantMsg{Joined: true, Participant: event.Participant}
	case transport.ParticipantLeft:
		return ParticipantMsg{Participant: event.Participant}
	case transport.RoomExpired:
		return RoomExpiredMsg{}
	case transport.Message:
		msg := event.Message
		switch msg.Type {
		case events.MessageWordDetected:
			var word string
			if msg.DecodePayload(&word) == nil {
				return WordDetectedMsg{Word: word}
			}
		case events.MessageWordsComplete:
			var word string
			if msg.DecodePayload(&word) == nil {
				return WordsCompleteMsg{Word: word}
			}
		case events.MessageSessionState:
			var payload events.SessionStatePayload
			if msg.DecodePayload(&payload) == nil {
				return SessionStateMsg{Payload: payload}
			}
		case events.MessageTranscript:
			var payload events.TranscriptPayload
			if msg.DecodePayload(&payload) == nil {
				return TranscriptMsg{Payload: payload}
			}
		}
	}
	return roomEventMsg{}
}
