package watch

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/koscakluka/vocablive/core/events"
	"github.com/koscakluka/vocablive/core/transport"
)

type fakeConn struct {
	events chan transport.Event
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{events: make(chan transport.Event, 8)}
}

func (c *fakeConn) Audio() <-chan []byte           { return nil }
func (c *fakeConn) Events() <-chan transport.Event { return c.events }
func (c *fakeConn) SendAudio(context.Context, []byte) error {
	return nil
}
func (c *fakeConn) SendMessage(context.Context, events.ServerMessage) error {
	return nil
}
func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

type fakeDialer struct {
	conn  transport.Conn
	err   error
	token string
}

func (d *fakeDialer) Dial(_ context.Context, _, token string) (transport.Conn, error) {
	d.token = token
	return d.conn, d.err
}

func rawMessage(t *testing.T, msgType string, payload any) transport.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return transport.Message{Message: events.RawMessage{Type: msgType, Payload: data}}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", next)
	}
	return model
}

func TestDispatch(t *testing.T) {
	testCases := []struct {
		name     string
		event    transport.Event
		expected tea.Msg
	}{
		{
			name:     "word detected",
			event:    rawMessage(t, events.MessageWordDetected, "Sakura"),
			expected: WordDetectedMsg{Word: "Sakura"},
		},
		{
			name:     "words complete",
			event:    rawMessage(t, events.MessageWordsComplete, "tsuki"),
			expected: WordsCompleteMsg{Word: "tsuki"},
		},
		{
			name:     "session state",
			event:    rawMessage(t, events.MessageSessionState, events.SessionStatePayload{State: "in_progress", Remaining: 2}),
			expected: SessionStateMsg{Payload: events.SessionStatePayload{State: "in_progress", Remaining: 2}},
		},
		{
			name:     "transcript",
			event:    rawMessage(t, events.MessageTranscript, events.TranscriptPayload{Role: events.TranscriptRoleUser, Text: "hi"}),
			expected: TranscriptMsg{Payload: events.TranscriptPayload{Role: events.TranscriptRoleUser, Text: "hi"}},
		},
		{
			name:     "participant joined",
			event:    transport.ParticipantJoined{Participant: events.ParticipantPayload{ID: "a"}},
			expected: ParticipantMsg{Joined: true, Participant: events.ParticipantPayload{ID: "a"}},
		},
		{
			name:     "room expired",
			event:    transport.RoomExpired{},
			expected: RoomExpiredMsg{},
		},
		{
			name:     "malformed payload",
			event:    rawMessage(t, events.MessageWordDetected, 42),
			expected: roomEventMsg{},
		},
		{
			name:     "client ready",
			event:    transport.ClientReady{},
			expected: roomEventMsg{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := dispatch(tc.event); got != tc.expected {
				t.Fatalf("expected %#v, got %#v", tc.expected, got)
			}
		})
	}
}

func TestConnectJoinsAsObserverWithoutToken(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conn: conn, token: "unset"}
	client := NewClient("http://localhost:8000/rooms/abc", dialer)

	msg := client.Connect(context.Background())()
	connected, ok := msg.(ConnectedMsg)
	if !ok {
		t.Fatalf("expected ConnectedMsg, got %T", msg)
	}
	if connected.conn != conn {
		t.Fatalf("expected the dialed connection")
	}
	if dialer.token != "" {
		t.Fatalf("expected no token, got %q", dialer.token)
	}
}

func TestConnectFailure(t *testing.T) {
	dialErr := errors.New("refused")
	client := NewClient("http://localhost:8000/rooms/abc", &fakeDialer{err: dialErr})

	msg := client.Connect(context.Background())()
	disconnected, ok := msg.(DisconnectedMsg)
	if !ok {
		t.Fatalf("expected DisconnectedMsg, got %T", msg)
	}
	if !errors.Is(disconnected.Err, dialErr) {
		t.Fatalf("expected %v, got %v", dialErr, disconnected.Err)
	}
}

func TestNextReportsClosedConnection(t *testing.T) {
	conn := newFakeConn()
	close(conn.events)

	if msg := Next(conn)(); msg != (DisconnectedMsg{}) {
		t.Fatalf("expected DisconnectedMsg, got %#v", msg)
	}
	if Next(nil) != nil {
		t.Fatalf("expected no command without a connection")
	}
}

func TestModelTracksSession(t *testing.T) {
	conn := newFakeConn()
	m := New(nil, []string{"sakura", "tsuki", "Sakura"})
	if len(m.words) != 2 {
		t.Fatalf("expected 2 normalized words, got %v", m.words)
	}

	m = update(t, m, ConnectedMsg{conn: conn})
	m = update(t, m, ParticipantMsg{Joined: true})
	m = update(t, m, ParticipantMsg{Joined: true})
	m = update(t, m, SessionStateMsg{Payload: events.SessionStatePayload{State: "in_progress", Remaining: 2}})
	m = update(t, m, WordDetectedMsg{Word: "SAKURA"})
	m = update(t, m, SessionStateMsg{Payload: events.SessionStatePayload{State: "in_progress", Remaining: 1}})

	if !m.connected {
		t.Fatalf("expected model to be connected")
	}
	if m.participants != 2 {
		t.Fatalf("expected 2 participants, got %d", m.participants)
	}
	if !m.found["sakura"] || m.found["tsuki"] {
		t.Fatalf("expected only sakura found, got %v", m.found)
	}
	if m.remaining != 1 {
		t.Fatalf("expected 1 remaining, got %d", m.remaining)
	}

	m = update(t, m, WordsCompleteMsg{Word: "tsuki"})
	if !m.complete || !m.found["tsuki"] {
		t.Fatalf("expected all words complete")
	}

	view := m.View()
	for _, expected := range []string{"sakura", "tsuki", "All words found!", "1 left"} {
		if !strings.Contains(view, expected) {
			t.Fatalf("expected view to contain %q, got:\n%s", expected, view)
		}
	}
}

func TestModelAddsUnlistedDetectedWords(t *testing.T) {
	m := New(nil, nil)
	m = update(t, m, WordDetectedMsg{Word: "hoshi"})
	m = update(t, m, WordDetectedMsg{Word: "Hoshi"})

	if len(m.words) != 1 || m.words[0] != "hoshi" {
		t.Fatalf("expected [hoshi], got %v", m.words)
	}
}

func TestModelMergesTranscriptFragments(t *testing.T) {
	m := New(nil, nil)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m = update(t, m, TranscriptMsg{Payload: events.TranscriptPayload{Role: events.TranscriptRoleAssistant, Text: "Hello"}})
	m = update(t, m, TranscriptMsg{Payload: events.TranscriptPayload{Role: events.TranscriptRoleAssistant, Text: "there"}})
	m = update(t, m, TranscriptMsg{Payload: events.TranscriptPayload{Role: events.TranscriptRoleUser, Text: "  "}})
	m = update(t, m, TranscriptMsg{Payload: events.TranscriptPayload{Role: events.TranscriptRoleUser, Text: "sakura"}})

	if len(m.lines) != 2 {
		t.Fatalf("expected 2 transcript lines, got %d", len(m.lines))
	}
	if m.lines[0].text != "Hello there" {
		t.Fatalf("expected merged assistant line, got %q", m.lines[0].text)
	}
	if m.lines[1].role != events.TranscriptRoleUser {
		t.Fatalf("expected user line, got %q", m.lines[1].role)
	}
}

func TestModelDisconnect(t *testing.T) {
	m := New(nil, nil)
	m = update(t, m, DisconnectedMsg{Err: errors.New("boom")})

	if !m.ended {
		t.Fatalf("expected model to be ended")
	}
	if !strings.Contains(m.View(), "disconnected: boom") {
		t.Fatalf("expected error in view, got:\n%s", m.View())
	}
}

func TestQuitClosesConnection(t *testing.T) {
	conn := newFakeConn()
	m := New(nil, nil)
	m = update(t, m, ConnectedMsg{conn: conn})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
	if !conn.closed {
		t.Fatalf("expected connection to be closed")
	}
	if m.ctx.Err() == nil {
		t.Fatalf("expected context to be cancelled")
	}
}
