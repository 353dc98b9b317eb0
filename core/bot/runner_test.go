package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/koscakluka/vocablive/core/audio"
	"github.com/koscakluka/vocablive/core/conversation"
	"github.com/koscakluka/vocablive/core/engine"
	"github.com/koscakluka/vocablive/core/events"
	"github.com/koscakluka/vocablive/core/session"
	"github.com/koscakluka/vocablive/core/transport"
)

type fakeConn struct {
	audio  chan []byte
	events chan transport.Event

	mu        sync.Mutex
	messages  []events.ServerMessage
	sentAudio [][]byte
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{audio: make(chan []byte, 8), events: make(chan transport.Event, 8)}
}

func (c *fakeConn) Audio() <-chan []byte           { return c.audio }
func (c *fakeConn) Events() <-chan transport.Event { return c.events }

func (c *fakeConn) SendAudio(_ context.Context, pcm []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sentAudio = append(c.sentAudio, pcm)
	return nil
}

func (c *fakeConn) SendMessage(_ context.Context, msg events.ServerMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.audio) })
	return nil
}

func (c *fakeConn) messageTypes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	types := make([]string, 0, len(c.messages))
	for _, msg := range c.messages {
		types = append(types, msg.Type)
	}
	return types
}

type fakeDialer struct {
	conn *fakeConn
	err  error
}

func (d *fakeDialer) Dial(context.Context, string, string) (transport.Conn, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

type fakeSession struct {
	events    chan engine.Event
	generated chan string
	responded chan string
	audio     chan []byte

	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		events:    make(chan engine.Event, 8),
		generated: make(chan string, 8),
		responded: make(chan string, 8),
		audio:     make(chan []byte, 8),
		closed:    make(chan struct{}),
	}
}

func (s *fakeSession) SendAudio(_ context.Context, pcm []byte) error {
	s.audio <- pcm
	return nil
}

func (s *fakeSession) RespondToFunctionCall(_ context.Context, _ engine.FunctionCall, output string) error {
	s.responded <- output
	return nil
}

func (s *fakeSession) Generate(_ context.Context, prompt string) error {
	s.generated <- prompt
	return nil
}

func (s *fakeSession) CancelGeneration() { s.Close() }

func (s *fakeSession) Receive(context.Context) (engine.Event, error) {
	select {
	case event := <-s.events:
		return event, nil
	case <-s.closed:
		return nil, engine.ErrSessionClosed
	}
}

func (s *fakeSession) OutputEncoding() audio.EncodingInfo { return audio.GetDefaultOutputEncodingInfo() }

func (s *fakeSession) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

type fakeEngine struct {
	session *fakeSession
	config  engine.Config
	err     error
}

func (e *fakeEngine) Connect(_ context.Context, config engine.Config) (engine.Session, error) {
	e.config = config
	if e.err != nil {
		return nil, e.err
	}
	return e.session, nil
}

func receive[T any](t *testing.T, ch chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("expected %s before timeout", what)
	}
	var zero T
	return zero
}

func startRunner(t *testing.T, runner *Runner, sc session.Context) chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- runner.Run(context.Background(), sc) }()
	return done
}

func TestRunnerCompletesSessionWhenAllWordsAreFound(t *testing.T) {
	conn := newFakeConn()
	es := newFakeSession()
	eng := &fakeEngine{session: es}
	runner := NewRunner(&fakeDialer{conn: conn}, eng, WithVoice("Charon"))

	done := startRunner(t, runner, session.NewContext("http://rooms/abc", "tok", []string{"sun", "moon"}, ""))

	conn.events <- transport.ClientReady{}
	receive(t, es.generated, "opening turn")

	conn.audio <- []byte{1, 2}
	if pcm := receive(t, es.audio, "learner audio"); string(pcm) != string([]byte{1, 2}) {
		t.Fatalf("expected learner audio forwarded, got %v", pcm)
	}

	es.events <- engine.Transcript{Role: events.TranscriptRoleUser, Text: "The sun is warm"}
	es.events <- engine.FunctionCall{ID: "1", Name: conversation.FunctionName, Arguments: map[string]any{"word": "sun"}}
	receive(t, es.responded, "progress guidance")

	es.events <- engine.FunctionCall{ID: "2", Name: conversation.FunctionName, Arguments: map[string]any{"word": "moon"}}
	if output := receive(t, es.responded, "closing instruction"); output != conversation.DefaultInstructions().Closing {
		t.Fatalf("expected closing instruction, got %q", output)
	}
	if prompt := receive(t, es.generated, "closing turn"); prompt != conversation.DefaultInstructions().Closing {
		t.Fatalf("expected closing turn, got %q", prompt)
	}

	es.events <- engine.Audio{Data: []byte{9}}
	es.events <- engine.TurnComplete{}

	select {
	case err := <-done:
		t.Fatalf("expected runner to wait for the closing turn, got %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	es.events <- engine.Audio{Data: []byte{10}}
	es.events <- engine.TurnComplete{}

	if err := receive(t, done, "runner to finish"); err != nil {
		t.Fatalf("expected clean finish, got %v", err)
	}

	if eng.config.Voice != "Charon" || len(eng.config.Functions) != 1 || eng.config.SystemInstruction == "" {
		t.Fatalf("expected configured engine, got %+v", eng.config)
	}

	types := conn.messageTypes()
	expected := []string{
		events.MessageSessionState,
		events.MessageTranscript,
		events.MessageWordDetected,
		events.MessageWordDetected,
		events.MessageSessionState,
		events.MessageWordsComplete,
		events.MessageSessionState,
	}
	if len(types) != len(expected) {
		t.Fatalf("expected messages %v, got %v", expected, types)
	}
	for i := range expected {
		if types[i] != expected[i] {
			t.Fatalf("expected messages %v, got %v", expected, types)
		}
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()
	if len(conn.sentAudio) != 2 || conn.sentAudio[0][0] != 9 || conn.sentAudio[1][0] != 10 {
		t.Fatalf("expected assistant audio sent to room, got %v", conn.sentAudio)
	}
}

func TestRunnerEndsWhenClosingTurnNeverFinishes(t *testing.T) {
	conn := newFakeConn()
	es := newFakeSession()
	runner := NewRunner(&fakeDialer{conn: conn}, &fakeEngine{session: es}, WithClosingTimeout(50*time.Millisecond))

	done := startRunner(t, runner, session.NewContext("http://rooms/abc", "tok", []string{"sun"}, ""))

	conn.events <- transport.ClientReady{}
	receive(t, es.generated, "opening turn")

	es.events <- engine.FunctionCall{ID: "1", Name: conversation.FunctionName, Arguments: map[string]any{"word": "sun"}}
	receive(t, es.responded, "closing instruction")
	receive(t, es.generated, "closing turn")

	if err := receive(t, done, "runner to give up on the closing turn"); err != nil {
		t.Fatalf("expected clean finish, got %v", err)
	}
}

func TestRunnerEndsWhenLearnerLeaves(t *testing.T) {
	conn := newFakeConn()
	es := newFakeSession()
	runner := NewRunner(&fakeDialer{conn: conn}, &fakeEngine{session: es})

	done := startRunner(t, runner, session.NewContext("http://rooms/abc", "tok", []string{"sun"}, ""))

	conn.events <- transport.ClientReady{}
	receive(t, es.generated, "opening turn")

	conn.events <- transport.ParticipantLeft{Participant: events.ParticipantPayload{ID: "bot", Owner: true}}
	conn.events <- transport.ParticipantLeft{Participant: events.ParticipantPayload{ID: "learner"}}

	if err := receive(t, done, "runner to finish"); err != nil {
		t.Fatalf("expected clean finish, got %v", err)
	}
	receive(t, es.closed, "engine session to close")
}

func TestRunnerEndsWhenRoomConnectionDrops(t *testing.T) {
	conn := newFakeConn()
	es := newFakeSession()
	runner := NewRunner(&fakeDialer{conn: conn}, &fakeEngine{session: es})

	done := startRunner(t, runner, session.NewContext("http://rooms/abc", "tok", []string{"sun"}, ""))
	close(conn.events)

	if err := receive(t, done, "runner to finish"); err != nil {
		t.Fatalf("expected clean finish, got %v", err)
	}
}

func TestRunnerFailsWhenEngineCannotConnect(t *testing.T) {
	cause := errors.New("quota exceeded")
	runner := NewRunner(&fakeDialer{conn: newFakeConn()}, &fakeEngine{err: cause})

	err := runner.Run(context.Background(), session.NewContext("http://rooms/abc", "tok", []string{"sun"}, ""))
	if !errors.Is(err, cause) {
		t.Fatalf("expected %v, got %v", cause, err)
	}
}

func TestRunnerFailsWhenRoomCannotBeJoined(t *testing.T) {
	cause := errors.New("room not found")
	runner := NewRunner(&fakeDialer{err: cause}, &fakeEngine{session: newFakeSession()})

	if err := runner.Run(context.Background(), session.NewContext("http://rooms/abc", "tok", nil, "")); !errors.Is(err, cause) {
		t.Fatalf("expected %v, got %v", cause, err)
	}
}
