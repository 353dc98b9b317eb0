package gemini

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/koscakluka/vocablive/core/audio"
	"github.com/koscakluka/vocablive/core/engine"
	"github.com/koscakluka/vocablive/core/events"
	"google.golang.org/genai"
)

// liveSession is the subset of *genai.Session the engine drives.
type liveSession interface {
	SendRealtimeInput(input genai.LiveRealtimeInput) error
	SendClientContent(input genai.LiveClientContentInput) error
	SendToolResponse(input genai.LiveToolResponseInput) error
	Receive() (*genai.LiveServerMessage, error)
	Close() error
}

type session struct {
	live          liveSession
	inputEncoding audio.EncodingInfo

	// The underlying websocket does not allow concurrent writes.
	writeMu sync.Mutex
	closed  atomic.Bool

	pending []engine.Event
}

func newSession(live liveSession, inputEncoding audio.EncodingInfo) *session {
	return &session{live: live, inputEncoding: inputEncoding}
}

func (s *session) SendAudio(ctx context.Context, pcm []byte) error {
	return s.send(func() error {
		return s.live.SendRealtimeInput(genai.LiveRealtimeInput{
			Audio: &genai.Blob{Data: pcm, MIMEType: s.inputEncoding.MIMEType()},
		})
	})
}

func (s *session) RespondToFunctionCall(ctx context.Context, call engine.FunctionCall, output string) error {
	_, span := tracer.Start(ctx, "respond to function call")
	defer span.End()

	err := s.send(func() error {
		return s.live.SendToolResponse(genai.LiveToolResponseInput{
			FunctionResponses: []*genai.FunctionResponse{{
				ID:       call.ID,
				Name:     call.Name,
				Response: map[string]any{"output": output},
			}},
		})
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (s *session) Generate(ctx context.Context, prompt string) error {
	_, span := tracer.Start(ctx, "generate turn")
	defer span.End()

	err := s.send(func() error {
		return s.live.SendClientContent(genai.LiveClientContentInput{
			Turns:        genai.Text(prompt),
			TurnComplete: genai.Ptr(true),
		})
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// CancelGeneration closes the live stream, which is the only way to stop a
// turn the model is still producing.
func (s *session) CancelGeneration() {
	if err := s.Close(); err != nil {
		logger.Warn("failed to close live session", "error", err)
	}
}

// Receive blocks on the live stream regardless of ctx. Close the session to
// unblock it.
func (s *session) Receive(ctx context.Context) (engine.Event, error) {
	for len(s.pending) == 0 {
		if s.closed.Load() {
			return nil, engine.ErrSessionClosed
		}

		msg, err := s.live.Receive()
		if err != nil {
			if s.closed.Load() {
				return nil, engine.ErrSessionClosed
			}
			return nil, fmt.Errorf("failed to receive from live api: %w", err)
		}
		s.pending = translate(msg)
	}

	event := s.pending[0]
	s.pending = s.pending[1:]
	return event, nil
}

func (s *session) OutputEncoding() audio.EncodingInfo {
	return audio.GetDefaultOutputEncodingInfo()
}

func (s *session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.live.Close()
}

func (s *session) send(write func() error) error {
	if s.closed.Load() {
		return engine.ErrSessionClosed
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := write(); err != nil {
		if s.closed.Load() {
			return engine.ErrSessionClosed
		}
		return err
	}
	return nil
}

// translate flattens a server message into engine events, in the order a
// listener should observe them: what the user said, the reply, then turn
// boundaries and function calls.
func translate(msg *genai.LiveServerMessage) []engine.Event {
	if msg == nil {
		return nil
	}

	var out []engine.Event
	if content := msg.ServerContent; content != nil {
		if content.InputTranscription != nil && content.InputTranscription.Text != "" {
			out = append(out, engine.Transcript{Role: events.TranscriptRoleUser, Text: content.InputTranscription.Text})
		}
		if content.ModelTurn != nil {
			for _, part := range content.ModelTurn.Parts {
				if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
					out = append(out, engine.Audio{Data: part.InlineData.Data})
				}
			}
		}
		if content.OutputTranscription != nil && content.OutputTranscription.Text != "" {
			out = append(out, engine.Transcript{Role: events.TranscriptRoleAssistant, Text: content.OutputTranscription.Text})
		}
		if content.Interrupted {
			out = append(out, engine.Interrupted{})
		}
		if content.TurnComplete {
			out = append(out, engine.TurnComplete{})
		}
	}

	if msg.ToolCall != nil {
		for _, call := range msg.ToolCall.FunctionCalls {
			if call == nil {
				continue
			}
			out = append(out, engine.FunctionCall{ID: call.ID, Name: call.Name, Arguments: call.Args})
		}
	}

	return out
}
