// Package bot runs the conversation unit of a session: it joins the room,
// connects the engine, and drives the word-completion dialogue until the
// learner leaves or every word was found.
package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/koscakluka/vocablive/core/audio"
	"github.com/koscakluka/vocablive/core/conversation"
	"github.com/koscakluka/vocablive/core/engine"
	"github.com/koscakluka/vocablive/core/events"
	"github.com/koscakluka/vocablive/core/session"
	"github.com/koscakluka/vocablive/core/transport"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Runner struct {
	dialer transport.Dialer
	engine engine.Engine

	voice          string
	instructions   *conversation.Instructions
	closingTimeout time.Duration
}

// DefaultClosingTimeout bounds how long a completed session waits for the
// closing utterance to finish.
const DefaultClosingTimeout = 30 * time.Second

type Option func(*Runner)

func WithVoice(voice string) Option {
	return func(r *Runner) { r.voice = voice }
}

func WithInstructions(instructions conversation.Instructions) Option {
	return func(r *Runner) { r.instructions = &instructions }
}

func WithClosingTimeout(timeout time.Duration) Option {
	return func(r *Runner) { r.closingTimeout = timeout }
}

func NewRunner(dialer transport.Dialer, eng engine.Engine, opts ...Option) *Runner {
	r := &Runner{dialer: dialer, engine: eng, closingTimeout: DefaultClosingTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// dialogue is bound to the engine session once it is connected. The
// controller only uses it after that.
type dialogue struct {
	engine.Session
}

// Run blocks until the session ended. Reaching the end of the dialogue, the
// learner leaving, and the room expiring all end the session without error.
func (r *Runner) Run(ctx context.Context, sc session.Context) (err error) {
	ctx, span := tracer.Start(ctx, "run session")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", sc.ID),
		attribute.Int("session.words", len(sc.Words)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn, err := r.dialer.Dial(ctx, sc.RoomURL, sc.Token)
	if err != nil {
		return err
	}
	defer conn.Close()

	emit := func(event events.Event) {
		logger.DebugContext(ctx, "session event", "session", sc.ID, "kind", string(event.Kind()))
		sideChannel, ok := event.(events.SideChannel)
		if !ok {
			return
		}
		if err := conn.SendMessage(ctx, sideChannel.ServerMessage()); err != nil {
			logger.WarnContext(ctx, "failed to publish session event", "session", sc.ID, "kind", string(event.Kind()), "error", err)
		}
	}

	bound := &dialogue{}
	opts := []conversation.Option{
		conversation.WithSummary(sc.Summary),
		conversation.WithEventEmitter(emit),
		conversation.WithDialogue(bound),
	}
	if r.instructions != nil {
		opts = append(opts, conversation.WithInstructions(*r.instructions))
	}
	controller := conversation.New(sc.Words, opts...)

	systemInstruction, err := controller.SystemInstruction()
	if err != nil {
		return fmt.Errorf("failed to render system instruction: %w", err)
	}

	es, err := r.engine.Connect(ctx, engine.Config{
		SystemInstruction: systemInstruction,
		Functions:         []engine.FunctionDeclaration{controller.FunctionDeclaration()},
		Voice:             r.voice,
		InputEncoding:     audio.GetDefaultEncodingInfo(),
	})
	if err != nil {
		return fmt.Errorf("failed to connect engine: %w", err)
	}
	bound.Session = es
	defer es.Close()

	// Receive does not observe ctx, closing the session unblocks it.
	stopWatch := onDone(ctx, func() { es.Close() })
	defer close(stopWatch)

	engineEvents := make(chan engine.Event, 16)
	background := newWorkers(2)
	defer background.Wait()
	defer cancel()

	background.start(ctx, "audio uplink", func(ctx context.Context) error {
		return forwardAudio(ctx, conn, es)
	})
	background.start(ctx, "engine receive", func(ctx context.Context) error {
		return receiveEngineEvents(ctx, es, engineEvents)
	})

	logger.InfoContext(ctx, "session running", "session", sc.ID, "words", controller.Words())
	roomEvents := conn.Events()
	var closingDeadline <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			controller.HandleDisconnect(ctx)
			return ctx.Err()

		case <-controller.Done():
			logger.InfoContext(ctx, "session ended", "session", sc.ID, "remaining", controller.Remaining())
			return nil

		case event, ok := <-roomEvents:
			if !ok {
				logger.InfoContext(ctx, "room connection lost", "session", sc.ID)
				roomEvents = nil
				controller.HandleDisconnect(ctx)
				continue
			}
			if err := r.handleRoomEvent(ctx, controller, event); err != nil {
				return err
			}

		case event := <-engineEvents:
			if err := r.handleEngineEvent(ctx, controller, conn, emit, event); err != nil {
				return err
			}
			if closingDeadline == nil && controller.State() == conversation.StateAwaitingClose {
				closingDeadline = time.After(r.closingTimeout)
			}

		case <-closingDeadline:
			logger.WarnContext(ctx, "closing turn did not finish in time", "session", sc.ID)
			controller.HandleDisconnect(ctx)

		case result := <-background.Results():
			if result.err == nil {
				continue
			}
			if controller.State() == conversation.StateEnded {
				return nil
			}
			return result.err
		}
	}
}

func (r *Runner) handleRoomEvent(ctx context.Context, controller *conversation.Controller, event transport.Event) error {
	switch event := event.(type) {
	case transport.ClientReady:
		return controller.HandleClientReady(ctx)

	case transport.ParticipantJoined:
		logger.InfoContext(ctx, "participant joined", "participant", event.Participant.ID, "owner", event.Participant.Owner)

	case transport.ParticipantLeft:
		if event.Participant.Owner {
			return nil
		}
		logger.InfoContext(ctx, "learner left", "participant", event.Participant.ID)
		controller.HandleDisconnect(ctx)

	case transport.RoomExpired:
		logger.InfoContext(ctx, "room expired")
		controller.HandleDisconnect(ctx)
	}

	return nil
}

func (r *Runner) handleEngineEvent(ctx context.Context, controller *conversation.Controller, conn transport.Conn, emit func(events.Event), event engine.Event) error {
	switch event := event.(type) {
	case engine.Audio:
		if err := conn.SendAudio(ctx, event.Data); err != nil && !errors.Is(err, transport.ErrClosed) {
			return fmt.Errorf("failed to send assistant audio: %w", err)
		}

	case engine.FunctionCall:
		_, err := controller.HandleFunctionCall(ctx, event)
		switch {
		case errors.Is(err, conversation.ErrEnded), errors.Is(err, conversation.ErrUnknownFunction):
			logger.WarnContext(ctx, "function call ignored", "function", event.Name, "error", err)
		case err != nil:
			return err
		}

	case engine.TurnComplete:
		controller.HandleTurnComplete(ctx)

	case engine.Interrupted:
		logger.DebugContext(ctx, "assistant interrupted")

	case engine.Transcript:
		if event.Role == events.TranscriptRoleUser {
			emit(events.NewUserTranscript(event.Text))
		} else {
			emit(events.NewAssistantTranscript(event.Text))
		}
	}

	return nil
}

func forwardAudio(ctx context.Context, conn transport.Conn, es engine.Session) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case pcm, ok := <-conn.Audio():
			if !ok {
				return nil
			}
			if err := es.SendAudio(ctx, pcm); err != nil {
				if errors.Is(err, engine.ErrSessionClosed) {
					return nil
				}
				return err
			}
		}
	}
}

func receiveEngineEvents(ctx context.Context, es engine.Session, out chan<- engine.Event) error {
	for {
		event, err := es.Receive(ctx)
		if err != nil {
			if errors.Is(err, engine.ErrSessionClosed) {
				return nil
			}
			return err
		}

		select {
		case out <- event:
		case <-ctx.Done():
			return nil
		}
	}
}
