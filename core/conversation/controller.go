package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/koscakluka/vocablive/core/engine"
	"github.com/koscakluka/vocablive/core/events"
	"github.com/koscakluka/vocablive/core/words"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrEnded           = errors.New("conversation already ended")
	ErrUnknownFunction = errors.New("unknown function")
)

// Dialogue is the part of the engine the controller steers.
type Dialogue interface {
	RespondToFunctionCall(ctx context.Context, call engine.FunctionCall, output string) error
	Generate(ctx context.Context, prompt string) error
	CancelGeneration()
}

type Option func(*Controller)

func WithSummary(summary string) Option {
	return func(c *Controller) { c.summary = summary }
}

func WithInstructions(instructions Instructions) Option {
	return func(c *Controller) { c.instructions = instructions }
}

func WithEventEmitter(emit func(events.Event)) Option {
	return func(c *Controller) {
		if emit == nil {
			c.emit = noopEventEmitter
			return
		}
		c.emit = emit
	}
}

func WithDialogue(dialogue Dialogue) Option {
	return func(c *Controller) { c.dialogue = dialogue }
}

// Controller runs the word-completion state machine of one session.
//
// Controller is not safe for concurrent use. All Handle* methods must be
// called from the session's single event loop.
type Controller struct {
	state   State
	tracker *words.Tracker
	// targets holds the keys of the full target set, including words that
	// were already found.
	targets map[string]struct{}
	words   []string
	summary string

	instructions     Instructions
	dialogue         Dialogue
	emit             eventEmitter
	closingRequested bool
	// closingTurns counts the engine turns still to finish before the
	// conversation ends: the turn that carried the completing call and the
	// requested closing turn.
	closingTurns int
	done         chan struct{}
}

func New(targetWords []string, opts ...Option) *Controller {
	normalized := words.Normalize(targetWords)
	c := &Controller{
		state:        StateAwaitingStart,
		tracker:      words.NewTracker(normalized),
		targets:      make(map[string]struct{}, len(normalized)),
		words:        normalized,
		instructions: DefaultInstructions(),
		emit:         noopEventEmitter,
		done:         make(chan struct{}),
	}
	for _, word := range normalized {
		c.targets[words.Key(word)] = struct{}{}
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.dialogue == nil {
		c.dialogue = noopDialogue{}
	}

	return c
}

func (c *Controller) State() State        { return c.state }
func (c *Controller) Words() []string     { return append([]string(nil), c.words...) }
func (c *Controller) Remaining() []string { return c.tracker.Remaining() }

// Done is closed once the conversation reaches [StateEnded].
func (c *Controller) Done() <-chan struct{} { return c.done }

// SystemInstruction renders the instruction the engine is configured with at
// session start.
func (c *Controller) SystemInstruction() (string, error) {
	return render(c.instructions.System, systemData{
		Words:        c.words,
		Summary:      c.summary,
		FunctionName: FunctionName,
	})
}

// FunctionDeclaration declares the word detection function for this
// session's target words.
func (c *Controller) FunctionDeclaration() engine.FunctionDeclaration {
	return FunctionDeclaration(c.words)
}

// HandleClientReady starts the dialogue. Only the first call has any effect.
func (c *Controller) HandleClientReady(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "start conversation")
	defer span.End()

	if c.state != StateAwaitingStart {
		logger.DebugContext(ctx, "ignoring client ready", "state", c.state.String())
		return nil
	}

	opening, err := render(c.instructions.Opening, openingData{Summary: c.summary})
	if err != nil {
		recordError(span, err)
		return err
	}

	c.transition(ctx, StateInProgress)
	if err := c.dialogue.Generate(ctx, opening); err != nil {
		err = fmt.Errorf("failed to request opening turn: %w", err)
		recordError(span, err)
		return err
	}

	return nil
}

// HandleFunctionCall checks the word carried by call against the remaining
// target words and answers the engine with guidance for its next turn. The
// returned text is the answer that was delivered.
//
// Malformed arguments are treated as a non-matching word. Calls after the
// conversation ended are ignored and return [ErrEnded].
func (c *Controller) HandleFunctionCall(ctx context.Context, call engine.FunctionCall) (string, error) {
	ctx, span := tracer.Start(ctx, "handle function call")
	defer span.End()
	span.SetAttributes(
		attribute.String("function.name", call.Name),
		attribute.String("conversation.state", c.state.String()),
	)

	if c.state == StateEnded {
		c.emit(events.NewFunctionCallIgnored(call.ID, call.Name, ErrEnded.Error()))
		return "", ErrEnded
	}

	if call.Name != FunctionName {
		err := fmt.Errorf("%w: %q", ErrUnknownFunction, call.Name)
		c.emit(events.NewFunctionCallIgnored(call.ID, call.Name, err.Error()))
		recordError(span, err)
		return "", err
	}
	c.emit(events.NewFunctionCallReceived(call.ID, call.Name))

	if c.state == StateAwaitingClose {
		return c.answer(ctx, span, call, c.instructions.Closing)
	}

	word := wordArgument(call.Arguments)
	span.SetAttributes(attribute.String("word", word))

	if c.state == StateAwaitingStart {
		logger.InfoContext(ctx, "word reported before start", "word", word)
		instruction, err := render(c.instructions.NotStarted, guidanceData{Word: word, Remaining: c.tracker.Remaining()})
		if err != nil {
			recordError(span, err)
			return "", err
		}
		return c.answer(ctx, span, call, instruction)
	}
	result := c.tracker.Attempt(word)

	var (
		instruction string
		err         error
	)
	switch {
	case result.Matched && len(result.Remaining) > 0:
		wordsDetectedCounter.Add(ctx, 1)
		logger.InfoContext(ctx, "word detected", "word", result.Word, "remaining", len(result.Remaining))
		c.emit(events.NewWordDetected(result.Word))
		instruction, err = render(c.instructions.Progress, guidanceData{Word: result.Word, Remaining: result.Remaining})

	case result.Matched:
		wordsDetectedCounter.Add(ctx, 1)
		sessionsCompletedCounter.Add(ctx, 1)
		logger.InfoContext(ctx, "all words detected", "word", result.Word)
		c.emit(events.NewWordDetected(result.Word))
		c.transition(ctx, StateAwaitingClose)
		c.emit(events.NewWordsCompleted(result.Word))
		instruction = c.instructions.Closing

	case c.isTarget(word):
		logger.InfoContext(ctx, "word already found", "word", word)
		instruction, err = render(c.instructions.AlreadyFound, guidanceData{Word: word, Remaining: result.Remaining})

	default:
		logger.InfoContext(ctx, "word is not a target", "word", word)
		instruction, err = render(c.instructions.NotTarget, guidanceData{Word: word, Remaining: result.Remaining})
	}
	if err != nil {
		recordError(span, err)
		return "", err
	}

	answer, err := c.answer(ctx, span, call, instruction)
	if err != nil {
		return answer, err
	}

	if c.state == StateAwaitingClose && !c.closingRequested {
		c.closingRequested = true
		c.closingTurns = 2
		if err := c.dialogue.Generate(ctx, c.instructions.Closing); err != nil {
			err = fmt.Errorf("failed to request closing turn: %w", err)
			recordError(span, err)
			return answer, err
		}
	}

	return answer, nil
}

func (c *Controller) answer(ctx context.Context, span trace.Span, call engine.FunctionCall, instruction string) (string, error) {
	if err := c.dialogue.RespondToFunctionCall(ctx, call, instruction); err != nil {
		err = fmt.Errorf("failed to respond to function call %q: %w", call.Name, err)
		recordError(span, err)
		return instruction, err
	}

	c.emit(events.NewFunctionCallAnswered(call.ID, call.Name, instruction))
	return instruction, nil
}

// HandleTurnComplete ends the conversation once the closing utterance has
// been delivered. The turn that carried the completing function call finishes
// first, the closing turn requested after it finishes second.
func (c *Controller) HandleTurnComplete(ctx context.Context) {
	if c.state != StateAwaitingClose || !c.closingRequested {
		return
	}

	c.closingTurns--
	if c.closingTurns <= 0 {
		c.transition(ctx, StateEnded)
	}
}

// HandleDisconnect ends the conversation regardless of its state and cancels
// any in-flight generation.
func (c *Controller) HandleDisconnect(ctx context.Context) {
	if c.state == StateEnded {
		return
	}

	c.transition(ctx, StateEnded)
	c.dialogue.CancelGeneration()
}

func (c *Controller) isTarget(word string) bool {
	_, ok := c.targets[words.Key(word)]
	return ok
}

func (c *Controller) transition(ctx context.Context, next State) {
	if c.state == next {
		return
	}

	logger.InfoContext(ctx, "conversation state changed", "from", c.state.String(), "to", next.String())
	c.state = next
	c.emit(events.NewSessionStateChanged(next.String(), c.tracker.Len()))

	if next == StateEnded {
		close(c.done)
	}
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

type noopDialogue struct{}

func (noopDialogue) RespondToFunctionCall(context.Context, engine.FunctionCall, string) error {
	return nil
}
func (noopDialogue) Generate(context.Context, string) error { return nil }
func (noopDialogue) CancelGeneration()                      {}
