package session

import (
	"context"
	"time"

	"github.com/koscakluka/vocablive/core/rooms"
	"github.com/koscakluka/vocablive/core/words"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type StartRequest struct {
	Words   []string
	Summary string
}

type StartResult struct {
	RoomURL string
}

// Orchestrator provisions rooms and launches a conversation unit into each.
type Orchestrator struct {
	provider rooms.Provider
	launcher Launcher

	roomDuration    time.Duration
	maxParticipants int
	defaultWords    []string
	botName         string
}

type Option func(*Orchestrator)

func WithRoomDuration(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.roomDuration = d
		}
	}
}

// WithMaxParticipants caps the participants of each room. The learner and the
// bot need two places, smaller values are ignored.
func WithMaxParticipants(n int) Option {
	return func(o *Orchestrator) {
		if n >= rooms.DefaultMaxParticipants {
			o.maxParticipants = n
		}
	}
}

// WithDefaultWords sets the words practised when a request names none.
func WithDefaultWords(defaultWords []string) Option {
	return func(o *Orchestrator) {
		if normalized := words.Normalize(defaultWords); len(normalized) > 0 {
			o.defaultWords = normalized
		}
	}
}

func WithBotName(name string) Option {
	return func(o *Orchestrator) { o.botName = name }
}

func NewOrchestrator(provider rooms.Provider, launcher Launcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider:     provider,
		launcher:     launcher,
		roomDuration:    rooms.DefaultDuration,
		maxParticipants: rooms.DefaultMaxParticipants,
		defaultWords:    words.DefaultTargetWords(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start creates a room, issues the conversation unit an owner token and
// launches it. The unit runs detached from ctx.
//
// Provider failures are returned as [*rooms.ProviderError] and launch
// failures as [*LaunchError]. Nothing is rolled back; rooms expire on their
// own.
func (o *Orchestrator) Start(ctx context.Context, req StartRequest) (StartResult, error) {
	ctx, span := tracer.Start(ctx, "start session")
	defer span.End()

	room, err := o.provider.CreateRoom(ctx, rooms.RoomOptions{
		Duration:        o.roomDuration,
		MaxParticipants: o.maxParticipants,
	})
	if err != nil {
		recordError(span, err)
		return StartResult{}, err
	}
	span.SetAttributes(attribute.String("room.name", room.Name))

	token, err := o.provider.CreateToken(ctx, room.Name, rooms.TokenOptions{UserName: o.botName, IsOwner: true})
	if err != nil {
		recordError(span, err)
		return StartResult{}, err
	}

	targetWords := words.OrDefault(words.Normalize(req.Words), o.defaultWords)
	sc := NewContext(room.URL, token, targetWords, req.Summary)
	span.SetAttributes(
		attribute.String("session.id", sc.ID),
		attribute.Int("session.words", len(targetWords)),
	)

	if err := o.launcher.Launch(ctx, sc); err != nil {
		err = &LaunchError{Err: err}
		recordError(span, err)
		return StartResult{}, err
	}

	sessionsStartedCounter.Add(ctx, 1)
	logger.InfoContext(ctx, "session started", "session", sc.ID, "room", room.Name, "words", targetWords)
	return StartResult{RoomURL: room.URL}, nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
