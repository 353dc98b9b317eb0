// Package engine describes the speech/LLM engine that runs the spoken side of
// a session: recognition, generation, synthesis and function calling.
package engine

import (
	"context"
	"errors"

	"github.com/invopop/jsonschema"
	"github.com/koscakluka/vocablive/core/audio"
)

var ErrSessionClosed = errors.New("engine session closed")

// FunctionDeclaration is a function the engine may call when it decides a
// condition in the dialogue was met.
type FunctionDeclaration struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

// FunctionCall is a single invocation of a declared function.
type FunctionCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

type Config struct {
	SystemInstruction string
	Functions         []FunctionDeclaration
	Voice             string

	// InputEncoding is the format of audio passed to [Session.SendAudio].
	InputEncoding audio.EncodingInfo
}

type Engine interface {
	Connect(ctx context.Context, config Config) (Session, error)
}

// Session is one live connection to the engine. Send methods are safe for
// concurrent use; Receive must be called from a single goroutine.
type Session interface {
	SendAudio(ctx context.Context, pcm []byte) error
	// RespondToFunctionCall feeds output back into the dialogue as the result
	// of call.
	RespondToFunctionCall(ctx context.Context, call FunctionCall, output string) error
	// Generate asks the engine for a new assistant turn steered by prompt.
	Generate(ctx context.Context, prompt string) error
	// CancelGeneration stops any in-flight generation. The session is not
	// usable afterwards.
	CancelGeneration()

	// Receive blocks until the next engine event. It returns
	// [ErrSessionClosed] after the session was closed.
	Receive(ctx context.Context) (Event, error)
	OutputEncoding() audio.EncodingInfo
	Close() error
}
