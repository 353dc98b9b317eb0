// Package gemini runs sessions on the Gemini Live API, which recognises,
// reasons about and answers in speech within a single bidirectional stream.
package gemini

import (
	"context"
	"fmt"

	"github.com/koscakluka/vocablive/core/audio"
	"github.com/koscakluka/vocablive/core/engine"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

const (
	DefaultModel = "gemini-2.5-flash-native-audio-preview-09-2025"
	DefaultVoice = "Charon"
)

var _ engine.Engine = (*Engine)(nil)

type Engine struct {
	client *genai.Client
	model  string
}

type Option func(*options)

type options struct {
	model string
}

func WithModel(model string) Option {
	return func(o *options) {
		if model != "" {
			o.model = model
		}
	}
}

func New(ctx context.Context, apiKey string, opts ...Option) (*Engine, error) {
	o := options{model: DefaultModel}
	for _, opt := range opts {
		opt(&o)
	}

	// Live sessions dial their own websocket, the client makes no REST calls.
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Engine{client: client, model: o.model}, nil
}

// Connect opens a live session configured for spoken replies, with both
// sides of the dialogue transcribed.
func (e *Engine) Connect(ctx context.Context, config engine.Config) (engine.Session, error) {
	ctx, span := tracer.Start(ctx, "connect gemini live session")
	defer span.End()
	span.SetAttributes(attribute.String("model", e.model))

	connectConfig, err := liveConnectConfig(config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	live, err := e.client.Live.Connect(ctx, e.model, connectConfig)
	if err != nil {
		err = fmt.Errorf("failed to connect to live api: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	inputEncoding := config.InputEncoding
	if inputEncoding.IsZero() {
		inputEncoding = audio.GetDefaultEncodingInfo()
	}

	logger.InfoContext(ctx, "connected live session", "model", e.model, "functions", len(config.Functions))
	return newSession(live, inputEncoding), nil
}

func liveConnectConfig(config engine.Config) (*genai.LiveConnectConfig, error) {
	voice := config.Voice
	if voice == "" {
		voice = DefaultVoice
	}

	declarations := make([]*genai.FunctionDeclaration, 0, len(config.Functions))
	for _, function := range config.Functions {
		parameters, err := convertSchema(function.Parameters)
		if err != nil {
			return nil, fmt.Errorf("failed to convert parameters of %q: %w", function.Name, err)
		}
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        function.Name,
			Description: function.Description,
			Parameters:  parameters,
		})
	}

	connectConfig := &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
		InputAudioTranscription:  &genai.AudioTranscriptionConfig{},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
	}
	if config.SystemInstruction != "" {
		connectConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: config.SystemInstruction}},
		}
	}
	if len(declarations) > 0 {
		connectConfig.Tools = []*genai.Tool{{FunctionDeclarations: declarations}}
	}

	return connectConfig, nil
}
