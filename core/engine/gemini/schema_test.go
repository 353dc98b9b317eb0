package gemini

import (
	"slices"
	"testing"

	"github.com/koscakluka/vocablive/core/conversation"
	"github.com/koscakluka/vocablive/core/engine"
	"google.golang.org/genai"
)

func TestConvertSchemaKeepsWordEnum(t *testing.T) {
	declaration := conversation.FunctionDeclaration([]string{"sakura", "tsuki"})

	schema, err := convertSchema(declaration.Parameters)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if schema.Type != genai.TypeObject {
		t.Fatalf("expected object schema, got %v", schema.Type)
	}
	if !slices.Equal(schema.Required, []string{"word"}) {
		t.Fatalf("expected word to be required, got %v", schema.Required)
	}

	word, ok := schema.Properties["word"]
	if !ok {
		t.Fatalf("expected word property, got %v", schema.Properties)
	}
	if word.Type != genai.TypeString {
		t.Fatalf("expected string word, got %v", word.Type)
	}
	if !slices.Equal(word.Enum, []string{"sakura", "tsuki"}) {
		t.Fatalf("expected enum [sakura tsuki], got %v", word.Enum)
	}
}

func TestConvertSchemaNil(t *testing.T) {
	schema, err := convertSchema(nil)
	if err != nil || schema != nil {
		t.Fatalf("expected nil schema without error, got %v, %v", schema, err)
	}
}

func TestLiveConnectConfig(t *testing.T) {
	config, err := liveConnectConfig(engine.Config{
		SystemInstruction: "be kind",
		Functions:         []engine.FunctionDeclaration{conversation.FunctionDeclaration([]string{"sakura"})},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got := config.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName; got != DefaultVoice {
		t.Fatalf("expected default voice %s, got %s", DefaultVoice, got)
	}
	if len(config.Tools) != 1 || len(config.Tools[0].FunctionDeclarations) != 1 {
		t.Fatalf("expected one declared function, got %+v", config.Tools)
	}
	if name := config.Tools[0].FunctionDeclarations[0].Name; name != conversation.FunctionName {
		t.Fatalf("expected %s, got %s", conversation.FunctionName, name)
	}
	if config.SystemInstruction == nil || config.SystemInstruction.Parts[0].Text != "be kind" {
		t.Fatalf("expected system instruction, got %+v", config.SystemInstruction)
	}
}
