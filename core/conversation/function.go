package conversation

import (
	"github.com/invopop/jsonschema"
	"github.com/koscakluka/vocablive/core/engine"
)

// FunctionName is the single function the engine calls when it hears a
// target word.
const FunctionName = "mark_word"

const functionDescription = "Call this when the user uses one of the target words in a correct and complete sentence."

type markWordArguments struct {
	Word string `json:"word" jsonschema:"description=The target word said by the user"`
}

// FunctionDeclaration declares [FunctionName] with its word parameter
// restricted to targetWords.
func FunctionDeclaration(targetWords []string) engine.FunctionDeclaration {
	reflector := jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	schema := reflector.Reflect(&markWordArguments{})
	schema.Version = ""

	if word, ok := schema.Properties.Get("word"); ok && word != nil {
		word.Enum = make([]any, 0, len(targetWords))
		for _, target := range targetWords {
			word.Enum = append(word.Enum, target)
		}
	}

	return engine.FunctionDeclaration{
		Name:        FunctionName,
		Description: functionDescription,
		Parameters:  schema,
	}
}

// wordArgument extracts the word argument. Anything other than a string is
// treated as an empty word.
func wordArgument(arguments map[string]any) string {
	if arguments == nil {
		return ""
	}
	word, ok := arguments["word"].(string)
	if !ok {
		return ""
	}
	return word
}
