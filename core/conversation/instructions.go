package conversation

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// ClosingUtterance is the line the agent must end every completed session
// with.
const ClosingUtterance = "Wonderful, you used every one of the words! That is the end of our practice for today. Great work, and see you next time!"

// Instructions holds the text that steers the engine. All fields are
// templates except Closing, which is passed to the engine verbatim.
//
// Template data:
//   - System: .Words, .Summary, .FunctionName
//   - Opening: .Summary
//   - Progress, AlreadyFound, NotTarget, NotStarted: .Word, .Remaining
type Instructions struct {
	System       *template.Template
	Opening      *template.Template
	Progress     *template.Template
	AlreadyFound *template.Template
	NotTarget    *template.Template
	// NotStarted answers calls the engine makes before the learner is
	// ready. Such calls never count.
	NotStarted *template.Template
	Closing    string
}

var templateFuncs = template.FuncMap{"join": strings.Join}

const (
	systemTemplate = `You are a friendly language learning partner. ` +
		`Your goal is to help the user learn by talking with them and getting them to say specific words. ` +
		`The words are: {{join .Words ", "}}. ` +
		`When you hear one of these words used in a complete sentence, call the '{{.FunctionName}}' tool immediately. ` +
		`The user must use the word inside a complete sentence. If the user just says the word on its own, it does not count and you must not call the '{{.FunctionName}}' tool. ` +
		`Never tell the user the words directly and never name them. ` +
		`Steer the topic of the conversation so that the user is more likely to say the words naturally.` +
		`{{if .Summary}} The practice is themed around the following material, use it to choose topics: {{.Summary}}{{end}}`

	openingTemplate = `Start by briefly introducing yourself and the game.` +
		`{{if .Summary}} Mention the theme of today's practice in one short sentence: {{.Summary}}{{end}}`

	progressTemplate = `Correct! The user said '{{.Word}}'. ` +
		`Remaining words to find: {{join .Remaining ", "}}. ` +
		`Keep the conversation flowing and subtly guide them to say the remaining words.`

	alreadyFoundTemplate = `The word '{{.Word}}' was already found. ` +
		`Remaining words: {{join .Remaining ", "}}. ` +
		`Keep guiding the user towards the remaining words.`

	notTargetTemplate = `'{{.Word}}' is not one of the target words. ` +
		`Remaining words: {{join .Remaining ", "}}. ` +
		`Keep guiding the user towards the remaining words.`

	notStartedTemplate = `The practice has not started yet, so '{{.Word}}' does not count. ` +
		`Do not call the tool again until you have introduced yourself and the game.`
)

var closingInstruction = `All target words have been found. ` +
	`Respond with exactly the following sentence and nothing else: "` + ClosingUtterance + `" ` +
	`Do not introduce any new topic, do not ask any questions and do not continue the conversation afterwards.`

// DefaultInstructions returns the built-in instruction set.
func DefaultInstructions() Instructions {
	return Instructions{
		System:       template.Must(template.New("system").Funcs(templateFuncs).Parse(systemTemplate)),
		Opening:      template.Must(template.New("opening").Funcs(templateFuncs).Parse(openingTemplate)),
		Progress:     template.Must(template.New("progress").Funcs(templateFuncs).Parse(progressTemplate)),
		AlreadyFound: template.Must(template.New("already_found").Funcs(templateFuncs).Parse(alreadyFoundTemplate)),
		NotTarget:    template.Must(template.New("not_target").Funcs(templateFuncs).Parse(notTargetTemplate)),
		NotStarted:   template.Must(template.New("not_started").Funcs(templateFuncs).Parse(notStartedTemplate)),
		Closing:      closingInstruction,
	}
}

type systemData struct {
	Words        []string
	Summary      string
	FunctionName string
}

type openingData struct {
	Summary string
}

type guidanceData struct {
	Word      string
	Remaining []string
}

func render(tmpl *template.Template, data any) (string, error) {
	if tmpl == nil {
		return "", fmt.Errorf("instruction template not configured")
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %q instruction: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
