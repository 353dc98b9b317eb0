package events

const (
	// KindUserTranscript identifies recognised learner speech.
	KindUserTranscript Kind = "transcript.user"
	// KindAssistantTranscript identifies the spoken text of the agent.
	KindAssistantTranscript Kind = "transcript.assistant"
)

const (
	TranscriptRoleUser      = "user"
	TranscriptRoleAssistant = "assistant"
)

type TranscriptPayload struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type Transcript struct {
	Base
	Role string
	Text string
}

func NewUserTranscript(text string) Transcript {
	return Transcript{Base: NewBase(KindUserTranscript), Role: TranscriptRoleUser, Text: text}
}

func NewAssistantTranscript(text string) Transcript {
	return Transcript{Base: NewBase(KindAssistantTranscript), Role: TranscriptRoleAssistant, Text: text}
}

func (e Transcript) ServerMessage() ServerMessage {
	return ServerMessage{Type: MessageTranscript, Payload: TranscriptPayload{Role: e.Role, Text: e.Text}}
}
