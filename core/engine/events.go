package engine

// Event is anything the engine reports back while a session is live.
type Event interface {
	isEngineEvent()
}

// Audio is a chunk of synthesised assistant speech.
type Audio struct {
	Data []byte
}

// TurnComplete marks the end of an assistant turn.
type TurnComplete struct{}

// Interrupted marks an assistant turn cut short by user speech.
type Interrupted struct{}

// Transcript carries recognised speech. Role is "user" or "assistant".
type Transcript struct {
	Role string
	Text string
}

func (Audio) isEngineEvent()        {}
func (FunctionCall) isEngineEvent() {}
func (TurnComplete) isEngineEvent() {}
func (Interrupted) isEngineEvent()  {}
func (Transcript) isEngineEvent()   {}
