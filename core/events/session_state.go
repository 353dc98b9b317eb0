package events

// KindSessionStateChanged identifies a conversation state transition.
const KindSessionStateChanged Kind = "session.state_changed"

type SessionStatePayload struct {
	State     string `json:"state"`
	Remaining int    `json:"remaining"`
}

type SessionStateChanged struct {
	Base
	State     string
	Remaining int
}

func NewSessionStateChanged(state string, remaining int) SessionStateChanged {
	return SessionStateChanged{Base: NewBase(KindSessionStateChanged), State: state, Remaining: remaining}
}

func (e SessionStateChanged) ServerMessage() ServerMessage {
	return ServerMessage{
		Type:    MessageSessionState,
		Payload: SessionStatePayload{State: e.State, Remaining: e.Remaining},
	}
}
