package events

const (
	// KindFunctionCallReceived identifies a function call issued by the engine.
	KindFunctionCallReceived Kind = "function_call.received"
	// KindFunctionCallAnswered identifies the instruction sent back for a
	// function call.
	KindFunctionCallAnswered Kind = "function_call.answered"
	// KindFunctionCallIgnored identifies a function call dropped without an
	// answer, e.g. after the session ended.
	KindFunctionCallIgnored Kind = "function_call.ignored"
)

// FunctionCallReceived marks the start of function call handling.
type FunctionCallReceived struct {
	Base
	ID   string
	Name string
}

func NewFunctionCallReceived(id, name string) FunctionCallReceived {
	return FunctionCallReceived{Base: NewBase(KindFunctionCallReceived), ID: id, Name: name}
}

// FunctionCallAnswered carries the instruction text returned to the engine.
type FunctionCallAnswered struct {
	Base
	ID          string
	Name        string
	Instruction string
}

func NewFunctionCallAnswered(id, name, instruction string) FunctionCallAnswered {
	return FunctionCallAnswered{Base: NewBase(KindFunctionCallAnswered), ID: id, Name: name, Instruction: instruction}
}

// FunctionCallIgnored marks a function call that was not answered.
type FunctionCallIgnored struct {
	Base
	ID     string
	Name   string
	Reason string
}

func NewFunctionCallIgnored(id, name, reason string) FunctionCallIgnored {
	return FunctionCallIgnored{Base: NewBase(KindFunctionCallIgnored), ID: id, Name: name, Reason: reason}
}
