package events

const (
	// KindWordDetected identifies a confirmed target word.
	KindWordDetected Kind = "words.detected"
	// KindWordsCompleted identifies the confirmation of the last remaining
	// target word.
	KindWordsCompleted Kind = "words.completed"
)

// WordDetected is emitted for every target word confirmed in the dialogue.
type WordDetected struct {
	Base
	Word string
}

func NewWordDetected(word string) WordDetected {
	return WordDetected{Base: NewBase(KindWordDetected), Word: word}
}

func (e WordDetected) ServerMessage() ServerMessage {
	return ServerMessage{Type: MessageWordDetected, Payload: e.Word}
}

// WordsCompleted is emitted once per session, when the remaining set empties.
// Word is the final confirmed word.
type WordsCompleted struct {
	Base
	Word string
}

func NewWordsCompleted(word string) WordsCompleted {
	return WordsCompleted{Base: NewBase(KindWordsCompleted), Word: word}
}

func (e WordsCompleted) ServerMessage() ServerMessage {
	return ServerMessage{Type: MessageWordsComplete, Payload: e.Word}
}
