// Package session provisions practice sessions: a room, a credential for the
// conversation unit, and the launch of that unit bound to the room.
package session

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/koscakluka/vocablive/core/words"
)

// Context is everything one conversation unit needs to run. It is owned by
// exactly one runner.
type Context struct {
	ID      string
	RoomURL string
	Token   string
	Words   []string
	Summary string
}

func NewContext(roomURL, token string, targetWords []string, summary string) Context {
	return Context{
		ID:      uuid.NewString(),
		RoomURL: roomURL,
		Token:   token,
		Words:   targetWords,
		Summary: summary,
	}
}

// WordsFromEntries coerces vocabulary entries of a request into candidate
// words. Records contribute their word field, or the japanese_vocab field
// older clients send. Entries that cannot be read as a word are dropped.
func WordsFromEntries(entries []any) []string {
	candidates := make([]string, 0, len(entries))
	for _, entry := range entries {
		candidates = append(candidates, wordFromEntry(entry))
	}
	return words.Normalize(candidates)
}

func wordFromEntry(entry any) string {
	record, ok := entry.(map[string]any)
	if !ok {
		return scalarText(entry)
	}

	for _, field := range []string{"word", "japanese_vocab"} {
		if word := scalarText(record[field]); word != "" {
			return word
		}
	}
	return ""
}

// scalarText returns the textual form of a JSON scalar. Anything else has
// none.
func scalarText(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
