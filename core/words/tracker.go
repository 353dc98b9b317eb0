package words

import "slices"

// MatchResult is the outcome of a single [Tracker.Attempt].
type MatchResult struct {
	Matched bool
	// Word is the removed entry in its original form. Empty when nothing
	// matched.
	Word      string
	Remaining []string
}

// Tracker owns the remaining target words of one session.
//
// Tracker is not safe for concurrent use, it is meant to be driven from a
// single conversation event stream.
type Tracker struct {
	remaining []string
}

func NewTracker(words []string) *Tracker {
	return &Tracker{remaining: slices.Clone(words)}
}

// Attempt removes word from the remaining set if it is still there. Matching
// is case-insensitive and ignores surrounding whitespace.
func (t *Tracker) Attempt(word string) MatchResult {
	key := Key(word)
	if key != "" {
		for i, remaining := range t.remaining {
			if Key(remaining) != key {
				continue
			}

			t.remaining = slices.Delete(t.remaining, i, i+1)
			return MatchResult{Matched: true, Word: remaining, Remaining: t.Remaining()}
		}
	}

	return MatchResult{Matched: false, Remaining: t.Remaining()}
}

func (t *Tracker) Remaining() []string {
	return slices.Clone(t.remaining)
}

func (t *Tracker) Len() int {
	return len(t.remaining)
}
