package words

import (
	"slices"
	"testing"
)

func TestTrackerAttemptSequenceIsDeterministic(t *testing.T) {
	type step struct {
		attempt   string
		matched   bool
		word      string
		remaining []string
	}
	steps := []step{
		{attempt: "Moon", matched: true, word: "moon", remaining: []string{"sun"}},
		{attempt: "moon", matched: false, word: "", remaining: []string{"sun"}},
		{attempt: "sun", matched: true, word: "sun", remaining: []string{}},
	}

	for run := 0; run < 3; run++ {
		tracker := NewTracker([]string{"sun", "moon"})
		for i, step := range steps {
			result := tracker.Attempt(step.attempt)
			if result.Matched != step.matched {
				t.Fatalf("run %d step %d: expected matched=%t, got %t", run, i, step.matched, result.Matched)
			}
			if result.Word != step.word {
				t.Fatalf("run %d step %d: expected word %q, got %q", run, i, step.word, result.Word)
			}
			if !slices.Equal(result.Remaining, step.remaining) {
				t.Fatalf("run %d step %d: expected remaining %q, got %q", run, i, step.remaining, result.Remaining)
			}
		}
	}
}

func TestTrackerReturnsOriginalDisplayForm(t *testing.T) {
	tracker := NewTracker([]string{"Tokyo Tower", "sakura"})

	result := tracker.Attempt("  tokyo tower ")
	if !result.Matched || result.Word != "Tokyo Tower" {
		t.Fatalf("expected match with original form %q, got %+v", "Tokyo Tower", result)
	}
}

func TestTrackerEmptyWordNeverMatches(t *testing.T) {
	tracker := NewTracker([]string{"sakura"})

	for _, word := range []string{"", "   "} {
		if result := tracker.Attempt(word); result.Matched {
			t.Fatalf("expected %q not to match, got %+v", word, result)
		}
	}
	if tracker.Len() != 1 {
		t.Fatalf("expected remaining set untouched, got %d entries", tracker.Len())
	}
}

func TestTrackerDoesNotAliasInputOrResults(t *testing.T) {
	input := []string{"sun", "moon"}
	tracker := NewTracker(input)
	input[0] = "changed"

	result := tracker.Attempt("moon")
	result.Remaining[0] = "changed"

	if got := tracker.Remaining(); !slices.Equal(got, []string{"sun"}) {
		t.Fatalf("expected tracker state to be isolated, got %q", got)
	}
}
