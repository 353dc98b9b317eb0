package words

import (
	"slices"
	"testing"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name       string
		candidates []string
		expected   []string
	}{
		{name: "nil", candidates: nil, expected: []string{}},
		{name: "blank entries", candidates: []string{"", "  ", "\t\n"}, expected: []string{}},
		{name: "trims", candidates: []string{"  sakura ", "tsuki\n"}, expected: []string{"sakura", "tsuki"}},
		{name: "case folded duplicates keep first", candidates: []string{"Apple", "apple", " APPLE "}, expected: []string{"Apple"}},
		{name: "preserves order", candidates: []string{"moon", "Sun", "star", "sun"}, expected: []string{"moon", "Sun", "star"}},
		{name: "keeps inner spacing", candidates: []string{"ice cream", "Ice Cream"}, expected: []string{"ice cream"}},
		{name: "non latin", candidates: []string{"桜", "月", "桜"}, expected: []string{"桜", "月"}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got := Normalize(testCase.candidates)
			if !slices.Equal(got, testCase.expected) {
				t.Fatalf("expected %q, got %q", testCase.expected, got)
			}
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := [][]string{
		nil,
		{"Apple", "apple", " APPLE "},
		{" a", "A ", "b", "", "B", "c "},
		{"ÄPFEL", "äpfel", "Straße"},
	}

	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if !slices.Equal(once, twice) {
			t.Fatalf("expected normalize to be idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestNormalizeDoesNotSubstituteDefaults(t *testing.T) {
	if got := Normalize([]string{" "}); len(got) != 0 {
		t.Fatalf("expected empty result, got %q", got)
	}
}

func TestOrDefault(t *testing.T) {
	defaults := DefaultTargetWords()
	if got := OrDefault(nil, defaults); !slices.Equal(got, defaults) {
		t.Fatalf("expected defaults %q, got %q", defaults, got)
	}

	got := OrDefault([]string{}, defaults)
	got[0] = "mutated"
	if defaults[0] == "mutated" {
		t.Fatalf("expected defaults to be copied")
	}

	words := []string{"sakura"}
	if got := OrDefault(words, defaults); !slices.Equal(got, words) {
		t.Fatalf("expected %q, got %q", words, got)
	}
}

func TestDefaultTargetWordsCannotBeMutated(t *testing.T) {
	first := DefaultTargetWords()
	first[0] = "mutated"

	if second := DefaultTargetWords(); second[0] != "apple" {
		t.Fatalf("expected a fresh default list, got %q", second)
	}
}
