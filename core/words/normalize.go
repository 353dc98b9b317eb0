package words

import "strings"

// DefaultTargetWords returns the words used when a session is started without
// any usable target words. Every call returns a fresh slice.
func DefaultTargetWords() []string {
	return []string{"apple", "banana", "cherry", "date", "elderberry"}
}

// Key returns the comparison key of a word.
func Key(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// Normalize trims candidates, drops empty ones and removes case-insensitive
// duplicates. The first occurrence wins and input order is preserved.
func Normalize(candidates []string) []string {
	normalized := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		word := strings.TrimSpace(candidate)
		if word == "" {
			continue
		}

		key := Key(word)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		normalized = append(normalized, word)
	}

	return normalized
}

// OrDefault returns words, or a copy of defaults when words is empty.
func OrDefault(words, defaults []string) []string {
	if len(words) > 0 {
		return words
	}

	return append([]string(nil), defaults...)
}
