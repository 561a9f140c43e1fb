package chat

import "unicode/utf8"

// estimateTokens approximates the generation-model token count of text.
// The heuristic (one token per four characters, rounded up) keeps assembly
// deterministic and free of network calls; budgets should leave headroom.
func estimateTokens(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}
