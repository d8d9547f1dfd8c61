package embedding

import "github.com/hyperjump/yomu/internal/models"

// SplitTokens splits text on ASCII whitespace and returns the tokens with
// their byte offsets in text. Concatenating text[o.StartChar:o.EndChar] for
// each offset reconstructs the tokens exactly.
func SplitTokens(text string) ([]string, []models.TokenOffset) {
	var tokens []string
	var offsets []models.TokenOffset
	start := -1
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == ' ' || c == '\n' || c == '\t' || c == '\r' {
			if start >= 0 {
				tokens = append(tokens, text[start:i])
				offsets = append(offsets, models.TokenOffset{StartChar: start, EndChar: i})
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, text[start:])
		offsets = append(offsets, models.TokenOffset{StartChar: start, EndChar: len(text)})
	}
	return tokens, offsets
}

// HashString returns a deterministic non-negative hash, used by the mock
// model and as a stand-in token ID for the ONNX backend.
func HashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	return h
}
