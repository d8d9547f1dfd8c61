// Package models defines core data structures for tokens, spans, answers,
// and the reader configuration.
package models

// TokenOffset is the character range of one token in its source document.
// Offsets are half-open: document[StartChar:EndChar] is the token text.
type TokenOffset struct {
	StartChar int `json:"start_char"`
	EndChar   int `json:"end_char"`
}

// Logits holds the raw per-token start and end scores produced by a model
// for one (document, question) pair. Start and End must be the same length.
type Logits struct {
	Start []float32 `json:"start"`
	End   []float32 `json:"end"`
}

// CandidateSpan is a scored answer candidate in token-index space.
// StartToken and EndToken are inclusive. Score is a raw additive log-score,
// not a probability.
type CandidateSpan struct {
	DocumentIndex int
	StartToken    int
	EndToken      int
	Score         float64
}

// Width returns the span width in tokens.
func (s CandidateSpan) Width() int {
	return s.EndToken - s.StartToken + 1
}

// Answer is the externally visible result of a decode. Confidence is a
// normalized probability comparable across documents in the same decode call.
// LongText is the answer expanded with surrounding tokens for display.
type Answer struct {
	Text          string  `json:"text"`
	DocumentIndex int     `json:"document_index"`
	StartChar     int     `json:"start_char"`
	EndChar       int     `json:"end_char"`
	Confidence    float64 `json:"confidence"`
	LongText      string  `json:"long_text,omitempty"`
	LongStartChar int     `json:"long_start_char"`
	LongEndChar   int     `json:"long_end_char"`
}
