package models

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration reports nonsensical reader configuration values.
var ErrInvalidConfiguration = errors.New("invalid reader configuration")

// ReaderConfiguration is an immutable snapshot of decoding settings.
// Construct a new value to change behavior; a configuration is never
// mutated during a decoding session.
type ReaderConfiguration struct {
	// MaxAnswerLength caps answer span width, in tokens.
	MaxAnswerLength int `json:"max_answer_length"`
	// MaxAnswers caps the number of yielded answers.
	MaxAnswers int `json:"max_answers"`
	// ConfidenceThreshold is the minimum confidence an answer must have
	// to be yielded, in [0, 1].
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	// MergeDocumentAnswers merges identical-text answers across documents,
	// summing their confidences.
	MergeDocumentAnswers bool `json:"merge_document_answers"`
}

// DefaultReaderConfiguration returns the documented defaults.
func DefaultReaderConfiguration() ReaderConfiguration {
	return ReaderConfiguration{
		MaxAnswerLength:     15,
		MaxAnswers:          3,
		ConfidenceThreshold: 0,
	}
}

// Validate checks the configuration and returns ErrInvalidConfiguration
// (wrapped with detail) for non-positive caps or a threshold outside [0, 1].
func (c ReaderConfiguration) Validate() error {
	if c.MaxAnswerLength <= 0 {
		return fmt.Errorf("%w: max_answer_length must be positive, got %d",
			ErrInvalidConfiguration, c.MaxAnswerLength)
	}
	if c.MaxAnswers <= 0 {
		return fmt.Errorf("%w: max_answers must be positive, got %d",
			ErrInvalidConfiguration, c.MaxAnswers)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: confidence_threshold must be in [0, 1], got %v",
			ErrInvalidConfiguration, c.ConfidenceThreshold)
	}
	return nil
}
