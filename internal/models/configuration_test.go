package models

import (
	"errors"
	"testing"
)

func TestReaderConfigurationValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ReaderConfiguration
		wantErr bool
	}{
		{"defaults valid", DefaultReaderConfiguration(), false},
		{"zero max answer length", ReaderConfiguration{MaxAnswerLength: 0, MaxAnswers: 1}, true},
		{"negative max answers", ReaderConfiguration{MaxAnswerLength: 10, MaxAnswers: -1}, true},
		{"threshold above one", ReaderConfiguration{MaxAnswerLength: 10, MaxAnswers: 1, ConfidenceThreshold: 1.5}, true},
		{"negative threshold", ReaderConfiguration{MaxAnswerLength: 10, MaxAnswers: 1, ConfidenceThreshold: -0.1}, true},
		{"threshold of one", ReaderConfiguration{MaxAnswerLength: 10, MaxAnswers: 1, ConfidenceThreshold: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("want ErrInvalidConfiguration, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCandidateSpanWidth(t *testing.T) {
	s := CandidateSpan{StartToken: 3, EndToken: 5}
	if s.Width() != 3 {
		t.Errorf("got %d, want 3", s.Width())
	}
	single := CandidateSpan{StartToken: 7, EndToken: 7}
	if single.Width() != 1 {
		t.Errorf("got %d, want 1", single.Width())
	}
}
