// Package cli provides output helpers for the yomu command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/yomu/internal/models"
)

// AnswerOutputFormat is the format for answer output.
type AnswerOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText AnswerOutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON AnswerOutputFormat = "json"
)

// WriteAnswers writes answers to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteAnswers(w io.Writer, question string, answers []models.Answer, format AnswerOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Question string          `json:"question"`
			Answers  []models.Answer `json:"answers"`
		}{Question: question, Answers: answers})
	default:
		writeAnswersText(w, question, answers)
		return nil
	}
}

func writeAnswersText(w io.Writer, question string, answers []models.Answer) {
	if len(answers) == 0 {
		fmt.Fprintf(w, "\nNo answer found for: %s\n", question)
		return
	}
	fmt.Fprintf(w, "\nQ: %s\n\n", question)
	for rank, a := range answers {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Confidence: %.4f | Document: %d\n", rank+1, a.Confidence, a.DocumentIndex)
		fmt.Fprintf(w, "A: %s\n", a.Text)
		if a.LongText != "" && a.LongText != a.Text {
			fmt.Fprintf(w, "\n%s\n", Truncate(a.LongText, 200))
		}
		fmt.Fprintln(w)
	}
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
