// Package decoder turns raw start/end scores into ranked, deduplicated answers.
package decoder

import (
	"errors"
	"fmt"

	"github.com/hyperjump/yomu/internal/models"
)

// ErrInvalidScoreShape reports a length mismatch between start logits,
// end logits, and token offsets. It indicates a model contract violation
// and is never retried.
var ErrInvalidScoreShape = errors.New("invalid score shape")

// ScoreSpans enumerates all candidate answer spans for one document.
// Each start index i is paired with every end index j such that
// i <= j < i+maxAnswerLength and j is within the document; the candidate
// score is start[i] + end[j]. Scores are raw additive log-scores, not yet
// normalized or ranked. A document with zero tokens yields zero candidates.
//
// The DocumentIndex of returned spans is zero; Decode stamps it from the
// position of the document in its input batch.
func ScoreSpans(start, end []float32, offsets []models.TokenOffset, maxAnswerLength int) ([]models.CandidateSpan, error) {
	if len(start) != len(end) || len(start) != len(offsets) {
		return nil, fmt.Errorf("%w: start=%d end=%d offsets=%d",
			ErrInvalidScoreShape, len(start), len(end), len(offsets))
	}
	if maxAnswerLength <= 0 {
		return nil, fmt.Errorf("%w: max_answer_length must be positive, got %d",
			models.ErrInvalidConfiguration, maxAnswerLength)
	}
	n := len(start)
	if n == 0 {
		return nil, nil
	}

	spans := make([]models.CandidateSpan, 0, n*maxAnswerLength)
	for i := 0; i < n; i++ {
		limit := i + maxAnswerLength
		if limit > n {
			limit = n
		}
		for j := i; j < limit; j++ {
			spans = append(spans, models.CandidateSpan{
				StartToken: i,
				EndToken:   j,
				Score:      float64(start[i]) + float64(end[j]),
			})
		}
	}
	return spans, nil
}
