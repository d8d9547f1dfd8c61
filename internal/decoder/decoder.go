package decoder

import (
	"sort"

	"github.com/hyperjump/yomu/internal/models"
	"github.com/hyperjump/yomu/pkg/utils"
)

// longTextExpansionTokens is how many tokens either side of an answer are
// included in its long-form display text.
const longTextExpansionTokens = 20

// DocumentCandidates groups one document's scored spans with the material
// needed to turn them into answers. Documents are identified by their
// position in the batch passed to Decode.
type DocumentCandidates struct {
	Text    string
	Offsets []models.TokenOffset
	Spans   []models.CandidateSpan
}

type rankedCandidate struct {
	span       models.CandidateSpan
	confidence float64
}

// Decode runs the full decoding pipeline over a batch of documents:
// a joint softmax across every candidate from every document, ranking by
// confidence, optional identical-text merging, threshold filtering, and
// capping at cfg.MaxAnswers. The returned sequence is lazy: answer text is
// sliced per item as the caller advances it.
//
// An empty batch (no documents, or no candidates in any document) returns
// an empty sequence, not an error.
func Decode(docs []DocumentCandidates, cfg models.ReaderConfiguration) (*Answers, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var scores []float64
	for _, doc := range docs {
		for _, span := range doc.Spans {
			scores = append(scores, span.Score)
		}
	}
	if len(scores) == 0 {
		return &Answers{}, nil
	}

	// Joint softmax across all documents so confidences are comparable
	// regardless of source document.
	confidences := utils.Softmax(scores)
	ranked := make([]rankedCandidate, 0, len(confidences))
	pos := 0
	for docIndex, doc := range docs {
		for _, span := range doc.Spans {
			span.DocumentIndex = docIndex
			ranked = append(ranked, rankedCandidate{span: span, confidence: confidences[pos]})
			pos++
		}
	}
	sortRanked(ranked)

	if cfg.MergeDocumentAnswers {
		ranked = mergeIdenticalText(ranked, docs)
		sortRanked(ranked)
	}

	filtered := ranked[:0]
	for _, c := range ranked {
		if c.confidence >= cfg.ConfidenceThreshold {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) > cfg.MaxAnswers {
		filtered = filtered[:cfg.MaxAnswers]
	}
	return &Answers{docs: docs, ranked: filtered}, nil
}

func sortRanked(ranked []rankedCandidate) {
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.confidence != b.confidence {
			return a.confidence > b.confidence
		}
		if a.span.DocumentIndex != b.span.DocumentIndex {
			return a.span.DocumentIndex < b.span.DocumentIndex
		}
		return a.span.StartToken < b.span.StartToken
	})
}

// mergeIdenticalText collapses candidates whose materialized text matches
// exactly, summing confidences. The input must be sorted by confidence
// descending so the first occurrence is the highest constituent, which
// keeps its document index and offsets for display.
func mergeIdenticalText(ranked []rankedCandidate, docs []DocumentCandidates) []rankedCandidate {
	merged := make([]rankedCandidate, 0, len(ranked))
	byText := make(map[string]int, len(ranked))
	for _, c := range ranked {
		text := spanText(docs[c.span.DocumentIndex], c.span)
		if at, ok := byText[text]; ok {
			merged[at].confidence += c.confidence
			continue
		}
		byText[text] = len(merged)
		merged = append(merged, c)
	}
	return merged
}

func spanText(doc DocumentCandidates, span models.CandidateSpan) string {
	return doc.Text[doc.Offsets[span.StartToken].StartChar:doc.Offsets[span.EndToken].EndChar]
}

// Answers is a lazy, finite, non-restartable sequence of decoded answers.
// Each call to Next materializes one answer; once exhausted it stays
// exhausted. Producing the sequence twice from the same Decode inputs
// yields identical answers.
type Answers struct {
	docs   []DocumentCandidates
	ranked []rankedCandidate
	pos    int
}

// Next returns the next answer in confidence order, or false when the
// sequence is exhausted.
func (a *Answers) Next() (models.Answer, bool) {
	if a.pos >= len(a.ranked) {
		return models.Answer{}, false
	}
	c := a.ranked[a.pos]
	a.pos++
	return materialize(a.docs[c.span.DocumentIndex], c.span, c.confidence), true
}

// Collect drains the remaining answers into a slice.
func (a *Answers) Collect() []models.Answer {
	var out []models.Answer
	for {
		ans, ok := a.Next()
		if !ok {
			return out
		}
		out = append(out, ans)
	}
}

func materialize(doc DocumentCandidates, span models.CandidateSpan, confidence float64) models.Answer {
	startChar := doc.Offsets[span.StartToken].StartChar
	endChar := doc.Offsets[span.EndToken].EndChar

	longStart := span.StartToken - longTextExpansionTokens
	if longStart < 0 {
		longStart = 0
	}
	longEnd := span.EndToken + longTextExpansionTokens
	if longEnd > len(doc.Offsets)-1 {
		longEnd = len(doc.Offsets) - 1
	}
	longStartChar := doc.Offsets[longStart].StartChar
	longEndChar := doc.Offsets[longEnd].EndChar

	return models.Answer{
		Text:          doc.Text[startChar:endChar],
		DocumentIndex: span.DocumentIndex,
		StartChar:     startChar,
		EndChar:       endChar,
		Confidence:    confidence,
		LongText:      doc.Text[longStartChar:longEndChar],
		LongStartChar: longStartChar,
		LongEndChar:   longEndChar,
	}
}
