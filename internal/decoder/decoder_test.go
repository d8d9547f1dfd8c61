package decoder

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/yomu/internal/models"
)

// tokenize splits on single spaces and records character offsets, enough
// for decoder tests that need real text materialization.
func tokenize(text string) []models.TokenOffset {
	var offsets []models.TokenOffset
	pos := 0
	for _, word := range strings.Split(text, " ") {
		offsets = append(offsets, models.TokenOffset{StartChar: pos, EndChar: pos + len(word)})
		pos += len(word) + 1
	}
	return offsets
}

// docFor scores a document with the given per-token start/end logits.
func docFor(t *testing.T, text string, start, end []float32, maxLen int) DocumentCandidates {
	t.Helper()
	offsets := tokenize(text)
	if len(offsets) != len(start) {
		t.Fatalf("test setup: %d tokens, %d logits", len(offsets), len(start))
	}
	spans, err := ScoreSpans(start, end, offsets, maxLen)
	if err != nil {
		t.Fatalf("ScoreSpans: %v", err)
	}
	return DocumentCandidates{Text: text, Offsets: offsets, Spans: spans}
}

func permissiveConfig() models.ReaderConfiguration {
	return models.ReaderConfiguration{MaxAnswerLength: 15, MaxAnswers: 1 << 20}
}

func TestDecode_confidencesSumToOne(t *testing.T) {
	doc := docFor(t, "the cat sat on the mat",
		[]float32{0.5, 2, -1, 0, 0.1, 1},
		[]float32{0, 1, 0.5, -2, 0, 3}, 4)

	answers, err := Decode([]DocumentCandidates{doc}, permissiveConfig())
	if err != nil {
		t.Fatal(err)
	}
	var sum float64
	for _, a := range answers.Collect() {
		sum += a.Confidence
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("confidences sum to %v, want 1", sum)
	}
}

func TestDecode_deterministic(t *testing.T) {
	docs := []DocumentCandidates{
		docFor(t, "alpha beta gamma", []float32{1, 0, 2}, []float32{0, 1, 1}, 2),
		docFor(t, "delta epsilon", []float32{0.5, 0.5}, []float32{1, 0}, 2),
	}
	cfg := models.ReaderConfiguration{MaxAnswerLength: 2, MaxAnswers: 5}

	first, err := Decode(docs, cfg)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Decode(docs, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first.Collect(), second.Collect()) {
		t.Error("two decodes of the same input differ")
	}
}

func TestDecode_rankedDescending(t *testing.T) {
	doc := docFor(t, "a b c d", []float32{3, 1, 0, 2}, []float32{1, 0, 2, 1}, 3)
	answers, err := Decode([]DocumentCandidates{doc}, permissiveConfig())
	if err != nil {
		t.Fatal(err)
	}
	collected := answers.Collect()
	for i := 1; i < len(collected); i++ {
		if collected[i].Confidence > collected[i-1].Confidence {
			t.Fatalf("answers not sorted by confidence at %d: %v > %v",
				i, collected[i].Confidence, collected[i-1].Confidence)
		}
	}
}

func TestDecode_maxAnswersCap(t *testing.T) {
	doc := docFor(t, "a b c d e", []float32{1, 1, 1, 1, 1}, []float32{1, 1, 1, 1, 1}, 3)
	cfg := models.ReaderConfiguration{MaxAnswerLength: 3, MaxAnswers: 2}
	answers, err := Decode([]DocumentCandidates{doc}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(answers.Collect()); got != 2 {
		t.Errorf("got %d answers, want 2", got)
	}
}

func TestDecode_confidenceThreshold(t *testing.T) {
	doc := docFor(t, "a b c", []float32{5, 0, 0}, []float32{5, 0, 0}, 1)
	cfg := models.ReaderConfiguration{MaxAnswerLength: 1, MaxAnswers: 10, ConfidenceThreshold: 0.5}
	answers, err := Decode([]DocumentCandidates{doc}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	collected := answers.Collect()
	if len(collected) == 0 {
		t.Fatal("expected the dominant span to survive the threshold")
	}
	for _, a := range collected {
		if a.Confidence < 0.5 {
			t.Errorf("answer %q has confidence %v below threshold", a.Text, a.Confidence)
		}
	}
}

func TestDecode_spanWidthBound(t *testing.T) {
	doc := docFor(t, "a b c d e f", []float32{1, 1, 1, 1, 1, 1}, []float32{1, 1, 1, 1, 1, 1}, 2)
	answers, err := Decode([]DocumentCandidates{doc}, models.ReaderConfiguration{MaxAnswerLength: 2, MaxAnswers: 100})
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range answers.Collect() {
		// Single-letter tokens: width in tokens is (chars+1)/2
		width := (len(a.Text) + 1) / 2
		if width > 2 {
			t.Errorf("answer %q spans %d tokens, want <= 2", a.Text, width)
		}
	}
}

func TestDecode_mergeIdenticalText(t *testing.T) {
	// "rowling" is a candidate in both documents.
	doc0 := docFor(t, "rowling wrote it", []float32{4, 0, 0}, []float32{4, 0, 0}, 1)
	doc1 := docFor(t, "ask rowling today", []float32{0, 3, 0}, []float32{0, 3, 0}, 1)

	base := models.ReaderConfiguration{MaxAnswerLength: 1, MaxAnswers: 100}
	unmerged, err := Decode([]DocumentCandidates{doc0, doc1}, base)
	if err != nil {
		t.Fatal(err)
	}
	var separate []models.Answer
	for _, a := range unmerged.Collect() {
		if a.Text == "rowling" {
			separate = append(separate, a)
		}
	}
	if len(separate) != 2 {
		t.Fatalf("setup: want 2 separate rowling answers, got %d", len(separate))
	}

	mergedCfg := base
	mergedCfg.MergeDocumentAnswers = true
	merged, err := Decode([]DocumentCandidates{doc0, doc1}, mergedCfg)
	if err != nil {
		t.Fatal(err)
	}
	var hits []models.Answer
	for _, a := range merged.Collect() {
		if a.Text == "rowling" {
			hits = append(hits, a)
		}
	}
	if len(hits) != 1 {
		t.Fatalf("want 1 merged rowling answer, got %d", len(hits))
	}
	wantConf := separate[0].Confidence + separate[1].Confidence
	if math.Abs(hits[0].Confidence-wantConf) > 1e-9 {
		t.Errorf("merged confidence %v, want %v", hits[0].Confidence, wantConf)
	}
	// Display offsets come from the highest-confidence constituent (doc 0).
	if hits[0].DocumentIndex != 0 {
		t.Errorf("merged answer kept document %d, want 0", hits[0].DocumentIndex)
	}
}

func TestDecode_crossDocumentRanking(t *testing.T) {
	strong := docFor(t, "answer lives here", []float32{6, 0, 0}, []float32{6, 0, 0}, 2)
	weak := docFor(t, "nothing to see", []float32{1, 1, 1}, []float32{1, 1, 1}, 2)
	answers, err := Decode([]DocumentCandidates{weak, strong}, permissiveConfig())
	if err != nil {
		t.Fatal(err)
	}
	top, ok := answers.Next()
	if !ok {
		t.Fatal("no answers")
	}
	if top.DocumentIndex != 1 || top.Text != "answer" {
		t.Errorf("top answer %+v, want %q from document 1", top, "answer")
	}
}

func TestDecode_emptyInput(t *testing.T) {
	for _, docs := range [][]DocumentCandidates{
		nil,
		{{Text: "", Offsets: nil, Spans: nil}},
	} {
		answers, err := Decode(docs, permissiveConfig())
		if err != nil {
			t.Fatalf("empty input should not error: %v", err)
		}
		if _, ok := answers.Next(); ok {
			t.Error("expected empty sequence")
		}
	}
}

func TestDecode_invalidConfiguration(t *testing.T) {
	doc := docFor(t, "a b", []float32{1, 1}, []float32{1, 1}, 2)
	for _, cfg := range []models.ReaderConfiguration{
		{MaxAnswerLength: 0, MaxAnswers: 1},
		{MaxAnswerLength: 2, MaxAnswers: 0},
		{MaxAnswerLength: 2, MaxAnswers: 1, ConfidenceThreshold: 2},
	} {
		if _, err := Decode([]DocumentCandidates{doc}, cfg); !errors.Is(err, models.ErrInvalidConfiguration) {
			t.Errorf("cfg %+v: want ErrInvalidConfiguration, got %v", cfg, err)
		}
	}
}

func TestAnswers_exhaustion(t *testing.T) {
	doc := docFor(t, "a b", []float32{1, 0}, []float32{1, 0}, 1)
	answers, err := Decode([]DocumentCandidates{doc}, models.ReaderConfiguration{MaxAnswerLength: 1, MaxAnswers: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := answers.Next(); !ok {
		t.Fatal("expected one answer")
	}
	if _, ok := answers.Next(); ok {
		t.Error("sequence should be exhausted")
	}
	if _, ok := answers.Next(); ok {
		t.Error("exhausted sequence should stay exhausted")
	}
}

func TestDecode_longText(t *testing.T) {
	words := make([]string, 60)
	start := make([]float32, 60)
	end := make([]float32, 60)
	for i := range words {
		words[i] = "w"
	}
	start[30] = 10
	end[30] = 10
	doc := docFor(t, strings.Join(words, " "), start, end, 1)

	answers, err := Decode([]DocumentCandidates{doc}, models.ReaderConfiguration{MaxAnswerLength: 1, MaxAnswers: 1})
	if err != nil {
		t.Fatal(err)
	}
	top, ok := answers.Next()
	if !ok {
		t.Fatal("no answers")
	}
	// 20 tokens either side of token 30: tokens 10..50 inclusive, 41 tokens.
	gotTokens := len(strings.Split(top.LongText, " "))
	if gotTokens != 41 {
		t.Errorf("long text has %d tokens, want 41", gotTokens)
	}
	if top.LongStartChar > top.StartChar || top.LongEndChar < top.EndChar {
		t.Errorf("long span [%d,%d) does not contain answer span [%d,%d)",
			top.LongStartChar, top.LongEndChar, top.StartChar, top.EndChar)
	}
}
