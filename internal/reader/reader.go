// Package reader wires the model, embedding cache, and answer decoder behind
// the machine-reading workflows.
package reader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/yomu/internal/decoder"
	"github.com/hyperjump/yomu/internal/docid"
	"github.com/hyperjump/yomu/internal/embedding"
	"github.com/hyperjump/yomu/internal/models"
)

const defaultCacheSize = 1024

// MachineReader answers natural-language questions against text documents
// using a pluggable model. It is safe for concurrent use if the model is.
type MachineReader struct {
	model  embedding.Model
	cache  *embedding.DocumentCache
	logger *zap.Logger
}

// New creates a MachineReader over model. cache may be nil, in which case an
// in-memory cache with the default capacity is created; logger may be nil.
func New(model embedding.Model, cache *embedding.DocumentCache, logger *zap.Logger) *MachineReader {
	if cache == nil {
		cache = embedding.NewDocumentCache(model, defaultCacheSize, nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MachineReader{model: model, cache: cache, logger: logger}
}

// LogitsOption adjusts how GetLogits and GetDocumentEmbedding run.
type LogitsOption func(*logitsOptions)

type logitsOptions struct {
	before    string
	after     string
	embedding [][]float32
}

// WithOverlap embeds the document together with surrounding context text.
// The overlap tokens influence the embedding but are trimmed from the
// returned logits, which stay aligned 1:1 with the document's own tokens.
func WithOverlap(before, after string) LogitsOption {
	return func(o *logitsOptions) {
		o.before = before
		o.after = after
	}
}

// WithDocumentEmbedding supplies a precomputed embedding (covering the
// document plus any overlap text), skipping the embed step entirely.
func WithDocumentEmbedding(emb [][]float32) LogitsOption {
	return func(o *logitsOptions) { o.embedding = emb }
}

// GetAnswers runs the end-to-end single-document workflow: tokenize, embed
// (through the cache), score, and decode. Answers are yielded lazily in
// confidence order.
func (r *MachineReader) GetAnswers(ctx context.Context, cfg models.ReaderConfiguration, documentText, question string) (*decoder.Answers, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logits, offsets, err := r.GetLogits(ctx, documentText, question)
	if err != nil {
		return nil, err
	}
	return r.GetAnswersFromLogits(cfg, []models.Logits{logits}, [][]models.TokenOffset{offsets}, []string{documentText})
}

// GetLogits returns raw start/end scores for question against documentText,
// one per document token, plus the document's token offsets. A precomputed
// embedding can be supplied with WithDocumentEmbedding; otherwise the
// embedding is obtained through the cache. Model failures propagate
// unchanged: the reader has no basis for retrying an unknown model.
func (r *MachineReader) GetLogits(ctx context.Context, documentText, question string, opts ...LogitsOption) (models.Logits, []models.TokenOffset, error) {
	var o logitsOptions
	for _, opt := range opts {
		opt(&o)
	}

	_, offsets := r.model.Tokenize(documentText)
	if len(offsets) == 0 {
		return models.Logits{}, nil, fmt.Errorf("document has no tokens: %q", documentText)
	}
	qTokens, _ := r.model.Tokenize(question)
	if len(qTokens) == 0 {
		return models.Logits{}, nil, fmt.Errorf("question has no tokens: %q", question)
	}

	combined := o.before + documentText + o.after
	nBefore, nText, nAfter := r.countTokens(o.before), len(offsets), r.countTokens(o.after)
	nTotal := r.countTokens(combined)
	if nTotal != nBefore+nText+nAfter {
		return models.Logits{}, nil, fmt.Errorf("overlap token mismatch: %d combined tokens, %d in parts",
			nTotal, nBefore+nText+nAfter)
	}

	emb := o.embedding
	if emb == nil {
		var err error
		emb, err = r.cache.GetOrCompute(ctx, docid.ContentID(combined), combined)
		if err != nil {
			return models.Logits{}, nil, err
		}
	}
	if len(emb) != nTotal {
		return models.Logits{}, nil, fmt.Errorf("%w: embedding has %d rows, document has %d tokens",
			decoder.ErrInvalidScoreShape, len(emb), nTotal)
	}

	logits, err := r.model.GetLogits(ctx, question, emb)
	if err != nil {
		return models.Logits{}, nil, err
	}
	if len(logits.Start) != nTotal || len(logits.End) != nTotal {
		return models.Logits{}, nil, fmt.Errorf("%w: model returned %d/%d logits for %d tokens",
			decoder.ErrInvalidScoreShape, len(logits.Start), len(logits.End), nTotal)
	}

	trimmed := models.Logits{
		Start: logits.Start[nBefore : nBefore+nText],
		End:   logits.End[nBefore : nBefore+nText],
	}
	return trimmed, offsets, nil
}

// GetDocumentEmbedding computes (or fetches from the cache) the
// question-independent embedding for text, optionally including overlap
// context. Callers can store the result and pass it back later through
// WithDocumentEmbedding.
func (r *MachineReader) GetDocumentEmbedding(ctx context.Context, text string, opts ...LogitsOption) ([][]float32, error) {
	var o logitsOptions
	for _, opt := range opts {
		opt(&o)
	}
	if r.countTokens(text) == 0 {
		return nil, fmt.Errorf("document has no tokens: %q", text)
	}
	combined := o.before + text + o.after
	return r.cache.GetOrCompute(ctx, docid.ContentID(combined), combined)
}

// GetAnswersFromLogits decodes answers from logits computed out-of-band,
// across one or more documents. Confidences are normalized jointly so they
// are comparable across documents. The slices must be parallel: element i of
// each describes document i.
func (r *MachineReader) GetAnswersFromLogits(cfg models.ReaderConfiguration, logitsList []models.Logits, offsetsList [][]models.TokenOffset, documentTexts []string) (*decoder.Answers, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(logitsList) != len(offsetsList) || len(logitsList) != len(documentTexts) {
		return nil, fmt.Errorf("%w: %d logits, %d offsets, %d texts",
			decoder.ErrInvalidScoreShape, len(logitsList), len(offsetsList), len(documentTexts))
	}

	started := time.Now()
	docs := make([]decoder.DocumentCandidates, len(documentTexts))
	total := 0
	for i, logits := range logitsList {
		spans, err := decoder.ScoreSpans(logits.Start, logits.End, offsetsList[i], cfg.MaxAnswerLength)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		docs[i] = decoder.DocumentCandidates{
			Text:    documentTexts[i],
			Offsets: offsetsList[i],
			Spans:   spans,
		}
		total += len(spans)
	}

	answers, err := decoder.Decode(docs, cfg)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("decoded answers",
		zap.Int("documents", len(docs)),
		zap.Int("candidates", total),
		zap.Duration("took", time.Since(started)))
	return answers, nil
}

// GetAnswersFromDocuments answers a question against several documents at
// once. Embedding and scoring run concurrently per document; decoding then
// ranks all candidates jointly.
func (r *MachineReader) GetAnswersFromDocuments(ctx context.Context, cfg models.ReaderConfiguration, documentTexts []string, question string) (*decoder.Answers, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logitsList := make([]models.Logits, len(documentTexts))
	offsetsList := make([][]models.TokenOffset, len(documentTexts))
	errChan := make(chan error, len(documentTexts))
	var wg sync.WaitGroup
	for i, text := range documentTexts {
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()
			logits, offsets, err := r.GetLogits(ctx, text, question)
			if err != nil {
				errChan <- fmt.Errorf("document %d: %w", i, err)
				return
			}
			logitsList[i] = logits
			offsetsList[i] = offsets
		}(i, text)
	}
	wg.Wait()
	close(errChan)
	if err := <-errChan; err != nil {
		return nil, err
	}

	return r.GetAnswersFromLogits(cfg, logitsList, offsetsList, documentTexts)
}

func (r *MachineReader) countTokens(text string) int {
	tokens, _ := r.model.Tokenize(text)
	return len(tokens)
}
