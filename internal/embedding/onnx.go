//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/hyperjump/yomu/internal/models"
)

// ONNXModel runs a split machine-reading graph with ONNX Runtime: an encoder
// session producing question-independent per-token embeddings, and a scorer
// session producing start/end logits for a question against those embeddings.
// Requires CGO and the onnxruntime shared library.
type ONNXModel struct {
	encoder    *ort.AdvancedSession
	scorer     *ort.AdvancedSession
	dimensions int
	maxTokens  int

	// Pre-allocated tensors for Run(); we update input data and read output.
	encInputIDs *ort.Tensor[int64]
	encMask     *ort.Tensor[int64]
	encOutput   *ort.Tensor[float32]

	scoQuestionIDs  *ort.Tensor[int64]
	scoQuestionMask *ort.Tensor[int64]
	scoEmbedding    *ort.Tensor[float32]
	scoStart        *ort.Tensor[float32]
	scoEnd          *ort.Tensor[float32]

	mu sync.Mutex
}

// NewONNXModel creates an ONNX model from an encoder graph and a scorer
// graph. InitializeEnvironment is called if not already done.
func NewONNXModel(encoderPath, scorerPath string, dimensions, maxTokens int) (*ONNXModel, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	m := &ONNXModel{dimensions: dimensions, maxTokens: maxTokens}
	if err := m.createTensors(); err != nil {
		m.destroyTensors()
		return nil, err
	}

	encoder, err := ort.NewAdvancedSession(
		encoderPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"token_embeddings"},
		[]ort.ArbitraryTensor{m.encInputIDs, m.encMask},
		[]ort.ArbitraryTensor{m.encOutput},
		nil,
	)
	if err != nil {
		m.destroyTensors()
		return nil, fmt.Errorf("failed to create encoder session: %w", err)
	}
	m.encoder = encoder

	scorer, err := ort.NewAdvancedSession(
		scorerPath,
		[]string{"question_ids", "question_mask", "token_embeddings"},
		[]string{"start_logits", "end_logits"},
		[]ort.ArbitraryTensor{m.scoQuestionIDs, m.scoQuestionMask, m.scoEmbedding},
		[]ort.ArbitraryTensor{m.scoStart, m.scoEnd},
		nil,
	)
	if err != nil {
		_ = encoder.Destroy()
		m.destroyTensors()
		return nil, fmt.Errorf("failed to create scorer session: %w", err)
	}
	m.scorer = scorer

	return m, nil
}

func (m *ONNXModel) createTensors() error {
	seq := func() ort.Shape { return ort.NewShape(1, int64(m.maxTokens)) }
	emb := func() ort.Shape { return ort.NewShape(1, int64(m.maxTokens), int64(m.dimensions)) }

	var err error
	if m.encInputIDs, err = ort.NewTensor(seq(), make([]int64, m.maxTokens)); err != nil {
		return fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	if m.encMask, err = ort.NewTensor(seq(), make([]int64, m.maxTokens)); err != nil {
		return fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	if m.encOutput, err = ort.NewTensor(emb(), make([]float32, m.maxTokens*m.dimensions)); err != nil {
		return fmt.Errorf("failed to create token_embeddings tensor: %w", err)
	}
	if m.scoQuestionIDs, err = ort.NewTensor(seq(), make([]int64, m.maxTokens)); err != nil {
		return fmt.Errorf("failed to create question_ids tensor: %w", err)
	}
	if m.scoQuestionMask, err = ort.NewTensor(seq(), make([]int64, m.maxTokens)); err != nil {
		return fmt.Errorf("failed to create question_mask tensor: %w", err)
	}
	if m.scoEmbedding, err = ort.NewTensor(emb(), make([]float32, m.maxTokens*m.dimensions)); err != nil {
		return fmt.Errorf("failed to create scorer embedding tensor: %w", err)
	}
	if m.scoStart, err = ort.NewTensor(seq(), make([]float32, m.maxTokens)); err != nil {
		return fmt.Errorf("failed to create start_logits tensor: %w", err)
	}
	if m.scoEnd, err = ort.NewTensor(seq(), make([]float32, m.maxTokens)); err != nil {
		return fmt.Errorf("failed to create end_logits tensor: %w", err)
	}
	return nil
}

// Tokenize splits text on whitespace and returns tokens with byte offsets.
// Token IDs for the graph are hash-derived; deployments with a trained
// vocabulary should swap in a matching tokenizer implementation.
func (m *ONNXModel) Tokenize(text string) ([]string, []models.TokenOffset) {
	return SplitTokens(text)
}

// GetDocumentEmbedding runs the encoder session and returns one embedding
// row per token of text.
func (m *ONNXModel) GetDocumentEmbedding(_ context.Context, text string) ([][]float32, error) {
	tokens, _ := m.Tokenize(text)
	n := len(tokens)
	if n > m.maxTokens-2 {
		return nil, fmt.Errorf("document has %d tokens, model limit is %d", n, m.maxTokens-2)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	fillSequence(m.encInputIDs.GetData(), m.encMask.GetData(), tokens)
	if err := m.encoder.Run(); err != nil {
		return nil, fmt.Errorf("encoder inference failed: %w", err)
	}

	out := m.encOutput.GetData()
	emb := make([][]float32, n)
	for i := 0; i < n; i++ {
		row := make([]float32, m.dimensions)
		// Position 0 is the [CLS] slot; token i sits at position i+1.
		copy(row, out[(i+1)*m.dimensions:(i+2)*m.dimensions])
		emb[i] = row
	}
	return emb, nil
}

// GetLogits runs the scorer session and returns start/end logits aligned
// with the rows of documentEmbedding.
func (m *ONNXModel) GetLogits(_ context.Context, question string, documentEmbedding [][]float32) (models.Logits, error) {
	n := len(documentEmbedding)
	if n > m.maxTokens-2 {
		return models.Logits{}, fmt.Errorf("embedding has %d rows, model limit is %d", n, m.maxTokens-2)
	}
	questionTokens, _ := m.Tokenize(question)
	if len(questionTokens) > m.maxTokens-2 {
		return models.Logits{}, fmt.Errorf("question has %d tokens, model limit is %d", len(questionTokens), m.maxTokens-2)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	fillSequence(m.scoQuestionIDs.GetData(), m.scoQuestionMask.GetData(), questionTokens)

	embData := m.scoEmbedding.GetData()
	for i := range embData {
		embData[i] = 0
	}
	for i, row := range documentEmbedding {
		copy(embData[(i+1)*m.dimensions:(i+2)*m.dimensions], row)
	}

	if err := m.scorer.Run(); err != nil {
		return models.Logits{}, fmt.Errorf("scorer inference failed: %w", err)
	}

	logits := models.Logits{Start: make([]float32, n), End: make([]float32, n)}
	copy(logits.Start, m.scoStart.GetData()[1:n+1])
	copy(logits.End, m.scoEnd.GetData()[1:n+1])
	return logits, nil
}

// fillSequence writes [CLS] token-ids [SEP] with padding into ids and the
// matching attention mask into mask.
func fillSequence(ids, mask []int64, tokens []string) {
	for i := range ids {
		ids[i] = 0
		mask[i] = 0
	}
	ids[0] = 101 // [CLS]
	mask[0] = 1
	pos := 1
	for _, tok := range tokens {
		if pos >= len(ids)-1 {
			break
		}
		ids[pos] = int64(HashString(tok) % 30000)
		mask[pos] = 1
		pos++
	}
	if pos < len(ids) {
		ids[pos] = 102 // [SEP]
		mask[pos] = 1
	}
}

// Close destroys the sessions and tensors.
func (m *ONNXModel) Close() error {
	var err error
	if m.encoder != nil {
		err = m.encoder.Destroy()
		m.encoder = nil
	}
	if m.scorer != nil {
		if serr := m.scorer.Destroy(); err == nil {
			err = serr
		}
		m.scorer = nil
	}
	m.destroyTensors()
	return err
}

func (m *ONNXModel) destroyTensors() {
	for _, t := range []*ort.Tensor[int64]{m.encInputIDs, m.encMask, m.scoQuestionIDs, m.scoQuestionMask} {
		if t != nil {
			_ = t.Destroy()
		}
	}
	for _, t := range []*ort.Tensor[float32]{m.encOutput, m.scoEmbedding, m.scoStart, m.scoEnd} {
		if t != nil {
			_ = t.Destroy()
		}
	}
	m.encInputIDs, m.encMask, m.scoQuestionIDs, m.scoQuestionMask = nil, nil, nil, nil
	m.encOutput, m.scoEmbedding, m.scoStart, m.scoEnd = nil, nil, nil, nil
}
