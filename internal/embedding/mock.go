package embedding

import (
	"context"
	"math"

	"github.com/hyperjump/yomu/internal/models"
	"github.com/hyperjump/yomu/pkg/utils"
)

// MockModel is a deterministic model for tests and environments without an
// ONNX runtime. Token embeddings are derived from token hashes so the same
// text always gets the same embedding, and logits are dot products against
// hash-derived question vectors. It exercises every shape in the model
// contract without doing real inference.
type MockModel struct {
	dimensions int
}

// NewMockModel returns a mock model producing embeddings of the given dimensions.
func NewMockModel(dimensions int) *MockModel {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockModel{dimensions: dimensions}
}

// Tokenize splits text on whitespace and returns tokens with byte offsets.
func (m *MockModel) Tokenize(text string) ([]string, []models.TokenOffset) {
	return SplitTokens(text)
}

// GetDocumentEmbedding returns one hash-derived unit vector per token.
func (m *MockModel) GetDocumentEmbedding(_ context.Context, text string) ([][]float32, error) {
	tokens, _ := m.Tokenize(text)
	emb := make([][]float32, len(tokens))
	for i, tok := range tokens {
		emb[i] = m.vectorFor(tok)
	}
	return emb, nil
}

// GetLogits scores each embedding row against two question-derived vectors,
// one for span starts and one for span ends.
func (m *MockModel) GetLogits(_ context.Context, question string, documentEmbedding [][]float32) (models.Logits, error) {
	qStart := m.vectorFor("start\x00" + question)
	qEnd := m.vectorFor("end\x00" + question)

	logits := models.Logits{
		Start: make([]float32, len(documentEmbedding)),
		End:   make([]float32, len(documentEmbedding)),
	}
	for i, row := range documentEmbedding {
		logits.Start[i] = 8 * dot(row, qStart)
		logits.End[i] = 8 * dot(row, qEnd)
	}
	return logits, nil
}

func (m *MockModel) vectorFor(s string) []float32 {
	h := HashString(s)
	v := make([]float32, m.dimensions)
	for i := range v {
		v[i] = float32(math.Sin(float64(h*(i+1)))*0.1 + 0.01)
	}
	utils.NormalizeL2(v)
	return v
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := 0; i < len(a) && i < len(b); i++ {
		sum += a[i] * b[i]
	}
	return sum
}
