// Package embedding provides the machine-reading model boundary, document
// embedding caching, and the mock and ONNX model backends.
package embedding

import (
	"context"

	"github.com/hyperjump/yomu/internal/models"
)

// Model is the pluggable machine-reading capability. Implementations must be
// deterministic: identical inputs produce identical outputs.
//
// Tokenize is non-destructive: the returned offsets index into the original
// text and reconstruct each token's substring exactly, in non-decreasing
// order. GetDocumentEmbedding returns one row per token of the tokenized
// text. GetLogits returns one start and one end score per embedding row.
type Model interface {
	Tokenize(text string) ([]string, []models.TokenOffset)
	GetDocumentEmbedding(ctx context.Context, text string) ([][]float32, error)
	GetLogits(ctx context.Context, question string, documentEmbedding [][]float32) (models.Logits, error)
}
