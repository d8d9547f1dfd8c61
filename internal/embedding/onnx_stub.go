//go:build !cgo
// +build !cgo

package embedding

import (
	"context"
	"errors"

	"github.com/hyperjump/yomu/internal/models"
)

// ONNXModel stub type when built without CGO (see onnx.go for real implementation).
type ONNXModel struct{}

// NewONNXModel returns an error when built without CGO (ONNX not available).
func NewONNXModel(_, _ string, _, _ int) (*ONNXModel, error) {
	return nil, errors.New("ONNX model requires CGO; build with CGO_ENABLED=1 and onnxruntime")
}

// Tokenize is unreachable on the stub; NewONNXModel never returns a value.
func (m *ONNXModel) Tokenize(string) ([]string, []models.TokenOffset) { return nil, nil }

func (m *ONNXModel) GetDocumentEmbedding(context.Context, string) ([][]float32, error) {
	return nil, errors.New("ONNX model not available")
}

func (m *ONNXModel) GetLogits(context.Context, string, [][]float32) (models.Logits, error) {
	return models.Logits{}, errors.New("ONNX model not available")
}

// Close is a no-op on the stub.
func (m *ONNXModel) Close() error { return nil }
