package embedding

import "fmt"

// Backend represents the type of model backend to use.
type Backend string

const (
	// BackendMock uses the deterministic hash-based mock model. Good for
	// tests and environments without an ONNX runtime.
	BackendMock Backend = "mock"
	// BackendONNX uses a split ONNX graph. Requires CGO and the
	// onnxruntime shared library.
	BackendONNX Backend = "onnx"
)

// NewModel creates a model of the specified backend.
// Supported backends: "mock" (default), "onnx".
func NewModel(backend, encoderPath, scorerPath string, dimensions, maxTokens int) (Model, error) {
	switch Backend(backend) {
	case BackendMock, "":
		return NewMockModel(dimensions), nil
	case BackendONNX:
		m, err := NewONNXModel(encoderPath, scorerPath, dimensions, maxTokens)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown model backend: %s (supported: mock, onnx)", backend)
	}
}
