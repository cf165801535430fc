package aml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXModel is a pretrained reconstruction model loaded from a bundle
// directory. It replaces the built-in untrained network when configured.
// The exported graph must take a "features" float32 input of shape
// [1, featureSize] and produce a "reconstruction" output of the same shape.
type ONNXModel struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	width   int

	mu sync.Mutex
}

// LoadONNXModel initializes the ONNX session for a reconstruction bundle.
func LoadONNXModel(bundleDir string, featureSize int) (*ONNXModel, error) {
	if bundleDir == "" {
		return nil, errors.New("bundleDir is empty")
	}
	if featureSize <= 0 {
		featureSize = DefaultFeatureSize
	}

	libPath := resolveSharedLibraryPath(bundleDir)
	if libPath == "" {
		return nil, fmt.Errorf("onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH or install the runtime")
	}
	ort.SetSharedLibraryPath(libPath)
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	modelPath := filepath.Join(bundleDir, "reconstructor_v1.onnx")
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", modelPath, err)
	}

	shape := ort.NewShape(1, int64(featureSize))
	input, err := ort.NewEmptyTensor[float32](shape)
	if err != nil {
		return nil, fmt.Errorf("allocate features tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](shape)
	if err != nil {
		return nil, fmt.Errorf("allocate reconstruction tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"features"},
		[]string{"reconstruction"},
		[]ort.Value{input},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &ONNXModel{
		session: session,
		input:   input,
		output:  output,
		width:   featureSize,
	}, nil
}

// Reconstruct runs one inference. The session tensors are reused, so runs
// are serialized with a mutex.
func (m *ONNXModel) Reconstruct(features []float64) ([]float64, error) {
	if m == nil || m.session == nil {
		return nil, errors.New("onnx reconstructor not initialized")
	}
	if len(features) != m.width {
		return nil, fmt.Errorf("feature width %d does not match model width %d", len(features), m.width)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	in := m.input.GetData()
	for i, v := range features {
		in[i] = float32(v)
	}

	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}

	raw := m.output.GetData()
	out := make([]float64, m.width)
	for i := range out {
		out[i] = float64(raw[i])
	}
	return out, nil
}

// Close releases the session and its tensors.
func (m *ONNXModel) Close() {
	if m == nil {
		return
	}
	if m.session != nil {
		m.session.Destroy()
	}
	if m.input != nil {
		m.input.Destroy()
	}
	if m.output != nil {
		m.output.Destroy()
	}
}

// resolveSharedLibraryPath locates a platform-specific onnxruntime shared
// library. ONNXRUNTIME_SHARED_LIBRARY_PATH wins; otherwise common
// names/locations are probed.
func resolveSharedLibraryPath(bundleDir string) string {
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.dylib",
		"onnxruntime.dylib",
		"libonnxruntime.so",
		"onnxruntime.so",
		"onnxruntime.dll",
	}
	dirs := []string{
		bundleDir,
		filepath.Join(bundleDir, "lib"),
		".",
		"/opt/homebrew/lib",
		"/usr/local/lib",
		"/usr/lib",
	}

	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
