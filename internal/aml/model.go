package aml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
)

// Reconstructor maps a feature vector through an encode/decode transform.
// The anomaly score is derived from how badly the input survives the round trip.
type Reconstructor interface {
	Reconstruct(features []float64) ([]float64, error)
}

const (
	actReLU    = "relu"
	actSigmoid = "sigmoid"
)

type layer struct {
	W          [][]float64 `json:"w"` // [out][in]
	B          []float64   `json:"b"`
	Activation string      `json:"activation"`
}

// Autoencoder is a small fully-connected encode/decode network over the byte
// histogram features. Until it is trained (or a checkpoint is loaded) the
// weights are deterministic random values, so fresh deployments must not
// treat its scores as calibrated.
type Autoencoder struct {
	FeatureSize int     `json:"feature_size"`
	Layers      []layer `json:"layers"`
}

// NewAutoencoder builds the 256→128→64→128→256-shaped network (scaled to
// featureSize) with seeded random weights.
func NewAutoencoder(featureSize int, seed int64) *Autoencoder {
	if featureSize <= 0 {
		featureSize = DefaultFeatureSize
	}
	hidden := featureSize / 2
	bottleneck := featureSize / 4
	if hidden < 2 {
		hidden = 2
	}
	if bottleneck < 1 {
		bottleneck = 1
	}

	rng := rand.New(rand.NewSource(seed))
	a := &Autoencoder{FeatureSize: featureSize}
	dims := []int{featureSize, hidden, bottleneck, hidden, featureSize}
	acts := []string{actReLU, actReLU, actReLU, actSigmoid}
	for i := 0; i < len(dims)-1; i++ {
		a.Layers = append(a.Layers, newLayer(rng, dims[i], dims[i+1], acts[i]))
	}
	return a
}

func newLayer(rng *rand.Rand, in, out int, activation string) layer {
	// Xavier-style scaling keeps the untrained forward pass numerically tame.
	scale := math.Sqrt(2.0 / float64(in+out))
	l := layer{
		W:          make([][]float64, out),
		B:          make([]float64, out),
		Activation: activation,
	}
	for o := range l.W {
		row := make([]float64, in)
		for i := range row {
			row[i] = rng.NormFloat64() * scale
		}
		l.W[o] = row
	}
	return l
}

// Reconstruct runs the forward pass. The receiver is read-only during
// inference, so concurrent scans may share one model.
func (a *Autoencoder) Reconstruct(features []float64) ([]float64, error) {
	if a == nil || len(a.Layers) == 0 {
		return nil, errors.New("autoencoder not initialized")
	}
	if len(features) != a.FeatureSize {
		return nil, fmt.Errorf("feature width %d does not match model width %d", len(features), a.FeatureSize)
	}
	x := features
	for i := range a.Layers {
		x, _ = a.Layers[i].forward(x)
	}
	return x, nil
}

// forward returns the activated output and the pre-activation values.
func (l *layer) forward(x []float64) (out, pre []float64) {
	pre = make([]float64, len(l.W))
	out = make([]float64, len(l.W))
	for o, row := range l.W {
		sum := l.B[o]
		for i, w := range row {
			sum += w * x[i]
		}
		pre[o] = sum
		out[o] = activate(l.Activation, sum)
	}
	return out, pre
}

func activate(kind string, z float64) float64 {
	switch kind {
	case actSigmoid:
		return 1 / (1 + math.Exp(-z))
	default: // relu
		if z < 0 {
			return 0
		}
		return z
	}
}

func activateGrad(kind string, z float64) float64 {
	switch kind {
	case actSigmoid:
		s := 1 / (1 + math.Exp(-z))
		return s * (1 - s)
	default:
		if z < 0 {
			return 0
		}
		return 1
	}
}

// Train runs plain per-sample gradient descent minimizing the reconstruction
// MSE over known-clean feature vectors. It is an offline operation; never run
// it concurrently with scans.
func (a *Autoencoder) Train(samples [][]float64, epochs int, learningRate float64) error {
	if len(samples) == 0 {
		return errors.New("no training samples")
	}
	for _, s := range samples {
		if len(s) != a.FeatureSize {
			return fmt.Errorf("sample width %d does not match model width %d", len(s), a.FeatureSize)
		}
	}
	if epochs <= 0 {
		epochs = 10
	}
	if learningRate <= 0 {
		learningRate = 0.01
	}

	for epoch := 0; epoch < epochs; epoch++ {
		for _, x := range samples {
			a.step(x, learningRate)
		}
	}
	return nil
}

func (a *Autoencoder) step(x []float64, lr float64) {
	n := len(a.Layers)
	inputs := make([][]float64, n)  // input to each layer
	pres := make([][]float64, n)    // pre-activation per layer
	outputs := make([][]float64, n) // activated output per layer

	cur := x
	for i := range a.Layers {
		inputs[i] = cur
		outputs[i], pres[i] = a.Layers[i].forward(cur)
		cur = outputs[i]
	}

	// dLoss/dOut for MSE against the input itself.
	delta := make([]float64, len(cur))
	for i := range delta {
		delta[i] = 2 * (cur[i] - x[i]) / float64(len(cur))
	}

	for li := n - 1; li >= 0; li-- {
		l := &a.Layers[li]
		dz := make([]float64, len(delta))
		for o := range delta {
			dz[o] = delta[o] * activateGrad(l.Activation, pres[li][o])
		}

		prevDelta := make([]float64, len(inputs[li]))
		for o, row := range l.W {
			for i, w := range row {
				prevDelta[i] += w * dz[o]
				row[i] -= lr * dz[o] * inputs[li][i]
			}
			l.B[o] -= lr * dz[o]
		}
		delta = prevDelta
	}
}

// MSE is the mean squared reconstruction error for one feature vector.
func (a *Autoencoder) MSE(features []float64) (float64, error) {
	rec, err := a.Reconstruct(features)
	if err != nil {
		return 0, err
	}
	return meanSquaredError(features, rec), nil
}

func meanSquaredError(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum / float64(len(a))
}

// Save writes the weights as a JSON checkpoint.
func (a *Autoencoder) Save(path string) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint reads a JSON checkpoint produced by Save.
func LoadCheckpoint(path string) (*Autoencoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	var a Autoencoder
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	if a.FeatureSize <= 0 || len(a.Layers) == 0 {
		return nil, errors.New("checkpoint is empty or malformed")
	}
	return &a, nil
}
