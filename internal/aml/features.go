package aml

import "math"

// DefaultFeatureSize is the width of the feature vector the reconstruction
// model consumes.
const DefaultFeatureSize = 256

// featureWindow is how much of the content prefix feeds the histogram.
const featureWindow = 10 * 1024

// Features extracts the fixed-size statistical feature vector: a normalized
// byte-frequency histogram over the content prefix, padded or truncated to
// size.
func Features(data []byte, size int) []float64 {
	if size <= 0 {
		size = DefaultFeatureSize
	}
	if len(data) > featureWindow {
		data = data[:featureWindow]
	}

	var counts [256]float64
	for _, b := range data {
		counts[b]++
	}

	out := make([]float64, size)
	n := float64(len(data))
	if n == 0 {
		return out
	}
	for i := 0; i < size && i < 256; i++ {
		out[i] = counts[i] / n
	}
	return out
}

func meanStd(v []float64) (mean, std float64) {
	if len(v) == 0 {
		return 0, 0
	}
	for _, x := range v {
		mean += x
	}
	mean /= float64(len(v))
	for _, x := range v {
		d := x - mean
		std += d * d
	}
	return mean, math.Sqrt(std / float64(len(v)))
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
