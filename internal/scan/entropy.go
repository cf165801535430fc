package scan

import "math"

// Entropy computes the Shannon entropy of the byte distribution in bits per
// byte, i.e. a value in [0,8]. Both detectors use it: the pattern matcher to
// spot smuggled encrypted payloads and the anomaly detector as a decision
// signal.
func Entropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}

	var counts [256]int
	for _, b := range data {
		counts[b]++
	}

	entropy := 0.0
	n := float64(len(data))
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}
