package fsrs

import (
	"fmt"
	"strconv"
	"strings"
)

// NumWeights is the number of model weights (w0..w20).
const NumWeights = 21

// Weights holds the 21 calibrated model weights. Not every weight feeds a
// formula in this scheduler (w14, w17-w20 belong to optimizer and
// short-term extensions), but the full vector is carried so externally
// trained parameter sets load unchanged.
type Weights [NumWeights]float64

// DefaultWeights returns the published default parameter set.
func DefaultWeights() Weights {
	return Weights{
		0.4072,  // w0: initial stability, Again
		1.1829,  // w1: initial stability, Hard
		3.1262,  // w2: initial stability, Good
		15.4722, // w3: initial stability, Easy
		7.2102,  // w4: baseline difficulty
		0.5316,  // w5: initial difficulty grade slope
		1.0651,  // w6: difficulty delta, Again/Hard
		0.0234,  // w7: difficulty delta, Easy
		1.616,   // w8: stability increase scale
		0.1544,  // w9: stability decay rate
		0.9221,  // w10: retrievability exponent
		2.0063,  // w11: lapse stability scale
		0.2272,  // w12: lapse difficulty exponent
		0.2281,  // w13: lapse stability exponent
		1.5662,  // w14: stability increase scale (reserved)
		0.0,     // w15: hard penalty slot (reserved)
		2.9469,  // w16: easy bonus
		0.2272,  // w17: short-term grade weight
		2.8284,  // w18: short-term grade scale
		0.0,     // w19: short-term decay
		0.15,    // w20: forgetting curve personalization
	}
}

// ParseWeights parses a comma-separated list of exactly 21 floats, the
// format produced by parameter optimizers and accepted by FSRS_WEIGHTS.
func ParseWeights(s string) (Weights, error) {
	var w Weights
	parts := strings.Split(s, ",")
	if len(parts) != NumWeights {
		return w, fmt.Errorf("fsrs: expected %d weights, got %d", NumWeights, len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return w, fmt.Errorf("fsrs: weight %d: %w", i, err)
		}
		w[i] = v
	}
	return w, nil
}
