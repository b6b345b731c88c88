package fsrs

import (
	"fmt"
	"math"
)

// MinWeights is the number of weights the formulas read. Longer tables are
// accepted and the extra entries ignored.
const MinWeights = 19

// defaultWeights is the bundled calibrated table.
var defaultWeights = [MinWeights]float64{
	0.40255, 1.18385, 3.173, 15.69105, // initial stability per grade
	7.1949, 0.5345, // initial difficulty
	1.4604, 0.0046, // difficulty step, mean reversion
	1.54575, 0.1192, 1.01925, // recall stability
	1.9395, 0.11, 0.29605, 2.2698, // lapse stability
	0.2315, 2.9898, // hard penalty, easy bonus
	0.51655, 0.6621,
}

// Params is an immutable parameter table. Every formula reads from it by
// fixed index; it is safe for concurrent use.
type Params struct {
	w []float64
}

// New validates and copies weights into a Params.
func New(weights []float64) (*Params, error) {
	if len(weights) < MinWeights {
		return nil, fmt.Errorf("%w: got %d weights, need at least %d", ErrShortTable, len(weights), MinWeights)
	}
	for i, v := range weights {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: w[%d] = %v", ErrInvalidWeight, i, v)
		}
	}
	for _, g := range Grades {
		if weights[g.index()] <= 0 {
			return nil, fmt.Errorf("%w: initial stability w[%d] must be positive", ErrInvalidWeight, g.index())
		}
	}
	// Recall growth, the hard penalty and the easy bonus must stay positive
	// or a successful review could shrink stability below zero.
	for _, i := range []int{10, 15, 16} {
		if weights[i] <= 0 {
			return nil, fmt.Errorf("%w: w[%d] = %v must be positive", ErrInvalidWeight, i, weights[i])
		}
	}
	w := make([]float64, len(weights))
	copy(w, weights)
	return &Params{w: w}, nil
}

// Default returns the bundled calibrated parameter table.
func Default() *Params {
	p, err := New(defaultWeights[:])
	if err != nil {
		panic(err)
	}
	return p
}

// Weights returns a copy of the table.
func (p *Params) Weights() []float64 {
	w := make([]float64, len(p.w))
	copy(w, p.w)
	return w
}

// Len returns the number of weights in the table.
func (p *Params) Len() int {
	return len(p.w)
}
