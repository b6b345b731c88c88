package fsrs

import "math"

const (
	minDifficulty = 1.0
	maxDifficulty = 10.0
)

// State is the memory state of a card. It is owned and stored by the caller.
type State struct {
	Stability  float64
	Difficulty float64
}

// InitialStability is the stability after the first review of a card.
func (p *Params) InitialStability(g Grade) float64 {
	return p.w[g.index()]
}

// InitialDifficulty is the difficulty after the first review of a card.
// InitialDifficulty(Forgot) is exactly w[4].
//
//	D0(G) = w4 - e^(w5·(G-1)) + 1
func (p *Params) InitialDifficulty(g Grade) float64 {
	return clampDifficulty(p.initialDifficulty(g))
}

func (p *Params) initialDifficulty(g Grade) float64 {
	return p.w[4] - math.Exp(p.w[5]*float64(g.index())) + 1
}

// Difficulty returns the difficulty after a review graded g.
//
//	ΔD  = -w6·(G-3)
//	D'  = D + ΔD·(10-D)/9
//	D'' = w7·D0(Easy) + (1-w7)·D'
func (p *Params) Difficulty(d float64, g Grade) float64 {
	if math.IsNaN(d) || isInf(d) {
		panic(&ArgumentError{Op: "difficulty", Name: "difficulty", Value: d, Want: "finite"})
	}
	mustGrade(g)
	delta := -p.w[6] * float64(g-Good)
	damped := d + delta*(maxDifficulty-d)/9
	reverted := p.w[7]*p.InitialDifficulty(Easy) + (1-p.w[7])*damped
	return clampDifficulty(reverted)
}

// Stability returns the stability after a review graded g, given the
// difficulty and stability before the review and the retrievability at the
// moment of review.
func (p *Params) Stability(d, s, r float64, g Grade) float64 {
	mustStability("stability", s)
	if !(r > 0 && r <= 1) {
		panic(&ArgumentError{Op: "stability", Name: "retrievability", Value: r, Want: "in (0, 1]"})
	}
	mustGrade(g)
	if g == Forgot {
		return p.lapseStability(d, s, r)
	}
	return p.recallStability(d, s, r, g)
}

// recallStability grows stability after a successful review. A successful
// review never lowers stability.
//
//	S' = S·(1 + e^w8·(11-D)·S^-w9·(e^(w10·(1-R)) - 1)·hard·easy)
func (p *Params) recallStability(d, s, r float64, g Grade) float64 {
	hardPenalty := 1.0
	if g == Hard {
		hardPenalty = p.w[15]
	}
	easyBonus := 1.0
	if g == Easy {
		easyBonus = p.w[16]
	}
	growth := math.Exp(p.w[8]) *
		(11 - d) *
		math.Pow(s, -p.w[9]) *
		(math.Exp(p.w[10]*(1-r)) - 1) *
		hardPenalty *
		easyBonus
	return math.Max(s, s*(1+growth))
}

// lapseStability recomputes stability after a lapse. The result never exceeds
// the previous stability and never falls below w[0], the stability of a card
// forgotten on its first review.
//
//	S' = w11·D^-w12·((S+1)^w13 - 1)·e^(w14·(1-R))
func (p *Params) lapseStability(d, s, r float64) float64 {
	sf := p.w[11] *
		math.Pow(d, -p.w[12]) *
		(math.Pow(s+1, p.w[13]) - 1) *
		math.Exp(p.w[14]*(1-r))
	return math.Max(math.Min(sf, s), p.w[0])
}

// Next advances a card's memory state by one review. A nil prev means the
// card has never been reviewed and elapsed is ignored; otherwise elapsed is
// the number of days since the previous review.
func (p *Params) Next(prev *State, elapsed float64, g Grade) State {
	if prev == nil {
		return State{
			Stability:  p.InitialStability(g),
			Difficulty: p.InitialDifficulty(g),
		}
	}
	r := Retrievability(elapsed, prev.Stability)
	return State{
		Stability:  p.Stability(prev.Difficulty, prev.Stability, r, g),
		Difficulty: p.Difficulty(prev.Difficulty, g),
	}
}

func clampDifficulty(d float64) float64 {
	return math.Max(minDifficulty, math.Min(maxDifficulty, d))
}
