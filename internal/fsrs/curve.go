package fsrs

import "math"

// The forgetting curve R(t, S) = (1 + F·t/S)^C. F is derived from C so that
// R(S, S) = 0.9, which makes stability the number of days until recall
// probability decays to 90%.
const (
	Decay  = -0.5
	Factor = 19.0 / 81.0
)

// Retrievability returns the probability of recall after elapsed days for a
// card with the given stability. It panics if elapsed < 0 or stability <= 0.
func Retrievability(elapsed, stability float64) float64 {
	if !(elapsed >= 0) {
		panic(&ArgumentError{Op: "retrievability", Name: "elapsed", Value: elapsed, Want: ">= 0"})
	}
	mustStability("retrievability", stability)
	return math.Pow(1+Factor*elapsed/stability, Decay)
}

// Interval returns the elapsed days after which retrievability falls to the
// target. Interval(0.9, s) == s. The result is not rounded; whole-day
// policies belong to the caller. It panics unless 0 < target < 1 and
// stability > 0.
func Interval(target, stability float64) float64 {
	if !(target > 0 && target < 1) {
		panic(&ArgumentError{Op: "interval", Name: "target", Value: target, Want: "in (0, 1)"})
	}
	mustStability("interval", stability)
	return stability / Factor * (math.Pow(target, 1/Decay) - 1)
}

func isInf(f float64) bool {
	return math.IsInf(f, 0)
}
