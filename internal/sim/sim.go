// Package sim walks a card through a sequence of graded reviews using the
// reference call protocol: the first grade seeds the initial state, then each
// later review happens exactly one scheduled interval after the previous one.
package sim

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/conorfennell/memcurve/internal/fsrs"
)

var (
	ErrNoGrades      = errors.New("sim: at least one grade is required")
	ErrRetention     = errors.New("sim: desired retention must be in (0, 1)")
	ErrUnknownPolicy = errors.New("sim: unknown interval policy")
)

// DefaultRetention is the canonical target retrievability.
const DefaultRetention = 0.9

// Policy decides how a raw interval becomes a whole number of days.
type Policy string

const (
	// PolicyFloor rounds to the nearest day and never schedules less than one day.
	PolicyFloor Policy = "floor"
	// PolicyRound rounds to the nearest day, allowing zero-day intervals.
	PolicyRound Policy = "round"
)

// ParsePolicy parses a policy name. The empty string selects PolicyFloor.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyFloor:
		return PolicyFloor, nil
	case PolicyRound:
		return PolicyRound, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// Days applies the policy to a raw interval.
func (p Policy) Days(interval float64) float64 {
	days := math.Round(interval)
	if p == PolicyRound {
		return days
	}
	return math.Max(days, 1)
}

// Step is one review: the day it happened, the state it produced and the
// interval scheduled until the next review.
type Step struct {
	T float64 `yaml:"t"`
	S float64 `yaml:"stability"`
	D float64 `yaml:"difficulty"`
	I float64 `yaml:"interval"`
}

// Within reports whether every field of s is within tol of other.
func (s Step) Within(other Step, tol float64) bool {
	return math.Abs(s.T-other.T) <= tol &&
		math.Abs(s.S-other.S) <= tol &&
		math.Abs(s.D-other.D) <= tol &&
		math.Abs(s.I-other.I) <= tol
}

func (s Step) String() string {
	return fmt.Sprintf("(%g, %.2f, %.2f, %g)", s.T, s.S, s.D, s.I)
}

// Run simulates one card reviewed with the given grades in order.
func Run(p *fsrs.Params, grades []fsrs.Grade, retention float64, policy Policy) ([]Step, error) {
	if len(grades) == 0 {
		return nil, ErrNoGrades
	}
	if !(retention > 0 && retention < 1) {
		return nil, fmt.Errorf("%w: got %v", ErrRetention, retention)
	}
	if _, err := ParsePolicy(string(policy)); err != nil {
		return nil, err
	}
	for i, g := range grades {
		if !g.Valid() {
			return nil, fmt.Errorf("sim: grade %d: %w: %v", i, fsrs.ErrUnknownGrade, g)
		}
	}

	steps := make([]Step, 0, len(grades))
	var t float64
	state := p.Next(nil, 0, grades[0])
	interval := policy.Days(fsrs.Interval(retention, state.Stability))
	steps = append(steps, Step{T: t, S: state.Stability, D: state.Difficulty, I: interval})

	for _, g := range grades[1:] {
		t += interval
		state = p.Next(&state, interval, g)
		interval = policy.Days(fsrs.Interval(retention, state.Stability))
		steps = append(steps, Step{T: t, S: state.Stability, D: state.Difficulty, I: interval})
	}
	return steps, nil
}
