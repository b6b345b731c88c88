package domain

import "github.com/conorfennell/memcurve/internal/fsrs"

// Scenario is a named sequence of grades applied to a new card, together with
// the steps a simulation is expected to produce.
type Scenario struct {
	Name     string
	Grades   []fsrs.Grade
	Expected []Expectation
	Source   string // file the scenario was read from, if any
}

// Expectation is one expected simulation step:
// review day, stability, difficulty and scheduled interval.
type Expectation struct {
	T float64
	S float64
	D float64
	I float64
}
