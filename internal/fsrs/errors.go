package fsrs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is the root of every precondition violation raised by
	// the formula functions.
	ErrInvalidArgument = errors.New("fsrs: invalid argument")

	// ErrShortTable indicates a parameter table with fewer than MinWeights entries.
	ErrShortTable = errors.New("fsrs: parameter table too short")

	// ErrInvalidWeight indicates a NaN, infinite or out-of-domain weight.
	ErrInvalidWeight = errors.New("fsrs: invalid weight")

	// ErrUnknownGrade is returned by ParseGrade.
	ErrUnknownGrade = errors.New("fsrs: unknown grade")
)

// ArgumentError describes a caller programming error. The formula functions
// panic with it instead of returning an error, so misuse surfaces in tests
// rather than as a silently wrong schedule.
type ArgumentError struct {
	Op    string
	Name  string
	Value float64
	Want  string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("fsrs: %s: %s = %v, want %s", e.Op, e.Name, e.Value, e.Want)
}

func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

func mustGrade(g Grade) {
	if !g.Valid() {
		panic(&ArgumentError{Op: "grade", Name: "g", Value: float64(g), Want: "one of 1..4"})
	}
}

func mustStability(op string, s float64) {
	if !(s > 0) || isInf(s) {
		panic(&ArgumentError{Op: op, Name: "stability", Value: s, Want: "> 0"})
	}
}
