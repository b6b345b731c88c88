package fsrs

import (
	"fmt"
	"strings"
)

// Grade is the user's response to a card review.
type Grade int

const (
	Forgot Grade = 1
	Hard   Grade = 2
	Good   Grade = 3
	Easy   Grade = 4
)

// Grades lists every grade in order of recall quality.
var Grades = [...]Grade{Forgot, Hard, Good, Easy}

// Valid reports whether g is one of the four defined grades.
func (g Grade) Valid() bool {
	return g >= Forgot && g <= Easy
}

func (g Grade) String() string {
	switch g {
	case Forgot:
		return "forgot"
	case Hard:
		return "hard"
	case Good:
		return "good"
	case Easy:
		return "easy"
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// index is the zero-based slot of g in grade-ordered parameter ranges.
func (g Grade) index() int {
	mustGrade(g)
	return int(g - Forgot)
}

// ParseGrade accepts a grade name or its ordinal. "again" is an alias for forgot.
func ParseGrade(s string) (Grade, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forgot", "again", "1":
		return Forgot, nil
	case "hard", "2":
		return Hard, nil
	case "good", "3":
		return Good, nil
	case "easy", "4":
		return Easy, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownGrade, s)
}

// ParseGrades parses a list of grades separated by commas or whitespace.
func ParseGrades(s string) ([]Grade, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	grades := make([]Grade, 0, len(fields))
	for _, f := range fields {
		g, err := ParseGrade(f)
		if err != nil {
			return nil, err
		}
		grades = append(grades, g)
	}
	return grades, nil
}
