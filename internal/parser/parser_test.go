package parser

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/conorfennell/memcurve/internal/domain"
	"github.com/conorfennell/memcurve/internal/fsrs"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name              string
		input             string
		expectedScenarios int
		expectedName      string
		expectedGrades    []fsrs.Grade
		expectedSteps     int
	}{
		{
			name:              "Grades only",
			input:             "G: good good",
			expectedScenarios: 1,
			expectedName:      "scenario-1",
			expectedGrades:    []fsrs.Grade{fsrs.Good, fsrs.Good},
		},
		{
			name: "Named with expectations",
			input: `
# all easy
N: easy streak
G: easy, easy, easy
E: 0 15.69 3.22 16
E: 16 150.28 2.13 150
E: 166 1252.22 1.0 1252
`,
			expectedScenarios: 1,
			expectedName:      "easy streak",
			expectedGrades:    []fsrs.Grade{fsrs.Easy, fsrs.Easy, fsrs.Easy},
			expectedSteps:     3,
		},
		{
			name: "Grades over several lines",
			input: `
N: mixed
G: good hard
G: again
`,
			expectedScenarios: 1,
			expectedName:      "mixed",
			expectedGrades:    []fsrs.Grade{fsrs.Good, fsrs.Hard, fsrs.Forgot},
		},
		{
			name: "Two scenarios with separator",
			input: `
N: first
G: hard hard
---
N: second
G: forgot
`,
			expectedScenarios: 2,
			expectedName:      "first",
			expectedGrades:    []fsrs.Grade{fsrs.Hard, fsrs.Hard},
		},
		{
			name: "New name starts a new scenario",
			input: `
N: first
G: easy
N: second
G: good
`,
			expectedScenarios: 2,
			expectedName:      "first",
			expectedGrades:    []fsrs.Grade{fsrs.Easy},
		},
		{
			name:              "Scenario without grades is skipped",
			input:             "N: empty\n---\nG: easy",
			expectedScenarios: 1,
			expectedName:      "scenario-1",
			expectedGrades:    []fsrs.Grade{fsrs.Easy},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			scenarios, err := Parse(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("Parse() returned an unexpected error: %v", err)
			}
			if len(scenarios) != tc.expectedScenarios {
				t.Fatalf("Expected %d scenarios, but got %d", tc.expectedScenarios, len(scenarios))
			}
			first := scenarios[0]
			if first.Name != tc.expectedName {
				t.Errorf("Expected name '%s', but got '%s'", tc.expectedName, first.Name)
			}
			if !slices.Equal(first.Grades, tc.expectedGrades) {
				t.Errorf("Expected grades %v, but got %v", tc.expectedGrades, first.Grades)
			}
			if len(first.Expected) != tc.expectedSteps {
				t.Errorf("Expected %d steps, but got %d", tc.expectedSteps, len(first.Expected))
			}
		})
	}
}

func TestParseExpectationValues(t *testing.T) {
	scenarios, err := Parse(strings.NewReader("G: hard hard\nE: 1 1.70 7.04 2"))
	if err != nil {
		t.Fatalf("Parse() returned an unexpected error: %v", err)
	}
	want := domain.Expectation{T: 1, S: 1.70, D: 7.04, I: 2}
	if got := scenarios[0].Expected[0]; got != want {
		t.Errorf("Expected %+v, but got %+v", want, got)
	}
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"Unknown grade", "G: good perfect"},
		{"Short expectation", "G: good\nE: 0 3.17 5.28"},
		{"Bad number", "G: good\nE: 0 abc 5.28 3"},
		{"Stray line", "G: good\nhello"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.input))
			if !errors.Is(err, ErrSyntax) {
				t.Errorf("Expected a syntax error, but got %v", err)
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "good.scn")
	if err := os.WriteFile(path, []byte("N: good\nG: good good good\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	scenarios, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() returned an unexpected error: %v", err)
	}
	if len(scenarios) != 1 || scenarios[0].Source != path {
		t.Errorf("Expected one scenario sourced from %s, but got %+v", path, scenarios)
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.scn")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
