package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/conorfennell/memcurve/internal/domain"
	"github.com/conorfennell/memcurve/internal/fsrs"
)

const (
	namePrefix     = "N:"
	gradesPrefix   = "G:"
	expectedPrefix = "E:"
	separator      = "---"
	commentPrefix  = "#"
)

// ErrSyntax is wrapped by every parse error.
var ErrSyntax = errors.New("parser: syntax error")

// ParseFile reads a scenario file from the given path.
func ParseFile(path string) ([]domain.Scenario, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scenarios, err := Parse(file)
	for i := range scenarios {
		scenarios[i].Source = path
	}
	return scenarios, err
}

// Parse reads scenarios from r. Scenarios are separated by "---" lines; a
// scenario without grades is skipped.
func Parse(r io.Reader) ([]domain.Scenario, error) {
	scanner := bufio.NewScanner(r)
	var scenarios []domain.Scenario
	var current domain.Scenario
	lineNo := 0

	finish := func() {
		if len(current.Grades) > 0 {
			if current.Name == "" {
				current.Name = fmt.Sprintf("scenario-%d", len(scenarios)+1)
			}
			scenarios = append(scenarios, current)
		}
		current = domain.Scenario{}
	}

	syntaxErr := func(format string, args ...any) error {
		return fmt.Errorf("%w: line %d: %s", ErrSyntax, lineNo, fmt.Sprintf(format, args...))
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "" || strings.HasPrefix(line, commentPrefix):
			continue
		case line == separator:
			finish()
		case strings.HasPrefix(line, namePrefix):
			if current.Name != "" || len(current.Grades) > 0 {
				finish() // A new name always starts a new scenario
			}
			current.Name = strings.TrimSpace(line[len(namePrefix):])
		case strings.HasPrefix(line, gradesPrefix):
			grades, err := fsrs.ParseGrades(line[len(gradesPrefix):])
			if err != nil {
				return nil, syntaxErr("%v", err)
			}
			current.Grades = append(current.Grades, grades...)
		case strings.HasPrefix(line, expectedPrefix):
			exp, err := parseExpectation(line[len(expectedPrefix):])
			if err != nil {
				return nil, syntaxErr("%v", err)
			}
			current.Expected = append(current.Expected, exp)
		default:
			return nil, syntaxErr("unexpected line %q", line)
		}
	}

	finish() // Finish the very last scenario in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return scenarios, nil
}

func parseExpectation(s string) (domain.Expectation, error) {
	fields := strings.Fields(s)
	if len(fields) != 4 {
		return domain.Expectation{}, fmt.Errorf("expected 4 values (t s d i), got %d", len(fields))
	}
	var vals [4]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return domain.Expectation{}, fmt.Errorf("value %q: %w", f, err)
		}
		vals[i] = v
	}
	return domain.Expectation{T: vals[0], S: vals[1], D: vals[2], I: vals[3]}, nil
}
