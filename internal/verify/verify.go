// Package verify replays acceptance scenarios against a parameter table and
// records every run in the run store.
package verify

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/conorfennell/memcurve/internal/domain"
	"github.com/conorfennell/memcurve/internal/fsrs"
	"github.com/conorfennell/memcurve/internal/knol"
	"github.com/conorfennell/memcurve/internal/parser"
	"github.com/conorfennell/memcurve/internal/sim"
	"github.com/conorfennell/memcurve/internal/storage"
)

// ScenarioExt is the extension of scenario files.
const ScenarioExt = ".scn"

// DefaultTolerance is the absolute tolerance applied to every expected value.
const DefaultTolerance = 0.01

// Options control a verification run.
type Options struct {
	Dir       string
	Retention float64
	Policy    sim.Policy
	Tolerance float64
}

// Result is the outcome of one scenario.
type Result struct {
	Scenario domain.Scenario
	Steps    []sim.Step
	Passed   bool
	Mismatch string // first step that did not match, empty when Passed
	RunID    string
}

// Report summarises a verification run.
type Report struct {
	Fingerprint string
	Results     []Result
	Errors      []error
}

// Passed reports whether every scenario matched and nothing failed to load.
func (r *Report) Passed() bool {
	if len(r.Errors) > 0 {
		return false
	}
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// Failed counts scenarios that did not match their expectations.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Passed {
			n++
		}
	}
	return n
}

// Run walks opts.Dir for scenario files, simulates every scenario and stores
// the outcome. Per-file and per-scenario problems are collected in the report;
// only store and walk failures are returned as errors.
func Run(ctx context.Context, db *storage.DB, p *fsrs.Params, opts Options) (*Report, error) {
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	report := &Report{Fingerprint: knol.Hash(p)}

	if err := db.UpsertParamTable(report.Fingerprint, knol.Normalize(p)); err != nil {
		return nil, err
	}

	slog.Info("Starting verification", "dir", opts.Dir, "params", report.Fingerprint[:12], "policy", opts.Policy)

	walkErr := filepath.WalkDir(opts.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ScenarioExt) {
			return nil
		}

		scenarios, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			report.Errors = append(report.Errors, fmt.Errorf("parsing %s: %w", path, parseErr))
			return nil
		}
		for _, sc := range scenarios {
			res, err := Scenario(p, sc, opts)
			if err != nil {
				report.Errors = append(report.Errors, fmt.Errorf("simulating %s in %s: %w", sc.Name, path, err))
				continue
			}

			run := &storage.Run{
				Scenario:     sc.Name,
				ScenarioHash: knol.ScenarioHash(sc),
				Fingerprint:  report.Fingerprint,
				Policy:       string(opts.Policy),
				Retention:    opts.Retention,
				Passed:       res.Passed,
				Steps:        res.Steps,
			}
			if err := db.InsertRun(run); err != nil {
				return err
			}
			res.RunID = run.ID

			if res.Passed {
				slog.Debug("Scenario passed", "scenario", sc.Name, "file", path)
			} else {
				slog.Warn("Scenario failed", "scenario", sc.Name, "file", path, "mismatch", res.Mismatch)
			}
			report.Results = append(report.Results, res)
		}
		return nil
	})

	if walkErr != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", opts.Dir, walkErr)
	}

	slog.Info("Verification complete",
		"dir", opts.Dir,
		"scenarios", len(report.Results),
		"failed", report.Failed(),
		"errors", len(report.Errors),
	)
	return report, nil
}

// Scenario simulates one scenario and compares it with its expectations. A
// scenario without expectations passes once it simulates.
func Scenario(p *fsrs.Params, sc domain.Scenario, opts Options) (Result, error) {
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	steps, err := sim.Run(p, sc.Grades, opts.Retention, opts.Policy)
	if err != nil {
		return Result{}, err
	}

	res := Result{Scenario: sc, Steps: steps, Passed: true}
	if len(sc.Expected) > len(steps) {
		res.Passed = false
		res.Mismatch = fmt.Sprintf("expected %d steps, simulated %d", len(sc.Expected), len(steps))
		return res, nil
	}
	for i, exp := range sc.Expected {
		want := sim.Step{T: exp.T, S: exp.S, D: exp.D, I: exp.I}
		if !steps[i].Within(want, opts.Tolerance) {
			res.Passed = false
			res.Mismatch = fmt.Sprintf("step %d: got %v, want %v", i, steps[i], want)
			break
		}
	}
	return res, nil
}
