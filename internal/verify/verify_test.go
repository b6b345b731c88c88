package verify

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/memcurve/internal/domain"
	"github.com/conorfennell/memcurve/internal/fsrs"
	"github.com/conorfennell/memcurve/internal/knol"
	"github.com/conorfennell/memcurve/internal/parser"
	"github.com/conorfennell/memcurve/internal/sim"
	"github.com/conorfennell/memcurve/internal/storage"
)

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func defaultOptions(dir string) Options {
	return Options{Dir: dir, Retention: sim.DefaultRetention, Policy: sim.PolicyFloor}
}

func TestRun(t *testing.T) {
	db := openTestDB(t)
	p := fsrs.Default()

	report, err := Run(context.Background(), db, p, defaultOptions("testdata"))
	require.NoError(t, err)

	require.Len(t, report.Results, 4)
	for _, res := range report.Results {
		assert.True(t, res.Passed, "%s: %s", res.Scenario.Name, res.Mismatch)
		assert.NotEmpty(t, res.RunID)
	}
	require.Len(t, report.Errors, 1, "broken.scn should be reported")
	assert.ErrorIs(t, report.Errors[0], parser.ErrSyntax)
	assert.False(t, report.Passed())
	assert.Equal(t, 0, report.Failed())

	runs, err := db.GetRunsByFingerprint(knol.Hash(p))
	require.NoError(t, err)
	assert.Len(t, runs, 4)

	stored, err := db.FindParamTable(knol.Hash(p))
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, knol.Normalize(p), stored.Weights)
}

func TestRunRecordsFailures(t *testing.T) {
	dir := t.TempDir()
	content := "N: wrong\nG: good good\nE: 0 3.17 5.28 3\nE: 3 99 5.27 11\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.scn"), []byte(content), 0o644))

	db := openTestDB(t)
	p := fsrs.Default()
	report, err := Run(context.Background(), db, p, defaultOptions(dir))
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.False(t, report.Passed())
	assert.Equal(t, 1, report.Failed())
	assert.Contains(t, report.Results[0].Mismatch, "step 1")

	latest, err := db.LatestRun(knol.ScenarioHash(report.Results[0].Scenario), knol.Hash(p))
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.False(t, latest.Passed)
	assert.Len(t, latest.Steps, 2)
}

func TestRunMissingDir(t *testing.T) {
	db := openTestDB(t)
	_, err := Run(context.Background(), db, fsrs.Default(), defaultOptions(filepath.Join(t.TempDir(), "nope")))
	assert.Error(t, err)
}

func TestRunCancelled(t *testing.T) {
	db := openTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, db, fsrs.Default(), defaultOptions("testdata"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScenario(t *testing.T) {
	p := fsrs.Default()

	t.Run("without expectations", func(t *testing.T) {
		sc := domain.Scenario{Name: "free", Grades: []fsrs.Grade{fsrs.Good, fsrs.Forgot, fsrs.Easy}}
		res, err := Scenario(p, sc, defaultOptions(""))
		require.NoError(t, err)
		assert.True(t, res.Passed)
		assert.Len(t, res.Steps, 3)
	})

	t.Run("more expectations than grades", func(t *testing.T) {
		sc := domain.Scenario{
			Name:     "short",
			Grades:   []fsrs.Grade{fsrs.Good},
			Expected: []domain.Expectation{{S: 3.17, D: 5.28, I: 3}, {T: 3}},
		}
		res, err := Scenario(p, sc, defaultOptions(""))
		require.NoError(t, err)
		assert.False(t, res.Passed)
	})

	t.Run("round policy changes the forgot streak", func(t *testing.T) {
		sc := domain.Scenario{
			Name:     "forgot",
			Grades:   []fsrs.Grade{fsrs.Forgot, fsrs.Forgot},
			Expected: []domain.Expectation{{S: 0.40, D: 7.19, I: 1}},
		}
		opts := defaultOptions("")
		opts.Policy = sim.PolicyRound
		res, err := Scenario(p, sc, opts)
		require.NoError(t, err)
		assert.False(t, res.Passed)
	})

	t.Run("invalid retention", func(t *testing.T) {
		opts := defaultOptions("")
		opts.Retention = 0
		_, err := Scenario(p, domain.Scenario{Grades: []fsrs.Grade{fsrs.Good}}, opts)
		assert.ErrorIs(t, err, sim.ErrRetention)
	})
}
