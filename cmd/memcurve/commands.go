package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conorfennell/memcurve/internal/config"
	"github.com/conorfennell/memcurve/internal/fsrs"
	"github.com/conorfennell/memcurve/internal/gitsource"
	"github.com/conorfennell/memcurve/internal/knol"
	"github.com/conorfennell/memcurve/internal/sim"
	"github.com/conorfennell/memcurve/internal/storage"
	"github.com/conorfennell/memcurve/internal/verify"
)

var errVerifyFailed = errors.New("verification failed")

// loadConfig reads settings for cmd and installs the configured logger.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return config.Config{}, err
	}
	slog.SetDefault(cfg.Logger())
	return cfg, nil
}

// loadParams resolves the parameter table: a published table from a git
// repository when one is configured, otherwise the configured or bundled one.
func loadParams(cmd *cobra.Command, cfg config.Config) (*fsrs.Params, error) {
	if cfg.ParamsRepo == "" {
		return cfg.Params()
	}
	localPath, err := gitsource.LocalPath(cfg.ReposDir, cfg.ParamsRepo)
	if err != nil {
		return nil, err
	}
	weights, err := gitsource.Fetch(cmd.Context(), cfg.ParamsRepo, localPath, cfg.ParamsFile, progressWriter(cmd, cfg))
	if err != nil {
		return nil, err
	}
	return fsrs.New(weights)
}

// progressWriter shows git clone and pull progress on stderr at debug level.
func progressWriter(cmd *cobra.Command, cfg config.Config) io.Writer {
	if cfg.Log.Level == "debug" {
		return cmd.ErrOrStderr()
	}
	return nil
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("retention", sim.DefaultRetention, "Desired retention in (0, 1)")
	cmd.Flags().String("policy", string(sim.PolicyFloor), "Interval rounding policy (floor, round)")
	cmd.Flags().String("params-repo", "", "Git repository holding a published parameter table")
	cmd.Flags().String("params-file", "params.yaml", "Parameter file inside --params-repo")
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Walk a new card through a sequence of graded reviews",
		Example: `  memcurve simulate --grades easy,easy,easy
  memcurve simulate --grades "good hard forgot good" --output yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			p, err := loadParams(cmd, cfg)
			if err != nil {
				return err
			}
			policy, err := cfg.SimPolicy()
			if err != nil {
				return err
			}
			raw, _ := cmd.Flags().GetString("grades")
			grades, err := fsrs.ParseGrades(raw)
			if err != nil {
				return err
			}
			steps, err := sim.Run(p, grades, cfg.Retention, policy)
			if err != nil {
				return err
			}
			output, _ := cmd.Flags().GetString("output")
			return writeSteps(cmd.OutOrStdout(), grades, steps, output)
		},
	}
	addModelFlags(cmd)
	cmd.Flags().String("grades", "", "Grades in review order (forgot, hard, good, easy)")
	cmd.Flags().StringP("output", "o", "table", "Output format (table, yaml)")
	cmd.MarkFlagRequired("grades")
	return cmd
}

type stepOutput struct {
	Grade    string `yaml:"grade"`
	sim.Step `yaml:",inline"`
}

func writeSteps(w io.Writer, grades []fsrs.Grade, steps []sim.Step, format string) error {
	switch strings.ToLower(format) {
	case "yaml":
		out := make([]stepOutput, len(steps))
		for i, st := range steps {
			out[i] = stepOutput{Grade: grades[i].String(), Step: st}
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to encode steps: %w", err)
		}
		return enc.Close()
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "grade\tday\tstability\tdifficulty\tinterval\t")
		for i, st := range steps {
			fmt.Fprintf(tw, "%s\t%g\t%.2f\t%.2f\t%g\t\n", grades[i], st.T, st.S, st.D, st.I)
		}
		return tw.Flush()
	}
	return fmt.Errorf("unknown output format %q", format)
}

func newIntervalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interval",
		Short: "Days until retrievability falls to the desired retention",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			policy, err := cfg.SimPolicy()
			if err != nil {
				return err
			}
			s, _ := cmd.Flags().GetFloat64("stability")
			if !(s > 0) {
				return fmt.Errorf("stability must be positive, got %v", s)
			}
			raw := fsrs.Interval(cfg.Retention, s)
			fmt.Fprintf(cmd.OutOrStdout(), "interval: %.4f days (scheduled: %g)\n", raw, policy.Days(raw))
			return nil
		},
	}
	addModelFlags(cmd)
	cmd.Flags().Float64("stability", 0, "Current stability in days")
	cmd.MarkFlagRequired("stability")
	return cmd
}

func newRetrievabilityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retrievability",
		Short: "Probability of recall after a number of days",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}
			t, _ := cmd.Flags().GetFloat64("elapsed")
			s, _ := cmd.Flags().GetFloat64("stability")
			if !(t >= 0) {
				return fmt.Errorf("elapsed days must not be negative, got %v", t)
			}
			if !(s > 0) {
				return fmt.Errorf("stability must be positive, got %v", s)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "retrievability: %.4f\n", fsrs.Retrievability(t, s))
			return nil
		},
	}
	cmd.Flags().Float64("elapsed", 0, "Days since the last review")
	cmd.Flags().Float64("stability", 0, "Current stability in days")
	cmd.MarkFlagRequired("stability")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Replay scenario files and record the runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			p, err := loadParams(cmd, cfg)
			if err != nil {
				return err
			}
			policy, err := cfg.SimPolicy()
			if err != nil {
				return err
			}

			db, err := storage.Open(cfg.DB)
			if err != nil {
				return err
			}
			defer db.Close()

			tolerance, _ := cmd.Flags().GetFloat64("tolerance")
			report, err := verify.Run(cmd.Context(), db, p, verify.Options{
				Dir:       cfg.Scenarios,
				Retention: cfg.Retention,
				Policy:    policy,
				Tolerance: tolerance,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Verified %d scenarios, %d failed, %d errors.\n",
				len(report.Results), report.Failed(), len(report.Errors))
			for _, res := range report.Results {
				if !res.Passed {
					fmt.Fprintf(out, "- %s: %s\n", res.Scenario.Name, res.Mismatch)
				}
			}
			for _, e := range report.Errors {
				fmt.Fprintf(out, "- %s\n", e)
			}
			if !report.Passed() {
				return errVerifyFailed
			}
			return nil
		},
	}
	addModelFlags(cmd)
	cmd.Flags().String("scenarios", "scenarios", "Directory of .scn scenario files")
	cmd.Flags().String("db", "memcurve.db", "Path to the SQLite run store")
	cmd.Flags().Float64("tolerance", verify.DefaultTolerance, "Absolute tolerance for expected values")
	return cmd
}

func newParamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Print the active parameter table and its fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			p, err := loadParams(cmd, cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "fingerprint: %s\n", knol.Hash(p))
			for i, w := range p.Weights() {
				fmt.Fprintf(out, "w[%d] = %g\n", i, w)
			}
			return nil
		},
	}
	cmd.Flags().String("params-repo", "", "Git repository holding a published parameter table")
	cmd.Flags().String("params-file", "params.yaml", "Parameter file inside --params-repo")
	cmd.Flags().String("repos-dir", "repos", "Directory for cloned parameter repositories")
	return cmd
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List, show or prune recorded runs of the active parameter table",
		Example: `  memcurve runs
  memcurve runs --id <run-id>
  memcurve runs --prune`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db, err := storage.Open(cfg.DB)
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			if id, _ := cmd.Flags().GetString("id"); id != "" {
				run, err := db.FindRun(id)
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %s not found", id)
				}
				fmt.Fprintf(out, "%s %s policy=%s retention=%g passed=%t\n",
					run.ID, run.Scenario, run.Policy, run.Retention, run.Passed)
				for _, st := range run.Steps {
					fmt.Fprintf(out, "  %v\n", st)
				}
				return nil
			}

			p, err := loadParams(cmd, cfg)
			if err != nil {
				return err
			}
			fingerprint := knol.Hash(p)

			if prune, _ := cmd.Flags().GetBool("prune"); prune {
				if err := db.DeleteRunsByFingerprint(fingerprint); err != nil {
					return err
				}
				slog.Info("Pruned runs", "params", fingerprint[:12])
				fmt.Fprintf(out, "Pruned runs for %s.\n", fingerprint[:12])
				return nil
			}

			runs, err := db.GetRunsByFingerprint(fingerprint)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Found %d runs for %s.\n", len(runs), fingerprint[:12])
			for _, run := range runs {
				status := "pass"
				if !run.Passed {
					status = "FAIL"
				}
				fmt.Fprintf(out, "- %s %s %s %s\n", run.ID, status, run.Policy, run.Scenario)
			}
			return nil
		},
	}
	cmd.Flags().String("db", "memcurve.db", "Path to the SQLite run store")
	cmd.Flags().String("id", "", "Show one run with its steps")
	cmd.Flags().Bool("prune", false, "Delete every run of the active parameter table")
	cmd.Flags().String("params-repo", "", "Git repository holding a published parameter table")
	cmd.Flags().String("params-file", "params.yaml", "Parameter file inside --params-repo")
	return cmd
}
