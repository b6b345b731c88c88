// Package config loads memcurve settings from, in increasing precedence,
// built-in defaults, a YAML file, MEMCURVE_* environment variables and
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/conorfennell/memcurve/internal/fsrs"
	"github.com/conorfennell/memcurve/internal/sim"
)

// EnvPrefix is the prefix of environment variables read by Load. A double
// underscore separates nested keys: MEMCURVE_LOG__LEVEL sets log.level.
const EnvPrefix = "MEMCURVE_"

// Config is the full set of settings.
type Config struct {
	Weights    []float64 `koanf:"weights" validate:"omitempty,min=19"`
	Retention  float64   `koanf:"retention" validate:"gt=0,lt=1"`
	Policy     string    `koanf:"policy" validate:"oneof=floor round"`
	DB         string    `koanf:"db" validate:"required"`
	Scenarios  string    `koanf:"scenarios"`
	ParamsRepo string    `koanf:"params_repo" validate:"omitempty,url|startswith=git@"`
	ParamsFile string    `koanf:"params_file" validate:"required_with=ParamsRepo"`
	ReposDir   string    `koanf:"repos_dir" validate:"required"`
	Log        Log       `koanf:"log"`
}

// Log configures the slog handler installed by the CLI.
type Log struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// Default returns the built-in settings. Weights are left empty, meaning the
// bundled calibrated table.
func Default() Config {
	return Config{
		Retention:  sim.DefaultRetention,
		Policy:     string(sim.PolicyFloor),
		DB:         "memcurve.db",
		Scenarios:  "scenarios",
		ParamsFile: "params.yaml",
		ReposDir:   "repos",
		Log:        Log{Level: "info", Format: "text"},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load builds a Config. path may be empty; a missing file at an explicitly
// given path is an error. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	defaults := Default()
	if err := k.Load(newDefaultsProvider(defaults), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			return flagKey(f.Name), posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// flagKey maps --params-repo to params_repo and --log-level to log.level.
func flagKey(name string) string {
	if rest, ok := strings.CutPrefix(name, "log-"); ok {
		return "log." + rest
	}
	return strings.ReplaceAll(name, "-", "_")
}

// envKey maps MEMCURVE_PARAMS_REPO to params_repo and MEMCURVE_LOG__LEVEL to
// log.level. MEMCURVE_WEIGHTS is a comma separated list.
func envKey(key, value string) (string, interface{}) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	if key == "weights" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return key, parts
	}
	return key, value
}

// Validate checks every field against its constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value())
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Params builds the parameter table: the configured weights if any,
// otherwise the bundled default.
func (c Config) Params() (*fsrs.Params, error) {
	if len(c.Weights) == 0 {
		return fsrs.Default(), nil
	}
	return fsrs.New(c.Weights)
}

// SimPolicy returns the configured interval policy.
func (c Config) SimPolicy() (sim.Policy, error) {
	return sim.ParsePolicy(c.Policy)
}

// Logger builds the slog.Logger described by c.Log, writing to stderr.
func (c Config) Logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
