// Package config resolves runtime settings from the environment, falling
// back to .env files and then to built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/danielpatrickdp/correction-synth/internal/batch"
	"github.com/danielpatrickdp/correction-synth/internal/logging"
	"github.com/danielpatrickdp/correction-synth/internal/synthesis"
)

// Environment keys.
const (
	EnvMaxIterations    = "SYNTH_MAX_ITERATIONS"
	EnvTimeout          = "SYNTH_TIMEOUT"
	EnvValidatorAddr    = "SYNTH_VALIDATOR_ADDR"
	EnvValidatorTimeout = "SYNTH_VALIDATOR_TIMEOUT"
	EnvLedgerDB         = "SYNTH_LEDGER_DB"
	EnvTaxonomy         = "SYNTH_TAXONOMY"
	EnvWorkers          = "SYNTH_WORKERS"
	EnvLogLevel         = "LOG_LEVEL"
)

// #region config
// Config is the resolved process configuration. Empty ValidatorAddr,
// LedgerDB or TaxonomyPath disable the corresponding component.
type Config struct {
	MaxIterations    int
	Timeout          time.Duration
	ValidatorAddr    string
	ValidatorTimeout time.Duration
	LedgerDB         string
	TaxonomyPath     string
	Workers          int
	LogLevel         logging.Level
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		MaxIterations:    synthesis.DefaultMaxIterations,
		Timeout:          2 * time.Minute,
		ValidatorTimeout: 30 * time.Second,
		Workers:          batch.DefaultWorkers,
		LogLevel:         logging.LevelInfo,
	}
}

// #endregion config

// #region load
// Load reads the given .env files (missing ones are skipped; later files win)
// and resolves every key. Process environment variables take precedence over
// file values.
func Load(files ...string) (Config, error) {
	fileVals := map[string]string{}
	for _, f := range files {
		vals, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Config{}, fmt.Errorf("read %s: %w", f, err)
		}
		for k, v := range vals {
			fileVals[k] = v
		}
	}
	return resolve(func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fileVals[key]
	})
}

func resolve(get func(string) string) (Config, error) {
	cfg := Default()
	var err error

	if cfg.MaxIterations, err = intOr(get, EnvMaxIterations, cfg.MaxIterations); err != nil {
		return Config{}, err
	}
	if cfg.Workers, err = intOr(get, EnvWorkers, cfg.Workers); err != nil {
		return Config{}, err
	}
	if cfg.Timeout, err = durationOr(get, EnvTimeout, cfg.Timeout); err != nil {
		return Config{}, err
	}
	if cfg.ValidatorTimeout, err = durationOr(get, EnvValidatorTimeout, cfg.ValidatorTimeout); err != nil {
		return Config{}, err
	}
	if v := get(EnvLogLevel); v != "" {
		lvl, ok := logging.ParseLevel(v)
		if !ok {
			return Config{}, fmt.Errorf("%s: unknown level %q", EnvLogLevel, v)
		}
		cfg.LogLevel = lvl
	}
	cfg.ValidatorAddr = envOr(get, EnvValidatorAddr, "")
	cfg.LedgerDB = envOr(get, EnvLedgerDB, "")
	cfg.TaxonomyPath = envOr(get, EnvTaxonomy, "")

	if cfg.Workers < 1 {
		return Config{}, fmt.Errorf("%s: must be at least 1, got %d", EnvWorkers, cfg.Workers)
	}
	return cfg, nil
}

// #endregion load

// #region options
// SynthesisOptions returns the default request options with this budget.
func (c Config) SynthesisOptions() synthesis.Options {
	opts := synthesis.DefaultOptions()
	opts.MaxIterations = c.MaxIterations
	return opts
}

// Logger builds a stderr logger at the configured level.
func (c Config) Logger() *logging.Logger {
	return logging.NewLogger(c.LogLevel, os.Stderr)
}

// #endregion options

// #region helpers
func envOr(get func(string) string, key, fallback string) string {
	if v := get(key); v != "" {
		return v
	}
	return fallback
}

func intOr(get func(string) string, key string, fallback int) (int, error) {
	v := get(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func durationOr(get func(string) string, key string, fallback time.Duration) (time.Duration, error) {
	v := get(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// #endregion helpers
