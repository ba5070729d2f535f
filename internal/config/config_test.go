package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielpatrickdp/correction-synth/internal/logging"
)

// clearEnv blanks every key so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvMaxIterations, EnvTimeout, EnvValidatorAddr, EnvValidatorTimeout,
		EnvLedgerDB, EnvTaxonomy, EnvWorkers, EnvLogLevel} {
		t.Setenv(k, "")
	}
}

func writeEnv(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	return path
}

// #region defaults
func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if opts := cfg.SynthesisOptions(); !opts.MultiLevel || opts.MaxIterations != 5 {
		t.Errorf("unexpected options: %+v", opts)
	}
}

// #endregion defaults

// #region precedence
func TestLoadFileAndEnvPrecedence(t *testing.T) {
	clearEnv(t)
	path := writeEnv(t, "SYNTH_MAX_ITERATIONS=7\nSYNTH_WORKERS=8\nSYNTH_LEDGER_DB=file.db\nLOG_LEVEL=debug\n")
	t.Setenv(EnvWorkers, "3")
	t.Setenv(EnvValidatorAddr, "localhost:50061")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxIterations != 7 {
		t.Errorf("file value ignored: MaxIterations=%d", cfg.MaxIterations)
	}
	if cfg.Workers != 3 {
		t.Errorf("environment should win: Workers=%d", cfg.Workers)
	}
	if cfg.LedgerDB != "file.db" || cfg.ValidatorAddr != "localhost:50061" {
		t.Errorf("string values mismatch: %+v", cfg)
	}
	if cfg.LogLevel != logging.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.LogLevel)
	}
}

func TestLoadLaterFileWins(t *testing.T) {
	clearEnv(t)
	a := writeEnv(t, "SYNTH_TIMEOUT=10s\n")
	b := writeEnv(t, "SYNTH_TIMEOUT=45s\n")
	cfg, err := Load(a, b)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timeout != 45*time.Second {
		t.Errorf("expected 45s, got %v", cfg.Timeout)
	}
}

// #endregion precedence

// #region invalid
func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"iterations", EnvMaxIterations, "many"},
		{"workers-zero", EnvWorkers, "0"},
		{"timeout", EnvTimeout, "soon"},
		{"validator-timeout", EnvValidatorTimeout, "10"},
		{"log-level", EnvLogLevel, "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.val)
			}
		})
	}
}

// #endregion invalid
