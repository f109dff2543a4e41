// Package config loads runtime settings from the environment and report
// definitions from YAML files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/spektr-org/reportcube/insight"
	"github.com/spektr-org/reportcube/recordset"
)

// Environment variables read by LoadRuntime.
const (
	EnvLogLevel         = "REPORTCUBE_LOG_LEVEL"
	EnvSampleSize       = "REPORTCUBE_SAMPLE_SIZE"
	EnvAnomalyThreshold = "REPORTCUBE_ANOMALY_THRESHOLD"
	EnvConcurrency      = "REPORTCUBE_CONCURRENCY"
)

// Runtime holds process-wide settings. Engine calls still take their
// configuration as explicit parameters; these are only defaults for them.
type Runtime struct {
	LogLevel         zerolog.Level
	SampleSize       int
	AnomalyThreshold float64
	Concurrency      int
}

// DefaultRuntime returns the settings used when nothing is configured.
func DefaultRuntime() Runtime {
	return Runtime{
		LogLevel:         zerolog.InfoLevel,
		SampleSize:       recordset.DefaultSampleSize,
		AnomalyThreshold: insight.DefaultAnomalyThreshold,
	}
}

// LoadRuntime loads .env files (default ".env"; missing files are fine) and
// reads the REPORTCUBE_* variables over the defaults.
func LoadRuntime(envFiles ...string) (Runtime, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Runtime{}, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := DefaultRuntime()

	if v := env(EnvLogLevel); v != "" {
		level, err := zerolog.ParseLevel(strings.ToLower(v))
		if err != nil {
			return Runtime{}, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = level
	}

	if v := env(EnvSampleSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Runtime{}, fmt.Errorf("%s: invalid sample size %q", EnvSampleSize, v)
		}
		cfg.SampleSize = n
	}

	if v := env(EnvAnomalyThreshold); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return Runtime{}, fmt.Errorf("%s: invalid threshold %q", EnvAnomalyThreshold, v)
		}
		cfg.AnomalyThreshold = f
	}

	if v := env(EnvConcurrency); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Runtime{}, fmt.Errorf("%s: invalid concurrency %q", EnvConcurrency, v)
		}
		cfg.Concurrency = n
	}

	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
