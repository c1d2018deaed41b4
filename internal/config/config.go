package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"gosize/adapters/correction"
	"gosize/internal/errors"
)

// Defaults used when neither the environment nor the caller overrides a value
const (
	DefaultPower            = 0.8
	DefaultAlpha            = 0.05
	DefaultEpsilon          = 0.01
	DefaultReplications     = 400
	DefaultMaxDepth         = 50
	DefaultSeed             = 42
	DefaultChunkSize        = 64
	DefaultCorrectionMethod = correction.MethodBenjaminiHochberg
	DefaultAlphaPolicy      = correction.PolicyBonferroni
)

// Config holds every tunable of one sample size computation. It is passed by
// value and never mutated after construction.
type Config struct {
	Search     SearchConfig
	Simulation SimulationConfig
}

// SearchConfig holds the target and tolerances of the bisection search
type SearchConfig struct {
	TargetPower      float64 `validate:"gt=0,lt=1"`
	Alpha            float64 `validate:"gt=0,lt=1"`
	Epsilon          float64 `validate:"gt=0,lt=1"`
	MaxDepth         int     `validate:"min=1"`
	CorrectionMethod string  `validate:"required"`
	AlphaPolicy      string  `validate:"required"`
}

// SimulationConfig holds the Monte-Carlo settings of the power estimator
type SimulationConfig struct {
	Replications int    `validate:"min=1"`
	Workers      int    `validate:"min=1"`
	ChunkSize    int    `validate:"min=1"`
	Seed         uint64 // Base seed; equal seeds give equal estimates
}

var configValidate = validator.New()

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Search: SearchConfig{
			TargetPower:      DefaultPower,
			Alpha:            DefaultAlpha,
			Epsilon:          DefaultEpsilon,
			MaxDepth:         DefaultMaxDepth,
			CorrectionMethod: DefaultCorrectionMethod,
			AlphaPolicy:      DefaultAlphaPolicy,
		},
		Simulation: SimulationConfig{
			Replications: DefaultReplications,
			Workers:      runtime.GOMAXPROCS(0),
			ChunkSize:    DefaultChunkSize,
			Seed:         DefaultSeed,
		},
	}
}

// Load reads configuration from environment variables on top of Default and
// validates it
func Load() (Config, error) {
	cfg := Default()
	var err error

	s := &cfg.Search
	if s.TargetPower, err = getEnvFloatOrDefault("SAMPLESIZE_POWER", s.TargetPower); err != nil {
		return Config{}, err
	}
	if s.Alpha, err = getEnvFloatOrDefault("SAMPLESIZE_ALPHA", s.Alpha); err != nil {
		return Config{}, err
	}
	if s.Epsilon, err = getEnvFloatOrDefault("SAMPLESIZE_EPSILON", s.Epsilon); err != nil {
		return Config{}, err
	}
	if s.MaxDepth, err = getEnvIntOrDefault("SAMPLESIZE_MAX_DEPTH", s.MaxDepth); err != nil {
		return Config{}, err
	}
	s.CorrectionMethod = getEnvOrDefault("SAMPLESIZE_CORRECTION", s.CorrectionMethod)
	s.AlphaPolicy = getEnvOrDefault("SAMPLESIZE_ALPHA_POLICY", s.AlphaPolicy)

	sim := &cfg.Simulation
	if sim.Replications, err = getEnvIntOrDefault("SAMPLESIZE_REPLICATIONS", sim.Replications); err != nil {
		return Config{}, err
	}
	if sim.Workers, err = getEnvIntOrDefault("SAMPLESIZE_WORKERS", sim.Workers); err != nil {
		return Config{}, err
	}
	if sim.ChunkSize, err = getEnvIntOrDefault("SAMPLESIZE_CHUNK_SIZE", sim.ChunkSize); err != nil {
		return Config{}, err
	}
	if sim.Seed, err = getEnvUintOrDefault("SAMPLESIZE_SEED", sim.Seed); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// Validate checks ranges and that the named correction method and alpha
// policy exist
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return errors.ConfigInvalid(strings.ReplaceAll(err.Error(), "\n", "; "))
	}
	if _, err := correction.New(c.Search.CorrectionMethod); err != nil {
		return errors.Wrap(err, "invalid correction method")
	}
	if _, err := correction.NewAlphaPolicy(c.Search.AlphaPolicy); err != nil {
		return errors.Wrap(err, "invalid alpha policy")
	}
	return nil
}

// Helper functions for environment variable parsing. Malformed values are
// reported as CONFIG_INVALID.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s must be an integer, got %q", key, value))
	}
	return intValue, nil
}

func getEnvUintOrDefault(key string, defaultValue uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	uintValue, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s must be a non-negative integer, got %q", key, value))
	}
	return uintValue, nil
}

func getEnvFloatOrDefault(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s must be a number, got %q", key, value))
	}
	return floatValue, nil
}
