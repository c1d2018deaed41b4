package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gosize/domain/core"
	"gosize/internal/errors"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.8, cfg.Search.TargetPower)
	assert.Equal(t, 0.05, cfg.Search.Alpha)
	assert.Equal(t, 0.01, cfg.Search.Epsilon)
	assert.Equal(t, DefaultReplications, cfg.Simulation.Replications)
	assert.GreaterOrEqual(t, cfg.Simulation.Workers, 1)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SAMPLESIZE_POWER", "0.9")
	t.Setenv("SAMPLESIZE_ALPHA", "0.01")
	t.Setenv("SAMPLESIZE_EPSILON", "0.02")
	t.Setenv("SAMPLESIZE_REPLICATIONS", "1000")
	t.Setenv("SAMPLESIZE_MAX_DEPTH", "20")
	t.Setenv("SAMPLESIZE_WORKERS", "3")
	t.Setenv("SAMPLESIZE_SEED", "7")
	t.Setenv("SAMPLESIZE_CORRECTION", "holm")
	t.Setenv("SAMPLESIZE_ALPHA_POLICY", "sidak")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.9, cfg.Search.TargetPower)
	assert.Equal(t, 0.01, cfg.Search.Alpha)
	assert.Equal(t, 0.02, cfg.Search.Epsilon)
	assert.Equal(t, 20, cfg.Search.MaxDepth)
	assert.Equal(t, "holm", cfg.Search.CorrectionMethod)
	assert.Equal(t, "sidak", cfg.Search.AlphaPolicy)
	assert.Equal(t, 1000, cfg.Simulation.Replications)
	assert.Equal(t, 3, cfg.Simulation.Workers)
	assert.Equal(t, uint64(7), cfg.Simulation.Seed)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"power above one", "SAMPLESIZE_POWER", "1.5"},
		{"power not a number", "SAMPLESIZE_POWER", "high"},
		{"zero replications", "SAMPLESIZE_REPLICATIONS", "0"},
		{"negative seed", "SAMPLESIZE_SEED", "-1"},
		{"zero epsilon", "SAMPLESIZE_EPSILON", "0"},
		{"unknown correction", "SAMPLESIZE_CORRECTION", "fdr_by"},
		{"unknown alpha policy", "SAMPLESIZE_ALPHA_POLICY", "hommel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrConfiguration)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
