package models

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gosize/domain/core"
	"gosize/domain/metric"
	"gosize/ports"
)

func testMetrics() map[metric.Kind]metric.Metric {
	return map[metric.Kind]metric.Metric{
		metric.KindBoolean: {
			Kind:    metric.KindBoolean,
			Boolean: &metric.BooleanMetadata{Probability: 0.05, MDE: 0.02},
		},
		metric.KindNumeric: {
			Kind:    metric.KindNumeric,
			Numeric: &metric.NumericMetadata{Variance: 1, MDE: 0.2},
		},
		metric.KindRatio: {
			Kind: metric.KindRatio,
			Ratio: &metric.RatioMetadata{
				NumeratorMean:       2,
				NumeratorVariance:   4,
				DenominatorMean:     1,
				DenominatorVariance: 0.5,
				Covariance:          0.5,
				MDE:                 0.1,
			},
		},
	}
}

func rejectionRate(model ports.MetricModel, sampleSize, trials int, alpha float64, seed uint64) float64 {
	rng := rand.New(rand.NewPCG(seed, 7))
	rejected := 0
	for i := 0; i < trials; i++ {
		if model.SimulatePValue(rng, sampleSize) <= alpha {
			rejected++
		}
	}
	return float64(rejected) / float64(trials)
}

func TestNew_SelectsModelByKind(t *testing.T) {
	for kind, m := range testMetrics() {
		t.Run(string(kind), func(t *testing.T) {
			model, err := New(m)
			require.NoError(t, err)
			assert.Equal(t, kind, model.Kind())
		})
	}

	_, err := New(metric.Metric{Kind: "survival"})
	assert.ErrorIs(t, err, core.ErrUnknownKind)

	_, err = New(metric.Metric{Kind: metric.KindBoolean})
	assert.ErrorIs(t, err, core.ErrInvalidMetric)
}

func TestRequiredSampleSize_ReferenceValues(t *testing.T) {
	tests := []struct {
		name     string
		kind     metric.Kind
		min, max int
	}{
		// 2 * ((1.96 + 0.8416) / (0.02 / sqrt(0.0475)))^2 ~= 1864.1
		{"boolean 5% baseline 2pt lift", metric.KindBoolean, 1864, 1866},
		// 2 * ((1.96 + 0.8416) / 0.2)^2 ~= 392.4
		{"numeric d=0.2", metric.KindNumeric, 392, 394},
	}

	metrics := testMetrics()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, err := New(metrics[tt.kind])
			require.NoError(t, err)

			n, err := model.RequiredSampleSize(0.05, 0.8)
			require.NoError(t, err)
			if n < tt.min || n > tt.max {
				t.Errorf("required sample size %d not in [%d, %d]", n, tt.min, tt.max)
			}
		})
	}
}

func TestRequiredSampleSize_StricterAlphaNeedsMoreUnits(t *testing.T) {
	for kind, m := range testMetrics() {
		t.Run(string(kind), func(t *testing.T) {
			model, err := New(m)
			require.NoError(t, err)

			nominal, err := model.RequiredSampleSize(0.05, 0.8)
			require.NoError(t, err)
			adjusted, err := model.RequiredSampleSize(0.05/3, 0.8)
			require.NoError(t, err)
			higherPower, err := model.RequiredSampleSize(0.05, 0.9)
			require.NoError(t, err)

			assert.GreaterOrEqual(t, nominal, 1)
			assert.Greater(t, adjusted, nominal)
			assert.Greater(t, higherPower, nominal)
		})
	}
}

func TestRequiredSampleSize_InvalidArguments(t *testing.T) {
	model := NewNumericModel(metric.NumericMetadata{Variance: 1, MDE: 0.2})

	tests := []struct {
		name         string
		alpha, power float64
	}{
		{"alpha zero", 0, 0.8},
		{"alpha one", 1, 0.8},
		{"power zero", 0.05, 0},
		{"power one", 0.05, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := model.RequiredSampleSize(tt.alpha, tt.power)
			assert.ErrorIs(t, err, core.ErrInvalidArgument)
		})
	}
}

func TestSimulatePValue_InUnitInterval(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for kind, m := range testMetrics() {
		model, err := New(m)
		require.NoError(t, err)
		for _, n := range []int{0, 1, 2, 10, 1000} {
			for i := 0; i < 50; i++ {
				p := model.SimulatePValue(rng, n)
				if p < 0 || p > 1 {
					t.Fatalf("%s: p-value %v out of range at n=%d", kind, p, n)
				}
			}
		}
	}
}

func TestSimulatePValue_MatchesAnalyticPower(t *testing.T) {
	model := NewNumericModel(metric.NumericMetadata{Variance: 1, MDE: 0.2})

	n, err := model.RequiredSampleSize(0.05, 0.8)
	require.NoError(t, err)

	rate := rejectionRate(model, n, 2000, 0.05, 11)
	assert.InDelta(t, 0.8, rate, 0.05)
}

func TestSimulatePValue_PowerGrowsWithSampleSize(t *testing.T) {
	for kind, m := range testMetrics() {
		t.Run(string(kind), func(t *testing.T) {
			model, err := New(m)
			require.NoError(t, err)

			n, err := model.RequiredSampleSize(0.05, 0.8)
			require.NoError(t, err)

			small := rejectionRate(model, max(2, n/4), 1000, 0.05, 21)
			large := rejectionRate(model, n*4, 1000, 0.05, 21)
			if !(large > small) {
				t.Errorf("rejection rate did not grow: n/4=%v 4n=%v", small, large)
			}
			assert.Greater(t, large, 0.9)
		})
	}
}
