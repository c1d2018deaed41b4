package simulation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gosize/adapters/correction"
	"gosize/adapters/models"
	"gosize/domain/core"
	"gosize/domain/metric"
	"gosize/internal"
	"gosize/internal/testkit"
	"gosize/ports"
)

func constantModels(n int, pValue float64) []ports.MetricModel {
	out := make([]ports.MetricModel, n)
	for i := range out {
		out[i] = testkit.ConstantModel{PValue: pValue, Required: 100}
	}
	return out
}

func booleanModels(t *testing.T, n int) []ports.MetricModel {
	t.Helper()
	out := make([]ports.MetricModel, n)
	for i := range out {
		m, err := models.New(metric.Metric{
			Kind:    metric.KindBoolean,
			Boolean: &metric.BooleanMetadata{Probability: 0.05, MDE: 0.02},
		})
		require.NoError(t, err)
		out[i] = m
	}
	return out
}

func newEstimator(t *testing.T, ms []ports.MetricModel, c ports.Corrector, opts ...Option) *PowerEstimator {
	t.Helper()
	opts = append([]Option{WithLogger(internal.NopLogger())}, opts...)
	e, err := NewPowerEstimator(ms, c, 0.05, opts...)
	require.NoError(t, err)
	return e
}

func TestEstimate_CalibratedAgainstFixedRejectionRate(t *testing.T) {
	for _, replications := range []int{10, 100, 500, 1000} {
		for _, rate := range []float64{0.1, 0.2, 0.5, 0.8, 0.9} {
			t.Run(fmt.Sprintf("reps=%d/rate=%v", replications, rate), func(t *testing.T) {
				corrector := testkit.NewFixedRateCorrector(rate, 1024)
				e := newEstimator(t, constantModels(4, 0.5), corrector)

				estimate, err := e.Estimate(context.Background(), 10, replications)
				require.NoError(t, err)

				margin := 1 / math.Sqrt(float64(replications))
				assert.InDelta(t, rate, estimate.Power, margin)
				assert.Equal(t, replications, corrector.Calls())
				assert.Equal(t, replications, estimate.Replications)
				assert.Equal(t, 10, estimate.SampleSize)
			})
		}
	}
}

func TestEstimate_StdErrShrinksWithReplications(t *testing.T) {
	small := newEstimator(t, constantModels(2, 0.5), testkit.NewFixedRateCorrector(0.5, 7))
	large := newEstimator(t, constantModels(2, 0.5), testkit.NewFixedRateCorrector(0.5, 7))

	a, err := small.Estimate(context.Background(), 10, 50)
	require.NoError(t, err)
	b, err := large.Estimate(context.Background(), 10, 5000)
	require.NoError(t, err)

	assert.Greater(t, a.StdErr, b.StdErr)
	assert.InDelta(t, 0.5/math.Sqrt(2*5000), b.StdErr, 0.002)
}

func TestEstimate_MonotoneInSampleSize(t *testing.T) {
	corrector, err := correction.New(correction.MethodBenjaminiHochberg)
	require.NoError(t, err)

	mean := func(sampleSize int) float64 {
		total := 0.0
		seeds := []uint64{1, 2, 3, 4, 5}
		for _, seed := range seeds {
			e := newEstimator(t, booleanModels(t, 3), corrector, WithSeed(seed), WithWorkers(2))
			estimate, err := e.Estimate(context.Background(), sampleSize, 200)
			require.NoError(t, err)
			total += estimate.Power
		}
		return total / float64(len(seeds))
	}

	for _, n := range []int{10, 100, 1000} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			base := mean(n)
			inflated := mean(n * 10)
			if !(inflated > base) {
				t.Errorf("power did not increase: n=%d -> %v, n=%d -> %v", n, base, n*10, inflated)
			}
		})
	}
}

func TestEstimate_IndependentOfWorkerCount(t *testing.T) {
	corrector, err := correction.New(correction.MethodBenjaminiHochberg)
	require.NoError(t, err)

	var powers []float64
	for _, workers := range []int{1, 3, 8} {
		e := newEstimator(t, booleanModels(t, 3), corrector, WithSeed(99), WithWorkers(workers), WithChunkSize(16))
		estimate, err := e.Estimate(context.Background(), 1500, 300)
		require.NoError(t, err)
		powers = append(powers, estimate.Power)
	}

	assert.Equal(t, powers[0], powers[1])
	assert.Equal(t, powers[0], powers[2])
}

func TestEstimate_RepeatableAcrossCalls(t *testing.T) {
	corrector, err := correction.New(correction.MethodHolm)
	require.NoError(t, err)

	e := newEstimator(t, booleanModels(t, 2), corrector, WithSeed(5), WithWorkers(4))
	first, err := e.Estimate(context.Background(), 2000, 256)
	require.NoError(t, err)
	second, err := e.Estimate(context.Background(), 2000, 256)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEstimate_ExtremePowers(t *testing.T) {
	corrector, err := correction.New(correction.MethodBenjaminiHochberg)
	require.NoError(t, err)

	tests := []struct {
		name   string
		pValue float64
		want   float64
	}{
		{"every hypothesis detected", 0.0001, 1},
		{"nothing detected", 0.9, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEstimator(t, constantModels(3, tt.pValue), corrector)
			estimate, err := e.Estimate(context.Background(), 100, 20)
			require.NoError(t, err)
			assert.Equal(t, tt.want, estimate.Power)
			assert.Equal(t, 0.0, estimate.StdErr)
		})
	}
}

func TestEstimate_Errors(t *testing.T) {
	boom := errors.New("solver exploded")

	tests := []struct {
		name      string
		corrector ports.Corrector
		n, reps   int
		wantErr   error
		contains  string
	}{
		{"zero sample size", testkit.NewFixedRateCorrector(0.5, 1), 0, 10, core.ErrInvalidArgument, ""},
		{"zero replications", testkit.NewFixedRateCorrector(0.5, 1), 10, 0, core.ErrInvalidArgument, ""},
		{"corrector error", &testkit.BrokenCorrector{Err: boom}, 10, 10, boom, "broken correction failed"},
		{"wrong decision count", &testkit.BrokenCorrector{Decision: []bool{true}}, 10, 10, nil, "returned 1 decisions for 3 p-values"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEstimator(t, constantModels(3, 0.01), tt.corrector, WithWorkers(2))
			_, err := e.Estimate(context.Background(), tt.n, tt.reps)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestEstimate_CancelledContext(t *testing.T) {
	e := newEstimator(t, constantModels(2, 0.01), testkit.NewFixedRateCorrector(0.5, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Estimate(ctx, 10, 100)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewPowerEstimator_Validation(t *testing.T) {
	corrector := testkit.NewFixedRateCorrector(0.5, 1)

	_, err := NewPowerEstimator(nil, corrector, 0.05)
	assert.ErrorIs(t, err, core.ErrNoMetrics)

	_, err = NewPowerEstimator(constantModels(1, 0.1), nil, 0.05)
	assert.ErrorIs(t, err, core.ErrConfiguration)

	_, err = NewPowerEstimator(constantModels(1, 0.1), corrector, 1.5)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = NewPowerEstimator(constantModels(1, 0.1), corrector, 0.05, WithWorkers(0))
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = NewPowerEstimator(constantModels(1, 0.1), corrector, 0.05, WithChunkSize(0))
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}
