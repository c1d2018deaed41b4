package testkit

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/stretchr/testify/mock"

	"gosize/domain/metric"
)

// ============================================================================
// FIXTURES
// ============================================================================

// BooleanDescriptor returns a boolean metric registration entry
func BooleanDescriptor(probability, mde float64) metric.Descriptor {
	return metric.Descriptor{
		Type: metric.KindBoolean,
		Metadata: map[string]float64{
			metric.KeyProbability: probability,
			metric.KeyMDE:         mde,
		},
	}
}

// NumericDescriptor returns a numeric metric registration entry
func NumericDescriptor(variance, mde float64) metric.Descriptor {
	return metric.Descriptor{
		Type: metric.KindNumeric,
		Metadata: map[string]float64{
			metric.KeyVariance: variance,
			metric.KeyMDE:      mde,
		},
	}
}

// Repeat returns n copies of d
func Repeat(d metric.Descriptor, n int) []metric.Descriptor {
	out := make([]metric.Descriptor, n)
	for i := range out {
		out[i] = d
	}
	return out
}

// ============================================================================
// CORRECTOR DOUBLES
// ============================================================================

// FixedRateCorrector rejects every hypothesis independently with probability
// Rate, ignoring the p-values. Safe for concurrent use.
type FixedRateCorrector struct {
	Rate float64

	mu    sync.Mutex
	rng   *rand.Rand
	calls int
}

// NewFixedRateCorrector creates a seeded fixed-rate corrector
func NewFixedRateCorrector(rate float64, seed uint64) *FixedRateCorrector {
	return &FixedRateCorrector{Rate: rate, rng: rand.New(rand.NewPCG(seed, 1024))}
}

func (c *FixedRateCorrector) Name() string { return "fixed_rate" }

func (c *FixedRateCorrector) Correct(pValues []float64, alpha float64) ([]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	rejected := make([]bool, len(pValues))
	for i := range rejected {
		rejected[i] = c.rng.Float64() < c.Rate
	}
	return rejected, nil
}

// Calls returns how many families were corrected
func (c *FixedRateCorrector) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// BrokenCorrector returns a fixed error or a decision slice of the wrong length
type BrokenCorrector struct {
	Err      error
	Decision []bool
}

func (c *BrokenCorrector) Name() string { return "broken" }

func (c *BrokenCorrector) Correct(pValues []float64, alpha float64) ([]bool, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Decision, nil
}

// ============================================================================
// OBJECTIVE DOUBLES
// ============================================================================

// ObjectiveCall records one objective evaluation
type ObjectiveCall struct {
	SampleSize   int
	Replications int
}

// ScriptedObjective returns Powers in order. After the script runs out it
// cycles when Cycle is set and otherwise repeats the last value.
type ScriptedObjective struct {
	Powers []float64
	Cycle  bool

	mu    sync.Mutex
	calls []ObjectiveCall
}

// EstimatePower implements search.Objective
func (o *ScriptedObjective) EstimatePower(ctx context.Context, sampleSize, replications int) (float64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.Powers) == 0 {
		return 0, fmt.Errorf("scripted objective has no powers")
	}
	i := len(o.calls)
	o.calls = append(o.calls, ObjectiveCall{SampleSize: sampleSize, Replications: replications})

	switch {
	case i < len(o.Powers):
		return o.Powers[i], nil
	case o.Cycle:
		return o.Powers[i%len(o.Powers)], nil
	default:
		return o.Powers[len(o.Powers)-1], nil
	}
}

// Calls returns a copy of the recorded evaluations
func (o *ScriptedObjective) Calls() []ObjectiveCall {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]ObjectiveCall(nil), o.calls...)
}

// ============================================================================
// MODEL DOUBLES
// ============================================================================

// MockMetricModel is a testify mock of ports.MetricModel
type MockMetricModel struct {
	mock.Mock
}

func (m *MockMetricModel) Kind() metric.Kind {
	return metric.KindBoolean
}

func (m *MockMetricModel) RequiredSampleSize(alpha, power float64) (int, error) {
	args := m.Called(alpha, power)
	return args.Int(0), args.Error(1)
}

func (m *MockMetricModel) SimulatePValue(rng *rand.Rand, sampleSize int) float64 {
	args := m.Called(rng, sampleSize)
	return args.Get(0).(float64)
}

// ConstantModel returns the same p-value for every trial
type ConstantModel struct {
	PValue   float64
	Required int
}

func (m ConstantModel) Kind() metric.Kind { return metric.KindNumeric }

func (m ConstantModel) RequiredSampleSize(alpha, power float64) (int, error) {
	return m.Required, nil
}

func (m ConstantModel) SimulatePValue(rng *rand.Rand, sampleSize int) float64 {
	return m.PValue
}
