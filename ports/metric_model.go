package ports

import (
	"math/rand/v2"

	"gosize/domain/metric"
)

// MetricModel translates one metric's effect size into single-test sample
// sizes and simulated evidence
type MetricModel interface {
	// Kind reports which metric kind the model implements
	Kind() metric.Kind

	// RequiredSampleSize returns the per-arm size for a single uncorrected test
	// reaching power at significance level alpha
	RequiredSampleSize(alpha, power float64) (int, error)

	// SimulatePValue draws one p-value for a trial at sampleSize per arm under
	// the metric's true alternative effect
	SimulatePValue(rng *rand.Rand, sampleSize int) float64
}
