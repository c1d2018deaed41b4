package models

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"gosize/domain/metric"
)

// BooleanModel models a proportion metric with a pooled two-proportion z-test
type BooleanModel struct {
	meta metric.BooleanMetadata
}

// NewBooleanModel creates a new boolean metric model
func NewBooleanModel(meta metric.BooleanMetadata) *BooleanModel {
	return &BooleanModel{meta: meta}
}

func (m *BooleanModel) Kind() metric.Kind { return metric.KindBoolean }

// RequiredSampleSize uses the Bernoulli variance at the baseline probability
func (m *BooleanModel) RequiredSampleSize(alpha, power float64) (int, error) {
	return twoSampleSize(m.meta.MDE/math.Sqrt(m.meta.Variance()), alpha, power)
}

// SimulatePValue draws success counts for both arms and tests the difference
func (m *BooleanModel) SimulatePValue(rng *rand.Rand, sampleSize int) float64 {
	if sampleSize < 1 {
		return 1
	}
	n := float64(sampleSize)

	control := distuv.Binomial{N: n, P: m.meta.Probability, Src: rng}.Rand()
	treatment := distuv.Binomial{N: n, P: m.meta.Probability + m.meta.MDE, Src: rng}.Rand()

	pooled := (control + treatment) / (2 * n)
	se := math.Sqrt(pooled * (1 - pooled) * 2 / n)
	if se == 0 {
		return 1
	}

	z := (treatment - control) / n / se
	return twoSidedNormalP(z)
}
