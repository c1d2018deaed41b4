package models

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"gosize/domain/metric"
)

// RatioModel models a ratio metric through its delta-method variance
type RatioModel struct {
	meta     metric.RatioMetadata
	ratio    float64
	variance float64
}

// NewRatioModel creates a new ratio metric model
func NewRatioModel(meta metric.RatioMetadata) *RatioModel {
	return &RatioModel{
		meta:     meta,
		ratio:    meta.Ratio(),
		variance: meta.Variance(),
	}
}

func (m *RatioModel) Kind() metric.Kind { return metric.KindRatio }

func (m *RatioModel) RequiredSampleSize(alpha, power float64) (int, error) {
	return twoSampleSize(m.meta.MDE/math.Sqrt(m.variance), alpha, power)
}

// SimulatePValue draws both arm ratio estimates from their asymptotic normal
// distribution and applies a z-test
func (m *RatioModel) SimulatePValue(rng *rand.Rand, sampleSize int) float64 {
	if sampleSize < 1 {
		return 1
	}
	n := float64(sampleSize)

	sigma := math.Sqrt(m.variance / n)
	control := distuv.Normal{Mu: m.ratio, Sigma: sigma, Src: rng}.Rand()
	treatment := distuv.Normal{Mu: m.ratio + m.meta.MDE, Sigma: sigma, Src: rng}.Rand()

	z := (treatment - control) / (sigma * math.Sqrt2)
	return twoSidedNormalP(z)
}
