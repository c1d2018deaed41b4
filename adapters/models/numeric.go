package models

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"gosize/domain/metric"
)

// NumericModel models a continuous metric with Welch's t-test
type NumericModel struct {
	meta metric.NumericMetadata
}

// NewNumericModel creates a new numeric metric model
func NewNumericModel(meta metric.NumericMetadata) *NumericModel {
	return &NumericModel{meta: meta}
}

func (m *NumericModel) Kind() metric.Kind { return metric.KindNumeric }

func (m *NumericModel) RequiredSampleSize(alpha, power float64) (int, error) {
	return twoSampleSize(m.meta.MDE/math.Sqrt(m.meta.Variance), alpha, power)
}

// SimulatePValue draws the sufficient statistics of both arms instead of the
// raw observations: sample means are normal and sample variances are scaled
// chi-squared with n-1 degrees of freedom.
func (m *NumericModel) SimulatePValue(rng *rand.Rand, sampleSize int) float64 {
	if sampleSize < 2 {
		return 1
	}
	n := float64(sampleSize)
	df := n - 1

	sigma := math.Sqrt(m.meta.Variance / n)
	meanControl := distuv.Normal{Mu: 0, Sigma: sigma, Src: rng}.Rand()
	meanTreatment := distuv.Normal{Mu: m.meta.MDE, Sigma: sigma, Src: rng}.Rand()

	chi := distuv.ChiSquared{K: df, Src: rng}
	varControl := m.meta.Variance * chi.Rand() / df
	varTreatment := m.meta.Variance * chi.Rand() / df

	seControl := varControl / n
	seTreatment := varTreatment / n
	se2 := seControl + seTreatment
	if se2 <= 0 {
		return 1
	}

	// Welch-Satterthwaite degrees of freedom
	nu := se2 * se2 / (seControl*seControl/df + seTreatment*seTreatment/df)

	t := (meanTreatment - meanControl) / math.Sqrt(se2)
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: nu}
	return clampP(2 * tDist.Survival(math.Abs(t)))
}
