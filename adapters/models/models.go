package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"gosize/domain/core"
	"gosize/domain/metric"
	"gosize/ports"
)

// New selects the model for a registered metric by its kind tag
func New(m metric.Metric) (ports.MetricModel, error) {
	switch m.Kind {
	case metric.KindBoolean:
		if m.Boolean == nil {
			return nil, fmt.Errorf("%w: boolean metric without metadata", core.ErrInvalidMetric)
		}
		return NewBooleanModel(*m.Boolean), nil
	case metric.KindNumeric:
		if m.Numeric == nil {
			return nil, fmt.Errorf("%w: numeric metric without metadata", core.ErrInvalidMetric)
		}
		return NewNumericModel(*m.Numeric), nil
	case metric.KindRatio:
		if m.Ratio == nil {
			return nil, fmt.Errorf("%w: ratio metric without metadata", core.ErrInvalidMetric)
		}
		return NewRatioModel(*m.Ratio), nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownKind, m.Kind)
	}
}

// twoSampleSize returns the per-arm size for a two-sided, two-sample z-test
// with equal arms: 2 * ((z_{1-alpha/2} + z_{power}) / d)^2
func twoSampleSize(effectSize, alpha, power float64) (int, error) {
	if !(alpha > 0 && alpha < 1) {
		return 0, core.NewArgumentError("alpha", alpha)
	}
	if !(power > 0 && power < 1) {
		return 0, core.NewArgumentError("power", power)
	}
	if !(effectSize > 0) || math.IsInf(effectSize, 0) {
		return 0, core.NewArgumentError("effect_size", effectSize)
	}

	zAlpha := distuv.UnitNormal.Quantile(1 - alpha/2)
	zBeta := distuv.UnitNormal.Quantile(power)
	if zAlpha+zBeta <= 0 {
		return 1, nil
	}

	n := 2 * math.Pow((zAlpha+zBeta)/effectSize, 2)
	if math.IsInf(n, 0) || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: required sample size %v is out of range", core.ErrInvalidArgument, n)
	}
	return max(1, int(math.Ceil(n))), nil
}

// twoSidedNormalP converts a z statistic into a two-sided p-value
func twoSidedNormalP(z float64) float64 {
	if math.IsNaN(z) {
		return 1
	}
	return clampP(2 * distuv.UnitNormal.Survival(math.Abs(z)))
}

func clampP(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 1
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
