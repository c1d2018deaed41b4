package correction

import (
	"fmt"
	"math"
	"sort"

	"gosize/domain/core"
	"gosize/ports"
)

// Correction method identifiers
const (
	MethodBenjaminiHochberg = "fdr_bh"
	MethodBonferroni        = "bonferroni"
	MethodHolm              = "holm"
)

// Methods lists the supported correction methods
var Methods = []string{MethodBenjaminiHochberg, MethodBonferroni, MethodHolm}

// New returns the corrector registered under method
func New(method string) (ports.Corrector, error) {
	switch method {
	case MethodBenjaminiHochberg, "":
		return &BenjaminiHochberg{}, nil
	case MethodBonferroni:
		return &Bonferroni{}, nil
	case MethodHolm:
		return &Holm{}, nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: %v)", core.ErrUnknownMethod, method, Methods)
	}
}

// BenjaminiHochberg controls the false discovery rate with the step-up procedure
type BenjaminiHochberg struct{}

func (c *BenjaminiHochberg) Name() string { return MethodBenjaminiHochberg }

// Correct rejects the k smallest p-values where k is the largest rank with
// p_(k) <= k * alpha / m
func (c *BenjaminiHochberg) Correct(pValues []float64, alpha float64) ([]bool, error) {
	if err := validateFamily(pValues, alpha); err != nil {
		return nil, err
	}

	m := len(pValues)
	order := ascending(pValues)

	cutoff := -1
	for rank := m; rank >= 1; rank-- {
		if pValues[order[rank-1]] <= float64(rank)*alpha/float64(m) {
			cutoff = rank
			break
		}
	}

	rejected := make([]bool, m)
	for rank := 1; rank <= cutoff; rank++ {
		rejected[order[rank-1]] = true
	}
	return rejected, nil
}

// Bonferroni controls the family-wise error rate with a single threshold
type Bonferroni struct{}

func (c *Bonferroni) Name() string { return MethodBonferroni }

func (c *Bonferroni) Correct(pValues []float64, alpha float64) ([]bool, error) {
	if err := validateFamily(pValues, alpha); err != nil {
		return nil, err
	}

	threshold := alpha / float64(len(pValues))
	rejected := make([]bool, len(pValues))
	for i, p := range pValues {
		rejected[i] = p <= threshold
	}
	return rejected, nil
}

// Holm controls the family-wise error rate with the step-down procedure
type Holm struct{}

func (c *Holm) Name() string { return MethodHolm }

func (c *Holm) Correct(pValues []float64, alpha float64) ([]bool, error) {
	if err := validateFamily(pValues, alpha); err != nil {
		return nil, err
	}

	m := len(pValues)
	order := ascending(pValues)

	rejected := make([]bool, m)
	for i, idx := range order {
		if pValues[idx] > alpha/float64(m-i) {
			break
		}
		rejected[idx] = true
	}
	return rejected, nil
}

// ascending returns indices of pValues sorted by p-value. Ties keep input order.
func ascending(pValues []float64) []int {
	order := make([]int, len(pValues))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return pValues[order[a]] < pValues[order[b]]
	})
	return order
}

func validateFamily(pValues []float64, alpha float64) error {
	if !(alpha > 0 && alpha < 1) {
		return core.NewArgumentError("alpha", alpha)
	}
	for i, p := range pValues {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return core.NewArgumentError(fmt.Sprintf("p_values[%d]", i), p)
		}
	}
	return nil
}
