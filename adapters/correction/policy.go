package correction

import (
	"fmt"
	"math"

	"gosize/domain/core"
	"gosize/ports"
)

// Alpha policy identifiers
const (
	PolicyBonferroni = "bonferroni"
	PolicySidak      = "sidak"
)

// Policies lists the supported alpha adjustment policies
var Policies = []string{PolicyBonferroni, PolicySidak}

// NewAlphaPolicy returns the adjustment policy registered under name
func NewAlphaPolicy(name string) (ports.AlphaPolicy, error) {
	switch name {
	case PolicyBonferroni, "":
		return BonferroniPolicy{}, nil
	case PolicySidak:
		return SidakPolicy{}, nil
	default:
		return nil, fmt.Errorf("%w: alpha policy %q (supported: %v)", core.ErrConfiguration, name, Policies)
	}
}

// BonferroniPolicy divides alpha evenly across tests
type BonferroniPolicy struct{}

func (BonferroniPolicy) Name() string { return PolicyBonferroni }

func (BonferroniPolicy) Adjust(alpha float64, tests int) float64 {
	if tests < 1 {
		return alpha
	}
	return alpha / float64(tests)
}

// SidakPolicy assumes independent tests: 1 - (1 - alpha)^(1/m)
type SidakPolicy struct{}

func (SidakPolicy) Name() string { return PolicySidak }

func (SidakPolicy) Adjust(alpha float64, tests int) float64 {
	if tests < 1 {
		return alpha
	}
	return -math.Expm1(math.Log1p(-alpha) / float64(tests))
}
