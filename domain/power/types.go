package power

import (
	"fmt"
	"math"

	"gosize/domain/core"
)

// SearchBounds is the candidate interval explored by the sample size search
// INVARIANTS:
// - 1 <= Lower <= Upper
type SearchBounds struct {
	Lower int `json:"lower"`
	Upper int `json:"upper"`
}

// Validate checks the bounds invariant
func (b SearchBounds) Validate() error {
	if b.Lower < 1 || b.Upper < b.Lower {
		return fmt.Errorf("%w: lower=%d upper=%d", core.ErrInvalidBounds, b.Lower, b.Upper)
	}
	return nil
}

// Candidate returns the geometric midpoint of the interval, rounded to the
// nearest integer. It always lies within [Lower, Upper].
func (b SearchBounds) Candidate() int {
	return int(math.Round(math.Sqrt(float64(b.Lower) * float64(b.Upper))))
}

func (b SearchBounds) String() string {
	return fmt.Sprintf("[%d, %d]", b.Lower, b.Upper)
}

// Estimate is a Monte-Carlo estimate of expected average power
type Estimate struct {
	SampleSize   int     `json:"sample_size"`
	Replications int     `json:"replications"`
	Power        float64 `json:"power"`   // Mean fraction of true effects detected, in [0, 1]
	StdErr       float64 `json:"std_err"` // Standard error of Power across replications
}

// Step records one iteration of the search
type Step struct {
	Depth     int          `json:"depth"`
	Bounds    SearchBounds `json:"bounds"`
	Candidate int          `json:"candidate"`
	Power     float64      `json:"power"`
}

// Result is the outcome of a converged search
type Result struct {
	RunID       string       `json:"run_id,omitempty"`
	SampleSize  int          `json:"sample_size"`
	Power       float64      `json:"power"`
	TargetPower float64      `json:"target_power"`
	Iterations  int          `json:"iterations"`
	Initial     SearchBounds `json:"initial_bounds"`
	Steps       []Step       `json:"steps"`
}
