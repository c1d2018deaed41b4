package search

import (
	"context"
	"fmt"
	"math"

	"gosize/domain/core"
	"gosize/domain/power"
	"gosize/internal"
)

// Objective reports the estimated power at a candidate sample size
type Objective interface {
	EstimatePower(ctx context.Context, sampleSize, replications int) (float64, error)
}

// ObjectiveFunc adapts a function to Objective
type ObjectiveFunc func(ctx context.Context, sampleSize, replications int) (float64, error)

func (f ObjectiveFunc) EstimatePower(ctx context.Context, sampleSize, replications int) (float64, error) {
	return f(ctx, sampleSize, replications)
}

// Params controls one search
type Params struct {
	TargetPower  float64
	Epsilon      float64 // Half-width of the accepted band around TargetPower
	Replications int     // Passed through to the objective
	MaxDepth     int     // Maximum number of objective evaluations
}

// Validate checks parameter ranges
func (p Params) Validate() error {
	switch {
	case !(p.TargetPower > 0 && p.TargetPower < 1):
		return core.NewArgumentError("target_power", p.TargetPower)
	case !(p.Epsilon > 0):
		return core.NewArgumentError("epsilon", p.Epsilon)
	case p.Replications < 1:
		return core.NewArgumentError("replications", p.Replications)
	case p.MaxDepth < 1:
		return core.NewArgumentError("max_depth", p.MaxDepth)
	}
	return nil
}

// Bisection finds the sample size whose power falls in the target band by
// bisecting the bounds in log space
type Bisection struct {
	objective Objective
	logger    *internal.Logger
}

// NewBisection creates a search over objective
func NewBisection(objective Objective, logger *internal.Logger) *Bisection {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Bisection{objective: objective, logger: logger}
}

// Run evaluates the geometric midpoint of the bounds and keeps the half that
// must contain the target: an over-powered candidate becomes the upper bound,
// an under-powered one the lower bound. It stops with
// core.ErrPowerNotAchievable when MaxDepth evaluations are spent or the
// interval can no longer narrow.
func (b *Bisection) Run(ctx context.Context, bounds power.SearchBounds, params Params) (power.Result, error) {
	if err := bounds.Validate(); err != nil {
		return power.Result{}, err
	}
	if err := params.Validate(); err != nil {
		return power.Result{}, err
	}

	result := power.Result{
		TargetPower: params.TargetPower,
		Initial:     bounds,
	}

	current := bounds
	for depth := 0; depth < params.MaxDepth; depth++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		candidate := current.Candidate()
		estimated, err := b.objective.EstimatePower(ctx, candidate, params.Replications)
		if err != nil {
			return result, fmt.Errorf("estimating power at sample size %d: %w", candidate, err)
		}
		if math.IsNaN(estimated) || estimated < 0 || estimated > 1 {
			return result, fmt.Errorf("estimating power at sample size %d: power %v outside [0, 1]", candidate, estimated)
		}

		result.Steps = append(result.Steps, power.Step{
			Depth:     depth,
			Bounds:    current,
			Candidate: candidate,
			Power:     estimated,
		})
		result.Iterations = len(result.Steps)
		b.logger.Debug("[Bisection] depth=%d bounds=%s candidate=%d power=%.4f target=%.4f",
			depth, current, candidate, estimated, params.TargetPower)

		if math.Abs(estimated-params.TargetPower) <= params.Epsilon {
			result.SampleSize = candidate
			result.Power = estimated
			return result, nil
		}

		next := current
		if estimated > params.TargetPower {
			next.Upper = candidate
		} else {
			next.Lower = candidate
		}

		if next == current {
			b.logger.Warn("[Bisection] interval %s collapsed at candidate %d (power %.4f, target %.4f)",
				current, candidate, estimated, params.TargetPower)
			return result, core.NewPowerNotAchievableError(params.TargetPower, current.Lower, current.Upper, depth+1,
				"interval collapsed")
		}
		current = next
	}

	b.logger.Warn("[Bisection] no convergence after %d evaluations, last bounds %s", params.MaxDepth, current)
	return result, core.NewPowerNotAchievableError(params.TargetPower, current.Lower, current.Upper, params.MaxDepth,
		"maximum depth exceeded")
}
