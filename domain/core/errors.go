package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors
	ErrConfiguration   = errors.New("configuration error")
	ErrNoMetrics       = fmt.Errorf("%w: no metrics registered", ErrConfiguration)
	ErrInvalidMetric   = fmt.Errorf("%w: invalid metric", ErrConfiguration)
	ErrUnknownKind     = fmt.Errorf("%w: unknown metric type", ErrConfiguration)
	ErrUnknownMethod   = fmt.Errorf("%w: unknown correction method", ErrConfiguration)
	ErrInvalidBounds   = fmt.Errorf("%w: invalid search bounds", ErrConfiguration)
	ErrInvalidArgument = fmt.Errorf("%w: invalid argument", ErrConfiguration)

	// Search errors
	ErrPowerNotAchievable = errors.New("power not achievable")
)

// PowerNotAchievableError reports a search that ended without entering the
// tolerance band around the requested power.
type PowerNotAchievableError struct {
	TargetPower float64
	Lower       int
	Upper       int
	Depth       int
	Reason      string
}

func (e *PowerNotAchievableError) Error() string {
	return fmt.Sprintf("couldn't find a sample size that satisfies the power you requested: %v", e.TargetPower)
}

// Is lets errors.Is match ErrPowerNotAchievable.
func (e *PowerNotAchievableError) Is(target error) bool {
	return target == ErrPowerNotAchievable
}

// Error constructors with context
func NewMetricError(index int, kind string, reason string) error {
	return fmt.Errorf("%w %d (%s): %s", ErrInvalidMetric, index, kind, reason)
}

func NewArgumentError(name string, value interface{}) error {
	return fmt.Errorf("%w: %s=%v", ErrInvalidArgument, name, value)
}

func NewPowerNotAchievableError(target float64, lower, upper, depth int, reason string) error {
	return &PowerNotAchievableError{
		TargetPower: target,
		Lower:       lower,
		Upper:       upper,
		Depth:       depth,
		Reason:      reason,
	}
}

// Error checking helpers
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func IsPowerNotAchievable(err error) bool {
	return errors.Is(err, ErrPowerNotAchievable)
}
