package core

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 1000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

func TestNewRunID_IsUUID(t *testing.T) {
	id := NewRunID()
	if _, err := uuid.Parse(id.String()); err != nil {
		t.Errorf("run ID %q is not a UUID: %v", id, err)
	}
}

func TestPowerNotAchievableError(t *testing.T) {
	err := NewPowerNotAchievableError(0.9, 120, 130, 7, "interval collapsed")

	if got, want := err.Error(), "couldn't find a sample size that satisfies the power you requested: 0.9"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !IsPowerNotAchievable(err) {
		t.Error("expected IsPowerNotAchievable")
	}
	if IsConfigurationError(err) {
		t.Error("power errors are not configuration errors")
	}
	if !IsConfigurationError(ErrNoMetrics) {
		t.Error("ErrNoMetrics should be a configuration error")
	}
}
