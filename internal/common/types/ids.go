package types

import "github.com/google/uuid"

// RunID identifies one invocation of the runner across all of its scenarios.
type RunID string

// ScenarioID identifies a single scenario execution within a run.
type ScenarioID string

// NewRunID generates a new unique RunID.
func NewRunID() RunID {
	return RunID(uuid.NewString())
}

// NewScenarioID generates a new unique ScenarioID.
func NewScenarioID() ScenarioID {
	return ScenarioID(uuid.NewString())
}

// String returns the string representation of RunID.
func (r RunID) String() string {
	return string(r)
}

// String returns the string representation of ScenarioID.
func (s ScenarioID) String() string {
	return string(s)
}

// IsEmpty checks if the RunID is empty.
func (r RunID) IsEmpty() bool {
	return r == ""
}

// IsEmpty checks if the ScenarioID is empty.
func (s ScenarioID) IsEmpty() bool {
	return s == ""
}
