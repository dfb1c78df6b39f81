// Package job owns the generation job: its status state machine, the
// strategy ladder that produces files, and the orchestrator that runs
// a job end to end.
package job

import "fmt"

// Status is a job's lifecycle state.
type Status string

const (
	StatusPending               Status = "pending"
	StatusRunning               Status = "running"
	StatusCompleted             Status = "completed"
	StatusCompletedWithWarnings Status = "completed_with_warnings"
	StatusFailed                Status = "failed"
)

// validTransitions is the whole state machine. Terminal states have
// no outgoing edges and are therefore absorbing.
//
//nolint:gochecknoglobals // Fixed transition table.
var validTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusRunning: true,
		StatusFailed:  true,
	},
	StatusRunning: {
		StatusCompleted:             true,
		StatusCompletedWithWarnings: true,
		StatusFailed:                true,
	},
	StatusCompleted:             {},
	StatusCompletedWithWarnings: {},
	StatusFailed:                {},
}

// Terminal reports whether s is an absorbing state.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCompletedWithWarnings, StatusFailed:
		return true
	default:
		return false
	}
}

// CanTransition reports whether s may move to next.
func (s Status) CanTransition(next Status) bool {
	allowed, ok := validTransitions[s]
	return ok && allowed[next]
}

// Transition validates and returns the next status. On an invalid
// transition the current status is returned unchanged with an error.
func (s Status) Transition(next Status) (Status, error) {
	if !s.CanTransition(next) {
		return s, fmt.Errorf("invalid job status transition %s -> %s", s, next)
	}
	return next, nil
}
