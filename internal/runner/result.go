package runner

import "time"

// Verdict is the terminal outcome for one username
type Verdict int

const (
	// VerdictUnavailable means the name is taken
	VerdictUnavailable Verdict = iota
	// VerdictAvailable means the name can be claimed
	VerdictAvailable
	// VerdictError means no verdict could be reached
	VerdictError
)

func (v Verdict) String() string {
	switch v {
	case VerdictAvailable:
		return "available"
	case VerdictUnavailable:
		return "unavailable"
	default:
		return "error"
	}
}

// Result is produced exactly once per submitted username
type Result struct {
	Username string
	Verdict  Verdict
	// Status is the profile status observed on the final attempt, 0 if none
	Status   int
	Attempts int
	Err      error
	Duration time.Duration
}
