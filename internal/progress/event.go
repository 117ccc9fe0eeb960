package progress

import (
	"errors"
	"fmt"
	"time"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart      Stage = "RUN_START"
	StageEnumerated    Stage = "ENUMERATED"
	StageCandidateDone Stage = "CANDIDATE_DONE"
	StageRunDone       Stage = "RUN_DONE"
	StageRunError      Stage = "RUN_ERROR"
)

// Event captures a single milestone of harvest progress.
type Event struct {
	// RunID uniquely identifies one pipeline run.
	RunID string
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which lifecycle milestone occurred.
	Stage Stage
	// Source is the descriptor of the source being harvested.
	Source string
	// Candidate scopes candidate events to one candidate ID.
	Candidate string
	// Status is the candidate's terminal status for CANDIDATE_DONE events.
	Status string
	// Candidates carries the enumerated count for ENUMERATED events.
	Candidates int
	// Entries carries contributed entry counts.
	Entries int
	// Dur captures execution latency for candidate and run completions.
	Dur time.Duration
	// Note lets emitters attach low-volume debug context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == "" {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageEnumerated, StageRunDone, StageRunError:
	case StageCandidateDone:
		if e.Candidate == "" {
			return errors.New("candidate done requires candidate")
		}
		if e.Status == "" {
			return errors.New("candidate done requires status")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}
