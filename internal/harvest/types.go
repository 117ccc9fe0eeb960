// Package harvest defines the core pipeline types shared across sources,
// the dispatcher, and the aggregator.
package harvest

import (
	"time"
)

// Candidate is one unit of enumeration: a tag, a subdirectory, or an
// ecosystem name. It is created by a Source's Enumerate step and discarded
// once its result has been merged.
type Candidate struct {
	// ID uniquely identifies the candidate within a run.
	ID string
	// Group identifies the enumeration batch the candidate belongs to
	// (a tag name, a directory name, an ecosystem name).
	Group string
	// Locator is the resource path or address to fetch.
	Locator string
	// Ordinal is the candidate's position in enumeration order. The
	// aggregator uses it as the deterministic collision tiebreaker.
	Ordinal int
}

// Blob is one successfully retrieved raw resource for a candidate.
type Blob struct {
	CandidateID string
	RawText     string
	// SourceURL is the machine-fetchable location the text came from.
	SourceURL string
	// HumanURL is a browsable reference carried through to output entries.
	HumanURL string
}

// Entry is one discovered fact: a hash, an address, or similar.
type Entry struct {
	Key         string
	Value       string
	URL         string
	Description string
}

// Entries maps output keys to entries. Insertion order is irrelevant; the
// final aggregate is always emitted sorted by key.
type Entries map[string]Entry

// Status is the terminal (or in-flight) state of one candidate pipeline.
type Status string

// Candidate pipeline states. Only Extracted contributes entries.
const (
	StatusPending       Status = "pending"
	StatusFetching      Status = "fetching"
	StatusFetched       Status = "fetched"
	StatusAbsent        Status = "absent"
	StatusFetchFailed   Status = "fetch_failed"
	StatusExtracting    Status = "extracting"
	StatusExtracted     Status = "extracted"
	StatusExtractFailed Status = "extract_failed"
)

// Terminal reports whether s is a terminal candidate state.
func (s Status) Terminal() bool {
	switch s {
	case StatusAbsent, StatusFetchFailed, StatusExtracted, StatusExtractFailed:
		return true
	default:
		return false
	}
}

// CandidateResult is the dispatcher's per-candidate terminal record.
type CandidateResult struct {
	Candidate Candidate
	Status    Status
	Entries   Entries
	Err       error
	Duration  time.Duration
}

// RunStats summarizes a run for logs, the run store, and notifications.
type RunStats struct {
	Candidates int `json:"candidates"`
	Extracted  int `json:"extracted"`
	Absent     int `json:"absent"`
	Failed     int `json:"failed"`
	Entries    int `json:"entries"`
}

// Outcome is the single artifact of one pipeline run.
type Outcome struct {
	// Source describes where the entries came from, e.g.
	// "matter-labs/zksync-airbender/tools/verifier".
	Source    string
	FetchedAt time.Time
	Items     Entries
	Stats     RunStats
}
