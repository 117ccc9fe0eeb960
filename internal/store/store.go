// Package store persists run history records.
package store

import (
	"context"
	"time"
)

// RunRecord summarizes one completed (or failed) harvest run.
type RunRecord struct {
	ID         string
	Source     string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Candidates int
	Extracted  int
	Absent     int
	Failed     int
	Entries    int
	OutputURI  string
	Error      string
}

// Provider records run history.
type Provider interface {
	RecordRun(ctx context.Context, record RunRecord) error
	Close()
}

// Noop discards run records.
type Noop struct{}

// RecordRun implements Provider; it performs no action.
func (Noop) RecordRun(context.Context, RunRecord) error {
	return nil
}

// Close implements Provider; it performs no action.
func (Noop) Close() {}
