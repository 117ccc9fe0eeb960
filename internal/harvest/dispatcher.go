package harvest

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Dispatcher fans candidates out to a fixed-size worker pool and classifies
// each candidate's terminal state. Per-candidate failures are isolated: they
// are logged and excluded, never aborting sibling candidates or the run.
type Dispatcher struct {
	source Source
	limit  int
	logger *zap.Logger
}

// NewDispatcher creates a Dispatcher with at most limit harvests in flight.
// A limit below 1 is raised to 1.
func NewDispatcher(source Source, limit int, logger *zap.Logger) *Dispatcher {
	if limit < 1 {
		limit = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		source: source,
		limit:  limit,
		logger: logger,
	}
}

// Run processes every candidate and streams each terminal CandidateResult to
// the observe callback as it completes (completion order is unspecified).
// It returns once all candidates have reached a terminal state. A canceled
// context marks remaining candidates failed and stops workers promptly.
func (d *Dispatcher) Run(ctx context.Context, candidates []Candidate, observe func(CandidateResult)) {
	if len(candidates) == 0 {
		return
	}

	in := make(chan Candidate)
	out := make(chan CandidateResult)

	workers := d.limit
	if workers > len(candidates) {
		workers = len(candidates)
	}

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range in {
				out <- d.processOne(ctx, c)
			}
		}()
	}

	go func() {
		defer close(in)
		for _, c := range candidates {
			select {
			case in <- c:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	delivered := 0
	for res := range out {
		delivered++
		if observe != nil {
			observe(res)
		}
	}

	// Candidates never handed to a worker (canceled run) still need a
	// terminal record.
	for _, c := range candidates[delivered:] {
		res := CandidateResult{
			Candidate: c,
			Status:    StatusFetchFailed,
			Err:       ctx.Err(),
		}
		d.logger.Warn("candidate canceled",
			zap.String("candidate", c.ID),
			zap.Error(ctx.Err()),
		)
		if observe != nil {
			observe(res)
		}
	}
}

func (d *Dispatcher) processOne(ctx context.Context, c Candidate) CandidateResult {
	start := time.Now()
	entries, err := d.source.Harvest(ctx, c)
	res := CandidateResult{
		Candidate: c,
		Entries:   entries,
		Err:       err,
		Duration:  time.Since(start),
	}

	var fetchErr *FetchError
	var extractErr *ExtractError
	switch {
	case err == nil:
		res.Status = StatusExtracted
	case errors.Is(err, ErrAbsent):
		res.Status = StatusAbsent
		res.Entries = nil
		d.logger.Info("candidate absent", zap.String("candidate", c.ID))
	case errors.As(err, &extractErr):
		res.Status = StatusExtractFailed
		res.Entries = nil
		d.logger.Warn("candidate extract failed",
			zap.String("candidate", c.ID),
			zap.Error(err),
		)
	case errors.As(err, &fetchErr):
		res.Status = StatusFetchFailed
		res.Entries = nil
		d.logger.Warn("candidate fetch failed",
			zap.String("candidate", c.ID),
			zap.Error(err),
		)
	default:
		// Unclassified errors count as fetch failures.
		res.Status = StatusFetchFailed
		res.Entries = nil
		d.logger.Warn("candidate failed",
			zap.String("candidate", c.ID),
			zap.Error(err),
		)
	}
	return res
}
