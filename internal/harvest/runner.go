package harvest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zksync-wtf/harvester/internal/clock"
	"github.com/zksync-wtf/harvester/internal/progress"
)

// RunnerConfig controls one pipeline run.
type RunnerConfig struct {
	// RunID identifies the run in progress events and records.
	RunID string
	// Parallel caps the number of candidate pipelines in flight (default 16).
	Parallel int
}

// Runner executes the full pipeline for one Source: enumerate, dispatch
// under the concurrency bound, and merge into a sorted Outcome.
type Runner struct {
	source  Source
	cfg     RunnerConfig
	logger  *zap.Logger
	emitter progress.Emitter
	clock   clock.Clock
}

// NewRunner constructs a Runner. The emitter may be nil when no progress
// stream is wanted.
func NewRunner(source Source, cfg RunnerConfig, logger *zap.Logger, emitter progress.Emitter, clk clock.Clock) *Runner {
	if cfg.Parallel < 1 {
		cfg.Parallel = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		source:  source,
		cfg:     cfg,
		logger:  logger,
		emitter: emitter,
		clock:   clk,
	}
}

// Run enumerates candidates and harvests them all, returning the merged
// Outcome. Enumeration failures are fatal; per-candidate failures are
// isolated by the dispatcher and only reduce the outcome's contents.
func (r *Runner) Run(ctx context.Context) (Outcome, error) {
	start := time.Now()
	descriptor := r.source.Describe()
	r.emit(progress.Event{Stage: progress.StageRunStart, Source: descriptor})

	candidates, err := r.source.Enumerate(ctx)
	if err != nil {
		r.emit(progress.Event{
			Stage:  progress.StageRunError,
			Source: descriptor,
			Dur:    time.Since(start),
			Note:   err.Error(),
		})
		return Outcome{}, fmt.Errorf("enumerate %s: %w", descriptor, err)
	}
	for i := range candidates {
		candidates[i].Ordinal = i
	}
	r.logger.Info("candidates enumerated",
		zap.String("source", descriptor),
		zap.Int("count", len(candidates)),
	)
	r.emit(progress.Event{
		Stage:      progress.StageEnumerated,
		Source:     descriptor,
		Candidates: len(candidates),
	})

	// Contributions funnel through a single merging goroutine; the
	// aggregator map is never shared between workers.
	agg := NewAggregator(r.logger)
	results := make(chan CandidateResult)
	mergeDone := make(chan struct{})
	go func() {
		defer close(mergeDone)
		for res := range results {
			agg.Add(res)
			r.emit(progress.Event{
				Stage:     progress.StageCandidateDone,
				Source:    descriptor,
				Candidate: res.Candidate.ID,
				Status:    string(res.Status),
				Entries:   len(res.Entries),
				Dur:       res.Duration,
			})
		}
	}()

	dispatcher := NewDispatcher(r.source, r.cfg.Parallel, r.logger)
	dispatcher.Run(ctx, candidates, func(res CandidateResult) {
		results <- res
	})
	close(results)
	<-mergeDone

	outcome := Outcome{
		Source:    descriptor,
		FetchedAt: r.now(),
		Items:     agg.Entries(),
		Stats:     agg.Stats(),
	}
	r.logger.Info("run complete",
		zap.String("source", descriptor),
		zap.Int("candidates", outcome.Stats.Candidates),
		zap.Int("extracted", outcome.Stats.Extracted),
		zap.Int("absent", outcome.Stats.Absent),
		zap.Int("failed", outcome.Stats.Failed),
		zap.Int("entries", outcome.Stats.Entries),
		zap.Duration("dur", time.Since(start)),
	)
	r.emit(progress.Event{
		Stage:   progress.StageRunDone,
		Source:  descriptor,
		Entries: outcome.Stats.Entries,
		Dur:     time.Since(start),
	})
	return outcome, nil
}

func (r *Runner) now() time.Time {
	if r.clock != nil {
		return r.clock.Now()
	}
	return time.Now().UTC()
}

func (r *Runner) emit(evt progress.Event) {
	if r.emitter == nil {
		return
	}
	evt.RunID = r.cfg.RunID
	if evt.RunID == "" {
		evt.RunID = "unidentified"
	}
	evt.TS = r.now()
	r.emitter.Emit(evt)
}
