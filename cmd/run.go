// Package cmd defines and implements the CLI commands for the harvester
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zksync-wtf/harvester/internal/clock/system"
	"github.com/zksync-wtf/harvester/internal/config"
	"github.com/zksync-wtf/harvester/internal/github"
	"github.com/zksync-wtf/harvester/internal/harvest"
	"github.com/zksync-wtf/harvester/internal/id/uuid"
	"github.com/zksync-wtf/harvester/internal/index"
	"github.com/zksync-wtf/harvester/internal/progress"
	"github.com/zksync-wtf/harvester/internal/progress/sinks"
	"github.com/zksync-wtf/harvester/internal/store"
)

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

func newGitHubClient(cfg config.GitHubConfig) *github.Client {
	return github.NewClient(github.Config{
		APIBase:   cfg.APIBase,
		RawBase:   cfg.RawBase,
		Token:     cfg.Token,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
	})
}

// runSummary is the payload published after a completed run.
type runSummary struct {
	RunID     string           `json:"run_id"`
	Source    string           `json:"source"`
	FetchedAt time.Time        `json:"fetched_at"`
	OutputURI string           `json:"output_uri"`
	Stats     harvest.RunStats `json:"stats"`
}

// runSource executes the full harvest pipeline for one source and writes
// the resulting index document to outFile through the configured sink.
func runSource(cmd *cobra.Command, appInstance App, source harvest.Source, outFile string) error {
	ctx := cmd.Context()
	cfg := appInstance.GetConfig()
	logger := appInstance.GetLogger()
	clk := system.New()

	promSink, err := sinks.NewPrometheusSink(appInstance.GetRegistry())
	if err != nil {
		return fmt.Errorf("register progress metrics: %w", err)
	}
	hub := progress.NewHub(progress.Config{Logger: logger}, sinks.NewLogSink(logger), promSink)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if cerr := hub.Close(closeCtx); cerr != nil {
			logger.Warn("Failed to drain progress hub", zap.Error(cerr))
		}
	}()

	runID, err := uuid.New().NewID()
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}

	runner := harvest.NewRunner(source, harvest.RunnerConfig{
		RunID:    runID,
		Parallel: cfg.Harvest.Parallel,
	}, logger, hub, clk)

	startedAt := clk.Now()
	outcome, runErr := runner.Run(ctx)
	finishedAt := clk.Now()

	if runErr != nil {
		record := store.RunRecord{
			ID:         runID,
			Source:     source.Describe(),
			StartedAt:  startedAt,
			FinishedAt: finishedAt,
			Status:     "failed",
			Error:      runErr.Error(),
		}
		if serr := appInstance.GetStore().RecordRun(ctx, record); serr != nil {
			logger.Warn("Failed to record run", zap.Error(serr))
		}
		return fmt.Errorf("harvest %s: %w", source.Describe(), runErr)
	}

	doc := index.From(outcome)
	data, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}

	uri, err := appInstance.GetSink().Put(ctx, outFile, "application/json", data)
	if err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	record := store.RunRecord{
		ID:         runID,
		Source:     outcome.Source,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Status:     "succeeded",
		Candidates: outcome.Stats.Candidates,
		Extracted:  outcome.Stats.Extracted,
		Absent:     outcome.Stats.Absent,
		Failed:     outcome.Stats.Failed,
		Entries:    outcome.Stats.Entries,
		OutputURI:  uri,
	}
	if err := appInstance.GetStore().RecordRun(ctx, record); err != nil {
		logger.Warn("Failed to record run", zap.Error(err))
	}

	summary := runSummary{
		RunID:     runID,
		Source:    outcome.Source,
		FetchedAt: outcome.FetchedAt,
		OutputURI: uri,
		Stats:     outcome.Stats,
	}
	if _, err := appInstance.GetPublisher().Publish(ctx, cfg.Publisher.Topic, summary); err != nil {
		logger.Warn("Failed to publish run summary", zap.Error(err))
	}

	logger.Info("Harvest finished",
		zap.String("run_id", runID),
		zap.String("source", outcome.Source),
		zap.String("output", uri),
		zap.Int("candidates", outcome.Stats.Candidates),
		zap.Int("extracted", outcome.Stats.Extracted),
		zap.Int("absent", outcome.Stats.Absent),
		zap.Int("failed", outcome.Stats.Failed),
		zap.Int("entries", outcome.Stats.Entries),
	)
	return nil
}
