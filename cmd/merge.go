package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zksync-wtf/harvester/internal/webdata"
)

// newMergeCmd creates the 'merge' subcommand, which flattens a directory of
// harvested index files into the single record array the webpage loads.
func newMergeCmd() *cobra.Command {
	var (
		outFile   string
		recursive bool
	)

	cmd := &cobra.Command{
		Use:   "merge <dir>",
		Short: "Merges harvested index files into one webpage dataset",
		Long: `Loads every JSON index file in a directory, resolves key collisions in
favor of the most recently fetched record, and writes the merged result
as a sorted array of records.`,
		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			logger := appInstance.GetLogger()

			records, err := webdata.MergeIndexes(args[0], recursive, logger)
			if err != nil {
				return fmt.Errorf("merge indexes: %w", err)
			}

			data, err := webdata.Encode(records)
			if err != nil {
				return fmt.Errorf("encode dataset: %w", err)
			}

			uri, err := appInstance.GetSink().Put(cmd.Context(), outFile, "application/json", data)
			if err != nil {
				return fmt.Errorf("write dataset: %w", err)
			}

			logger.Info("Merge finished",
				zap.String("output", uri),
				zap.Int("records", len(records)),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&outFile, "out", "zksync_wtf_data.json", "output dataset file")
	cmd.Flags().BoolVar(&recursive, "recursive", false, "recurse into subdirectories")

	return cmd
}
