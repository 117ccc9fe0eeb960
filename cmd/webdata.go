package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zksync-wtf/harvester/internal/webdata"
)

// newWebdataCmd creates the 'webdata' subcommand, which converts a
// chain-listing CSV into webpage records.
func newWebdataCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "webdata <csv>",
		Short: "Converts a chain-listing CSV into webpage records",
		Long: `Reads a chain-listing CSV, keeps the rows marked live, and emits one
record per chain id and per explorer, portal, and RPC URL, sorted and
deduplicated.`,
		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			logger := appInstance.GetLogger()

			records, err := webdata.ConvertCSV(args[0], logger)
			if err != nil {
				return fmt.Errorf("convert csv: %w", err)
			}

			data, err := webdata.Encode(records)
			if err != nil {
				return fmt.Errorf("encode dataset: %w", err)
			}

			uri, err := appInstance.GetSink().Put(cmd.Context(), outFile, "application/json", data)
			if err != nil {
				return fmt.Errorf("write dataset: %w", err)
			}

			logger.Info("CSV conversion finished",
				zap.String("output", uri),
				zap.Int("records", len(records)),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&outFile, "out", "zksync_wtf_data_from_csv.json", "output dataset file")

	return cmd
}
