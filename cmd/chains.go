package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zksync-wtf/harvester/internal/source/chain"
)

// newChainsCmd creates the 'chains' subcommand, which harvests contract
// addresses from the bridgehub registry of each configured ecosystem.
func newChainsCmd() *cobra.Command {
	var (
		mappingFile string
		prefix      string
		maxEcos     int
		outFile     string
	)

	cmd := &cobra.Command{
		Use:   "chains",
		Short: "Harvests contract addresses from on-chain registries",
		Long: `Dials the RPC endpoint of each configured ecosystem, reads the chain
registry off its bridgehub contract, and collects the diamond proxy and
bridge contract addresses into a sorted index file.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			cfg := appInstance.GetConfig()
			logger := appInstance.GetLogger()

			ecosystems := chain.DefaultEcosystems()
			if len(cfg.Chains.Ecosystems) > 0 {
				ecosystems = ecosystems[:0]
				for _, eco := range cfg.Chains.Ecosystems {
					ecosystems = append(ecosystems, chain.Ecosystem{
						Name:      eco.Name,
						RPC:       eco.RPC,
						Bridgehub: eco.Bridgehub,
					})
				}
			}

			if mappingFile == "" {
				mappingFile = cfg.Chains.Mapping
			}
			var mapping map[string]string
			if mappingFile != "" {
				mapping, err = chain.LoadMapping(mappingFile)
				if err != nil {
					// Chain names degrade to empty strings without the
					// mapping; the run itself proceeds.
					logger.Warn("Failed to load chain name mapping",
						zap.String("path", mappingFile), zap.Error(err))
					mapping = nil
				}
			}

			source := chain.New(nil, chain.Config{
				Ecosystems: ecosystems,
				Mapping:    mapping,
				Prefix:     prefix,
				Max:        maxEcos,
				Parallel:   cfg.Harvest.Parallel,
				Timeout:    cfg.Chains.Timeout,
			}, logger)

			return runSource(cmd, appInstance, source, outFile)
		},
	}

	cmd.Flags().StringVar(&mappingFile, "mapping", "", "previously harvested chains index used for id-to-name display")
	cmd.Flags().StringVar(&prefix, "prefix", "", "keep only ecosystems with this prefix")
	cmd.Flags().IntVar(&maxEcos, "max", 0, "cap the number of ecosystems harvested (0 = no cap)")
	cmd.Flags().StringVar(&outFile, "out", "contract_addresses.json", "output index file")

	return cmd
}
