package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zksync-wtf/harvester/internal/source/dirs"
)

// newDirsCmd creates the 'dirs' subcommand, which harvests versioned hashes
// from the per-version directories of a repository path.
func newDirsCmd() *cobra.Command {
	var (
		owner     string
		repo      string
		basePath  string
		branch    string
		indexFile string
		prefix    string
		maxDirs   int
		outFile   string
	)

	cmd := &cobra.Command{
		Use:   "dirs",
		Short: "Harvests hashes from versioned repository directories",
		Long: `Lists the subdirectories of a repository path at a fixed branch, fetches
the commitments file each one carries, and extracts the hash values whose
keys match the directory's version name.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			cfg := appInstance.GetConfig()

			source := dirs.New(newGitHubClient(cfg.GitHub), dirs.Config{
				Owner:     owner,
				Repo:      repo,
				BasePath:  basePath,
				Branch:    branch,
				IndexFile: indexFile,
				Prefix:    prefix,
				Max:       maxDirs,
			}, appInstance.GetLogger())

			return runSource(cmd, appInstance, source, outFile)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "matter-labs", "repository owner")
	cmd.Flags().StringVar(&repo, "repo", "zksync-era", "repository name")
	cmd.Flags().StringVar(&basePath, "path", "prover/data/historical_data", "base path listing the version directories")
	cmd.Flags().StringVar(&branch, "branch", "main", "branch to read from")
	cmd.Flags().StringVar(&indexFile, "index-file", dirs.DefaultIndexFile, "file expected inside each version directory")
	cmd.Flags().StringVar(&prefix, "prefix", "", "keep only directories with this prefix")
	cmd.Flags().IntVar(&maxDirs, "max", 0, "cap the number of directories harvested (0 = no cap)")
	cmd.Flags().StringVar(&outFile, "out", "commitments.json", "output index file")

	return cmd
}
