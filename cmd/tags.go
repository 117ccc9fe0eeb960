package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zksync-wtf/harvester/internal/source/tags"
)

// newTagsCmd creates the 'tags' subcommand, which harvests verifier hashes
// from the JSON files shipped under a subpath of every release tag.
func newTagsCmd() *cobra.Command {
	var (
		owner   string
		repo    string
		subpath string
		prefix  string
		maxTags int
		outFile string
	)

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Harvests verifier hashes from release tags",
		Long: `Enumerates the release tags of a repository, fetches the JSON files
under a fixed subpath of each tag, and extracts their bytecode and
verification-params hashes into a sorted index file.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			cfg := appInstance.GetConfig()

			source := tags.New(newGitHubClient(cfg.GitHub), tags.Config{
				Owner:    owner,
				Repo:     repo,
				Subpath:  subpath,
				Prefix:   prefix,
				MaxTags:  maxTags,
				PageSize: cfg.GitHub.PageSize,
			}, appInstance.GetLogger())

			return runSource(cmd, appInstance, source, outFile)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "matter-labs", "repository owner")
	cmd.Flags().StringVar(&repo, "repo", "zksync-airbender", "repository name")
	cmd.Flags().StringVar(&subpath, "path", "tools/verifier", "subpath holding the JSON files in each tag")
	cmd.Flags().StringVar(&prefix, "prefix", "v", "keep only tags with this prefix")
	cmd.Flags().IntVar(&maxTags, "max-tags", 0, "cap the number of tags harvested (0 = no cap)")
	cmd.Flags().StringVar(&outFile, "out", "airbender_verifier_index.json", "output index file")

	return cmd
}
