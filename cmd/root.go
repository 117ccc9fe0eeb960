package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/zksync-wtf/harvester/internal/app"
	"github.com/zksync-wtf/harvester/internal/config"
	"github.com/zksync-wtf/harvester/internal/publisher"
	"github.com/zksync-wtf/harvester/internal/sink"
	"github.com/zksync-wtf/harvester/internal/store"
)

var cfgFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands will use.
// This allows us to inject a mock app during tests.
type App interface {
	Close()
	GetConfig() config.Config
	GetLogger() *zap.Logger
	GetSink() sink.Provider
	GetStore() store.Provider
	GetPublisher() publisher.Provider
	GetRegistry() *prometheus.Registry
}

// newApp is the application factory. It's a variable so we can
// replace it with a mock factory in our tests.
var newApp func(ctx context.Context) (App, error) = func(ctx context.Context) (App, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.NewApp(ctx, cfg)
}

// initConfig wires viper to the optional config file and the environment.
func initConfig() {
	v := viper.GetViper()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("harvester")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix("HARVESTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The bare GITHUB_TOKEN fallback matches what CI environments export.
	_ = v.BindEnv("github.token", "HARVESTER_GITHUB_TOKEN", "GITHUB_TOKEN")

	if err := v.ReadInConfig(); err != nil {
		// The config file is optional; only a present-but-broken file
		// is worth surfacing.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "warning: could not read config file: %v\n", err)
		}
	}
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvester",
		Short: "Collects verifier hashes and contract addresses into index files.",
		Long: `harvester enumerates release tags, repository directories, and on-chain
registries, extracts the hash and address values they carry, and merges
everything into deterministic, sorted JSON index files.`,

		// Unknown flags are tolerated so older invocation scripts keep
		// working across flag renames.
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},

		// This hook runs AFTER config is loaded but BEFORE the subcommand's
		// RunE. This is the place to build and inject the application.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}

			// Store the app instance in the context for subcommands to use.
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		// This hook ensures services are shut down gracefully.
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cobra.OnInitialize(initConfig)

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./harvester.yaml or $HOME/harvester.yaml)")

	cmd.AddCommand(
		newTagsCmd(),
		newDirsCmd(),
		newChainsCmd(),
		newMergeCmd(),
		newWebdataCmd(),
	)

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
