// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	GitHub    GitHubConfig    `mapstructure:"github"`
	Harvest   HarvestConfig   `mapstructure:"harvest"`
	Sink      SinkConfig      `mapstructure:"sink"`
	Store     StoreConfig     `mapstructure:"store"`
	Publisher PublisherConfig `mapstructure:"publisher"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Chains    ChainsConfig    `mapstructure:"chains"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// GitHubConfig controls the GitHub REST collaborator.
type GitHubConfig struct {
	APIBase   string        `mapstructure:"api_base"`
	RawBase   string        `mapstructure:"raw_base"`
	Token     string        `mapstructure:"token"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
	PageSize  int           `mapstructure:"page_size"`
}

// HarvestConfig governs pipeline behavior.
type HarvestConfig struct {
	Parallel int `mapstructure:"parallel"`
}

// SinkConfig selects where index artifacts are written.
type SinkConfig struct {
	Provider string `mapstructure:"provider"`
	Bucket   string `mapstructure:"bucket"`
	BaseDir  string `mapstructure:"base_dir"`
}

// StoreConfig selects the run history store.
type StoreConfig struct {
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
}

// PublisherConfig selects the outcome notification channel.
type PublisherConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// MetricsConfig controls the optional debug listener.
type MetricsConfig struct {
	// Addr enables the listener when non-empty, e.g. ":9090".
	Addr string `mapstructure:"addr"`
}

// EcosystemConfig is one bridgehub deployment for the chains source.
type EcosystemConfig struct {
	Name      string `mapstructure:"name"`
	RPC       string `mapstructure:"rpc"`
	Bridgehub string `mapstructure:"bridgehub"`
}

// ChainsConfig controls the on-chain source.
type ChainsConfig struct {
	// Mapping is the path of a previously harvested chains index used for
	// id-to-name display; optional.
	Mapping    string            `mapstructure:"mapping"`
	Timeout    time.Duration     `mapstructure:"timeout"`
	Ecosystems []EcosystemConfig `mapstructure:"ecosystems"`
}

// Load builds a Config from the given Viper instance, applying defaults and
// validating the result.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", false)
	v.SetDefault("github.api_base", "https://api.github.com")
	v.SetDefault("github.raw_base", "https://raw.githubusercontent.com")
	v.SetDefault("github.user_agent", "zksync-wtf-harvester (+https://github.com/zksync-wtf/harvester)")
	v.SetDefault("github.timeout", "30s")
	v.SetDefault("github.page_size", 100)
	v.SetDefault("harvest.parallel", 16)
	v.SetDefault("sink.provider", "local")
	v.SetDefault("store.provider", "noop")
	v.SetDefault("store.table", "harvest_runs")
	v.SetDefault("publisher.provider", "noop")
	v.SetDefault("publisher.topic", "harvest-outcomes")
	v.SetDefault("chains.timeout", "30s")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Harvest.Parallel < 1 {
		return fmt.Errorf("harvest.parallel must be >= 1")
	}
	if c.GitHub.PageSize < 1 {
		return fmt.Errorf("github.page_size must be >= 1")
	}
	switch c.Sink.Provider {
	case "local", "memory":
	case "gcs":
		if c.Sink.Bucket == "" {
			return fmt.Errorf("sink.bucket must be set when sink.provider is 'gcs'")
		}
	default:
		return fmt.Errorf("unknown sink provider: %s", c.Sink.Provider)
	}
	switch c.Store.Provider {
	case "noop":
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn must be set when store.provider is 'postgres'")
		}
	default:
		return fmt.Errorf("unknown store provider: %s", c.Store.Provider)
	}
	switch c.Publisher.Provider {
	case "noop", "memory":
	case "pubsub":
		if c.Publisher.ProjectID == "" || c.Publisher.Topic == "" {
			return fmt.Errorf("publisher.project_id and publisher.topic must be set when publisher.provider is 'pubsub'")
		}
	default:
		return fmt.Errorf("unknown publisher provider: %s", c.Publisher.Provider)
	}
	for _, eco := range c.Chains.Ecosystems {
		if eco.Name == "" || eco.RPC == "" || eco.Bridgehub == "" {
			return fmt.Errorf("chains.ecosystems entries require name, rpc, and bridgehub")
		}
	}
	return nil
}
