package config_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zksync-wtf/harvester/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(viper.New())
	require.NoError(t, err)

	assert.False(t, cfg.Logging.Development)
	assert.Equal(t, "https://api.github.com", cfg.GitHub.APIBase)
	assert.Equal(t, "https://raw.githubusercontent.com", cfg.GitHub.RawBase)
	assert.Equal(t, 30*time.Second, cfg.GitHub.Timeout)
	assert.Equal(t, 100, cfg.GitHub.PageSize)
	assert.Equal(t, 16, cfg.Harvest.Parallel)
	assert.Equal(t, "local", cfg.Sink.Provider)
	assert.Equal(t, "noop", cfg.Store.Provider)
	assert.Equal(t, "harvest_runs", cfg.Store.Table)
	assert.Equal(t, "noop", cfg.Publisher.Provider)
	assert.Equal(t, "harvest-outcomes", cfg.Publisher.Topic)
	assert.Equal(t, 30*time.Second, cfg.Chains.Timeout)
	assert.Empty(t, cfg.Metrics.Addr)
}

func TestLoadOverrides(t *testing.T) {
	t.Parallel()

	v := viper.New()
	v.Set("logging.development", true)
	v.Set("github.token", "tkn")
	v.Set("harvest.parallel", 4)
	v.Set("sink.provider", "memory")
	v.Set("metrics.addr", ":9090")
	v.Set("chains.ecosystems", []map[string]any{
		{"name": "local", "rpc": "http://localhost:8545", "bridgehub": "0x1"},
	})

	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, "tkn", cfg.GitHub.Token)
	assert.Equal(t, 4, cfg.Harvest.Parallel)
	assert.Equal(t, "memory", cfg.Sink.Provider)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	require.Len(t, cfg.Chains.Ecosystems, 1)
	assert.Equal(t, "local", cfg.Chains.Ecosystems[0].Name)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	cases := map[string]map[string]any{
		"ZeroParallel":          {"harvest.parallel": 0},
		"ZeroPageSize":          {"github.page_size": 0},
		"UnknownSink":           {"sink.provider": "ftp"},
		"GCSWithoutBucket":      {"sink.provider": "gcs"},
		"UnknownStore":          {"store.provider": "mysql"},
		"PostgresWithoutDSN":    {"store.provider": "postgres"},
		"UnknownPublisher":      {"publisher.provider": "kafka"},
		"PubsubWithoutProject":  {"publisher.provider": "pubsub"},
		"EcosystemMissingField": {"chains.ecosystems": []map[string]any{{"name": "x"}}},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			v := viper.New()
			for key, value := range overrides {
				v.Set(key, value)
			}
			_, err := config.Load(v)
			assert.Error(t, err)
		})
	}
}

func TestValidateAcceptsConfiguredProviders(t *testing.T) {
	t.Parallel()

	v := viper.New()
	v.Set("sink.provider", "gcs")
	v.Set("sink.bucket", "artifacts")
	v.Set("store.provider", "postgres")
	v.Set("store.dsn", "postgres://localhost/harvester")
	v.Set("publisher.provider", "pubsub")
	v.Set("publisher.project_id", "proj")

	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, "artifacts", cfg.Sink.Bucket)
	assert.Equal(t, "postgres://localhost/harvester", cfg.Store.DSN)
	assert.Equal(t, "proj", cfg.Publisher.ProjectID)
}
