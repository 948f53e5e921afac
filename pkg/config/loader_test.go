package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentpulse/notifykit/pkg/config"
)

type defaultsConfig struct {
	PollInterval string `env:"NOTIFYKIT_TEST_POLL" envDefault:"5s"`
	BatchSize    int    `env:"NOTIFYKIT_TEST_BATCH" envDefault:"50"`
	Debug        bool   `env:"NOTIFYKIT_TEST_DEBUG" envDefault:"false"`
}

type envConfig struct {
	Endpoint string `env:"NOTIFYKIT_TEST_ENDPOINT" envDefault:"localhost"`
}

type cachedConfig struct {
	Value string `env:"NOTIFYKIT_TEST_CACHED" envDefault:"initial"`
}

type requiredConfig struct {
	Token string `env:"NOTIFYKIT_TEST_REQUIRED_TOKEN,required"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "5s", cfg.PollInterval)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.False(t, cfg.Debug)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("NOTIFYKIT_TEST_ENDPOINT", "mongo.internal:27017")

	var cfg envConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "mongo.internal:27017", cfg.Endpoint)
}

func TestLoad_CachesPerType(t *testing.T) {
	var first cachedConfig
	require.NoError(t, config.Load(&first))
	assert.Equal(t, "initial", first.Value)

	// Environment changes after the first parse are not observed.
	t.Setenv("NOTIFYKIT_TEST_CACHED", "changed")

	var second cachedConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "initial", second.Value)
}

func TestLoad_NilPointer(t *testing.T) {
	err := config.Load[defaultsConfig](nil)
	assert.ErrorIs(t, err, config.ErrNilPointer)
}

func TestLoad_RequiredMissing(t *testing.T) {
	var cfg requiredConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestMustLoad_PanicsOnFailure(t *testing.T) {
	assert.Panics(t, func() {
		var cfg requiredConfig
		config.MustLoad(&cfg)
	})
}
