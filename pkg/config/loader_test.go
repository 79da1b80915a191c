package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rockethooks/rockethooks-app-sub001/pkg/config"
)

type draftConfigDefault struct {
	Prefix  string        `env:"TEST_DRAFT_PREFIX_DEFAULT" envDefault:"onboarding_draft_"`
	TTL     time.Duration `env:"TEST_DRAFT_TTL_DEFAULT" envDefault:"168h"`
	Enabled bool          `env:"TEST_DRAFT_ENABLED_DEFAULT" envDefault:"true"`
}

type draftConfigSuccess struct {
	Prefix string        `env:"TEST_DRAFT_PREFIX_SUCCESS" envDefault:"onboarding_draft_"`
	TTL    time.Duration `env:"TEST_DRAFT_TTL_SUCCESS" envDefault:"168h"`
}

type draftConfigSingleton struct {
	Version string `env:"TEST_DRAFT_VERSION_SINGLETON" envDefault:"1.0.0"`
}

type prefixedConfig struct {
	URL string `env:"URL" envDefault:"redis://localhost:6379/0"`
}

type requiredConfig struct {
	Required string `env:"TEST_REQUIRED_VALUE,required"`
}

type envFileConfig struct {
	Storage  string        `env:"TEST_ONBOARDING_STORAGE"`
	Debounce time.Duration `env:"TEST_ONBOARDING_DEBOUNCE"`
	Steps    []string      `env:"TEST_ONBOARDING_STEPS" envSeparator:","`
}

func TestLoad_Success(t *testing.T) {
	t.Setenv("TEST_DRAFT_PREFIX_SUCCESS", "acme_")
	t.Setenv("TEST_DRAFT_TTL_SUCCESS", "24h")

	var cfg draftConfigSuccess
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "acme_", cfg.Prefix)
	assert.Equal(t, 24*time.Hour, cfg.TTL)
}

func TestLoad_DefaultValues(t *testing.T) {
	os.Unsetenv("TEST_DRAFT_PREFIX_DEFAULT")
	os.Unsetenv("TEST_DRAFT_TTL_DEFAULT")
	os.Unsetenv("TEST_DRAFT_ENABLED_DEFAULT")

	var cfg draftConfigDefault
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "onboarding_draft_", cfg.Prefix)
	assert.Equal(t, 7*24*time.Hour, cfg.TTL)
	assert.True(t, cfg.Enabled)
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("TEST_REQUIRED_VALUE")

	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)

	t.Setenv("TEST_REQUIRED_VALUE", "now-set")
	require.NoError(t, config.Load(&cfg), "failed loads are not cached")
	assert.Equal(t, "now-set", cfg.Required)
}

func TestLoad_Singleton(t *testing.T) {
	t.Setenv("TEST_DRAFT_VERSION_SINGLETON", "1.0.0")

	var first draftConfigSingleton
	require.NoError(t, config.Load(&first))

	t.Setenv("TEST_DRAFT_VERSION_SINGLETON", "2.0.0")

	var second draftConfigSingleton
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "1.0.0", second.Version)

	config.ResetCache()
	var third draftConfigSingleton
	require.NoError(t, config.Load(&third))
	assert.Equal(t, "2.0.0", third.Version)
}

func TestLoad_Prefix(t *testing.T) {
	t.Setenv("TEST_SESSION_URL", "redis://cache:6379/1")

	var plain, prefixed prefixedConfig
	require.NoError(t, config.Load(&prefixed, config.WithPrefix("TEST_SESSION_")))
	require.NoError(t, config.Load(&plain))

	assert.Equal(t, "redis://cache:6379/1", prefixed.URL)
	assert.Equal(t, "redis://localhost:6379/0", plain.URL)
}

func TestLoad_ExplicitEnvironment(t *testing.T) {
	var cfg draftConfigSuccess
	err := config.Load(&cfg, config.WithEnvironment(map[string]string{
		"TEST_DRAFT_PREFIX_SUCCESS": "from_map_",
	}))
	require.NoError(t, err)
	assert.Equal(t, "from_map_", cfg.Prefix)
}

func TestLoadEnv(t *testing.T) {
	os.Unsetenv("TEST_ONBOARDING_STORAGE")
	os.Unsetenv("TEST_ONBOARDING_DEBOUNCE")
	os.Unsetenv("TEST_ONBOARDING_STEPS")
	t.Cleanup(func() {
		os.Unsetenv("TEST_ONBOARDING_STORAGE")
		os.Unsetenv("TEST_ONBOARDING_DEBOUNCE")
		os.Unsetenv("TEST_ONBOARDING_STEPS")
	})

	require.NoError(t, config.LoadEnv("testdata/.env.onboarding"))

	var cfg envFileConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "sqlite", cfg.Storage)
	assert.Equal(t, 250*time.Millisecond, cfg.Debounce)
	assert.Equal(t, []string{"organization", "profile", "preferences"}, cfg.Steps)

	err := config.LoadEnv("testdata/missing.env")
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *draftConfigSuccess
	err := config.Load(cfg)
	assert.ErrorIs(t, err, config.ErrNilPointer)

	assert.Panics(t, func() { config.MustLoad(cfg) })
}
