package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:    AppConfig{Environment: "development"},
			Logger: LoggerConfig{Level: "info"},
			Catalog: CatalogConfig{
				BaseURL: "https://api.example.com",
			},
			Player: PlayerConfig{
				CheckpointInterval: 5 * time.Second,
				AllowedRates:       defaultRates,
			},
		}
	}

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, base().Validate())
	})

	t.Run("bad environment", func(t *testing.T) {
		cfg := base()
		cfg.App.Environment = "local"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := base()
		cfg.Logger.Level = "verbose"
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing catalog url", func(t *testing.T) {
		cfg := base()
		cfg.Catalog.BaseURL = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero checkpoint interval", func(t *testing.T) {
		cfg := base()
		cfg.Player.CheckpointInterval = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("empty rate set", func(t *testing.T) {
		cfg := base()
		cfg.Player.AllowedRates = nil
		assert.Error(t, cfg.Validate())
	})
}

func TestRateAllowed(t *testing.T) {
	p := PlayerConfig{AllowedRates: []float64{0.5, 1.0, 1.5, 2.0}}

	assert.True(t, p.RateAllowed(1.0))
	assert.True(t, p.RateAllowed(2.0))
	assert.False(t, p.RateAllowed(1.1))
	assert.False(t, p.RateAllowed(3.0))
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("TEST_CFG_KEY", "from-env")

	assert.Equal(t, "from-flag", getConfigValue("from-flag", "TEST_CFG_KEY", "default"))
	assert.Equal(t, "from-env", getConfigValue("", "TEST_CFG_KEY", "default"))
	assert.Equal(t, "default", getConfigValue("", "TEST_CFG_MISSING", "default"))
}

func TestGetBoolConfigValue(t *testing.T) {
	t.Setenv("TEST_BOOL_TRUE", "yes")
	t.Setenv("TEST_BOOL_FALSE", "nope")

	assert.True(t, getBoolConfigValue("", "TEST_BOOL_TRUE", false))
	assert.False(t, getBoolConfigValue("", "TEST_BOOL_FALSE", true))
	assert.True(t, getBoolConfigValue("", "TEST_BOOL_UNSET", true))
}

func TestGetFloatConfigValue(t *testing.T) {
	t.Setenv("TEST_FLOAT", "2.5")
	t.Setenv("TEST_FLOAT_BAD", "abc")

	assert.Equal(t, 2.5, getFloatConfigValue("", "TEST_FLOAT", 1))
	assert.Equal(t, 1.0, getFloatConfigValue("", "TEST_FLOAT_BAD", 1))
	assert.Equal(t, 1.0, getFloatConfigValue("", "TEST_FLOAT_UNSET", 1))
}

func TestParseDurationValue(t *testing.T) {
	d, err := parseDurationValue("", "TEST_DUR_UNSET", "15s")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, d)

	t.Setenv("TEST_DUR_BAD", "banana")
	_, err = parseDurationValue("", "TEST_DUR_BAD", "15s")
	assert.Error(t, err)
}

func TestExpandDataPath(t *testing.T) {
	t.Run("empty stays empty", func(t *testing.T) {
		cfg := &Config{}
		require.NoError(t, cfg.expandDataPath())
		assert.Empty(t, cfg.Storage.DataPath)
	})

	t.Run("relative becomes absolute", func(t *testing.T) {
		cfg := &Config{Storage: StorageConfig{DataPath: "data"}}
		require.NoError(t, cfg.expandDataPath())
		assert.True(t, len(cfg.Storage.DataPath) > 0 && cfg.Storage.DataPath[0] == '/')
	})
}
