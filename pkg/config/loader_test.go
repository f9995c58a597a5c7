package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/autodispatchai/platform/pkg/config"
)

type serverConfig struct {
	Addr    string        `env:"TEST_SERVER_ADDR" envDefault:":9090"`
	Timeout time.Duration `env:"TEST_SERVER_TIMEOUT" envDefault:"15s"`
}

type requiredConfig struct {
	Token string `env:"TEST_REQUIRED_TOKEN,required"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		var cfg serverConfig
		require.NoError(t, config.Load(&cfg))
		require.Equal(t, ":9090", cfg.Addr)
		require.Equal(t, 15*time.Second, cfg.Timeout)
	})

	t.Run("cached between calls", func(t *testing.T) {
		var first serverConfig
		require.NoError(t, config.Load(&first))

		// Changing the environment after the first load must not leak
		// into later loads of the same type.
		t.Setenv("TEST_SERVER_ADDR", ":1234")

		var second serverConfig
		require.NoError(t, config.Load(&second))
		require.Equal(t, first.Addr, second.Addr)
	})

	t.Run("nil pointer", func(t *testing.T) {
		var cfg *serverConfig
		err := config.Load(cfg)
		require.ErrorIs(t, err, config.ErrNilPointer)
	})

	t.Run("missing required variable", func(t *testing.T) {
		var cfg requiredConfig
		err := config.Load(&cfg)
		require.ErrorIs(t, err, config.ErrParsingConfig)
	})
}
