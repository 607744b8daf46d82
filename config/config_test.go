package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"tictactoe/agent"
	"tictactoe/learner"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 0.1, cfg.LearningRate)
	require.Equal(t, 0.8, cfg.Discount)
	require.Equal(t, 0.1, cfg.Exploration)
	require.Equal(t, 0.5, cfg.DrawReward)
	require.Equal(t, agent.RandomKind, cfg.TrainerKind())
	require.Equal(t, learner.Params{LearningRate: 0.1, Discount: 0.8, Exploration: 0.1}, cfg.LearnerParams())
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(viper.New())
		require.NoError(t, err)
		require.Equal(t, Default(), cfg)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("TICTACTOE_EPISODES", "50")
		t.Setenv("TICTACTOE_TRAINER", "perfect")
		t.Setenv("TICTACTOE_SEED", "42")

		cfg, err := Load(viper.New())
		require.NoError(t, err)
		require.Equal(t, 50, cfg.Episodes)
		require.Equal(t, agent.PerfectKind, cfg.TrainerKind())
		require.Equal(t, uint64(42), cfg.Seed)
	})

	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tictactoe.yaml")
		content := "store_kind: badger\nstore_path: table.db\nlearning_rate: 0.5\nworkers: 2\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		v := viper.New()
		v.Set("config", path)
		cfg, err := Load(v)
		require.NoError(t, err)
		require.Equal(t, "badger", cfg.StoreKind)
		require.Equal(t, "table.db", cfg.StorePath)
		require.Equal(t, 0.5, cfg.LearningRate)
		require.Equal(t, 2, cfg.Workers)
		require.Equal(t, 0.8, cfg.Discount, "Unset keys keep their defaults")
	})

	t.Run("missing file", func(t *testing.T) {
		v := viper.New()
		v.Set("config", filepath.Join(t.TempDir(), "absent.yaml"))
		_, err := Load(v)
		require.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		v := viper.New()
		v.Set("exploration", 1.5)
		_, err := Load(v)
		require.ErrorIs(t, err, ErrInvalid)
	})
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"store kind":    func(c *Config) { c.StoreKind = "sqlite" },
		"store path":    func(c *Config) { c.StorePath = "" },
		"learning rate": func(c *Config) { c.LearningRate = -0.1 },
		"discount":      func(c *Config) { c.Discount = -0.1 },
		"trainer":       func(c *Config) { c.Trainer = "grandmaster" },
		"episodes":      func(c *Config) { c.Episodes = -1 },
		"eval games":    func(c *Config) { c.EvalGames = 0 },
		"workers":       func(c *Config) { c.Workers = 0 },
		"log level":     func(c *Config) { c.LogLevel = "loud" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}

	t.Run("bounds are inclusive", func(t *testing.T) {
		cfg := Default()
		cfg.LearningRate = 0
		cfg.Discount = 0
		cfg.Exploration = 0
		require.NoError(t, cfg.Validate(), "A frozen learner is a valid setting")

		cfg.LearningRate = 1
		cfg.Discount = 1
		cfg.Exploration = 1
		require.NoError(t, cfg.Validate())
	})
}
