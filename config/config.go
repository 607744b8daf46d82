// Package config loads run settings from defaults, an optional YAML file,
// TICTACTOE_* environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"tictactoe/agent"
	"tictactoe/engine"
	"tictactoe/learner"
	"tictactoe/store"
)

var ErrInvalid = errors.New("config: invalid")

const EnvPrefix = "TICTACTOE"

type Config struct {
	// Persistence
	StoreKind string `mapstructure:"store_kind"`
	StorePath string `mapstructure:"store_path"`

	// Learning
	LearningRate float64 `mapstructure:"learning_rate"`
	Discount     float64 `mapstructure:"discount"`
	Exploration  float64 `mapstructure:"exploration"`
	DrawReward   float64 `mapstructure:"draw_reward"`

	// Training
	Trainer    string `mapstructure:"trainer"`
	Episodes   int    `mapstructure:"episodes"`
	CurveEvery int    `mapstructure:"curve_every"`
	Seed       uint64 `mapstructure:"seed"` // 0 seeds from the clock

	// Evaluation
	EvalGames int `mapstructure:"eval_games"`
	Workers   int `mapstructure:"workers"`

	// Output
	OutputDir string `mapstructure:"output_dir"`
	LogLevel  string `mapstructure:"log_level"`
}

// Default returns a config with the stock learning parameters.
func Default() *Config {
	return &Config{
		StoreKind:    string(store.FileKind),
		StorePath:    "qtable.csv",
		LearningRate: learner.DefaultLearningRate,
		Discount:     learner.DefaultDiscount,
		Exploration:  learner.DefaultExploration,
		DrawReward:   engine.DefaultDrawReward,
		Trainer:      string(agent.RandomKind),
		Episodes:     10000,
		CurveEvery:   0,
		EvalGames:    1000,
		Workers:      4,
		OutputDir:    "runs",
		LogLevel:     "info",
	}
}

// Load resolves the config from v. A "config" key, usually bound to a flag, names an
// optional YAML file.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default()
	for key, value := range cfg.defaults() {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) defaults() map[string]interface{} {
	return map[string]interface{}{
		"store_kind":    c.StoreKind,
		"store_path":    c.StorePath,
		"learning_rate": c.LearningRate,
		"discount":      c.Discount,
		"exploration":   c.Exploration,
		"draw_reward":   c.DrawReward,
		"trainer":       c.Trainer,
		"episodes":      c.Episodes,
		"curve_every":   c.CurveEvery,
		"seed":          c.Seed,
		"eval_games":    c.EvalGames,
		"workers":       c.Workers,
		"output_dir":    c.OutputDir,
		"log_level":     c.LogLevel,
	}
}

// Validate checks the config for values the program cannot run with.
func (c *Config) Validate() error {
	switch store.Kind(c.StoreKind) {
	case store.FileKind, store.BadgerKind:
	default:
		return fmt.Errorf("%w: store_kind %q", ErrInvalid, c.StoreKind)
	}
	if c.StorePath == "" {
		return fmt.Errorf("%w: store_path is required", ErrInvalid)
	}
	if c.LearningRate < 0 || c.LearningRate > 1 {
		return fmt.Errorf("%w: learning_rate must be in [0, 1]", ErrInvalid)
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("%w: discount must be in [0, 1]", ErrInvalid)
	}
	if c.Exploration < 0 || c.Exploration > 1 {
		return fmt.Errorf("%w: exploration must be in [0, 1]", ErrInvalid)
	}
	if _, err := agent.ParseKind(c.Trainer); err != nil {
		return fmt.Errorf("%w: trainer: %v", ErrInvalid, err)
	}
	if c.Episodes < 0 {
		return fmt.Errorf("%w: episodes cannot be negative", ErrInvalid)
	}
	if c.CurveEvery < 0 {
		return fmt.Errorf("%w: curve_every cannot be negative", ErrInvalid)
	}
	if c.EvalGames <= 0 {
		return fmt.Errorf("%w: eval_games must be positive", ErrInvalid)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive", ErrInvalid)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %v", ErrInvalid, err)
	}
	return nil
}

func (c *Config) TrainerKind() agent.Kind {
	kind, _ := agent.ParseKind(c.Trainer)
	return kind
}

func (c *Config) LearnerParams() learner.Params {
	return learner.Params{
		LearningRate: c.LearningRate,
		Discount:     c.Discount,
		Exploration:  c.Exploration,
	}
}
