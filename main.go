package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/exp/rand"

	"tictactoe/config"
	"tictactoe/learner"
	"tictactoe/store"
)

var (
	v   = viper.New()
	cfg *config.Config
)

// flagNames lists every flag backed by a config key; dashes map to underscores.
var flagNames = []string{
	"config", "log-level", "store-kind", "store-path", "seed",
	"learning-rate", "discount", "exploration", "draw-reward",
	"trainer", "episodes", "curve-every", "eval-games", "workers", "output-dir",
}

var rootCmd = &cobra.Command{
	Use:   "tictactoe",
	Short: "Tic-Tac-Toe player that learns from its games",
	Long: `Plays Tic-Tac-Toe against trainers or a human and learns a value table
with Q-learning over the board symmetries. A minimax solver serves as the
perfect trainer.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	defaults := config.Default()
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "YAML config file")
	flags.String("log-level", defaults.LogLevel, "Log level (trace, debug, info, warn, error)")
	flags.String("store-kind", defaults.StoreKind, "Value table store (file, badger)")
	flags.String("store-path", defaults.StorePath, "Value table file or database directory")
	flags.Uint64("seed", defaults.Seed, "Random seed (0 seeds from the clock)")

	rootCmd.AddCommand(trainCmd(), playCmd(), evaluateCmd(), solveCmd(), resetCmd())
}

// setup binds the flags of the running command and loads the config.
func setup(cmd *cobra.Command, args []string) error {
	for _, name := range flagNames {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(strings.ReplaceAll(name, "-", "_"), f); err != nil {
				return err
			}
		}
	}

	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = loaded

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)
	return nil
}

func seed() uint64 {
	if cfg.Seed != 0 {
		return cfg.Seed
	}
	return uint64(time.Now().UnixNano())
}

func openStore() (store.Store, error) {
	s, err := store.Open(store.Kind(cfg.StoreKind), cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return s, nil
}

// loadTable never fails: a broken store is logged and learning starts over.
func loadTable(ctx context.Context, s store.Store) *learner.ValueTable {
	table, err := s.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load value table, starting from an empty one")
		return learner.NewValueTable()
	}
	log.Info().Msgf("loaded %d states from %s", table.Len(), cfg.StorePath)
	return table
}

func newPolicy(table *learner.ValueTable, rng *rand.Rand) *learner.Policy {
	policy := learner.NewPolicy(learner.WithTable(table), learner.WithRand(rng))
	policy.SetParams(cfg.LearnerParams())
	return policy
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
