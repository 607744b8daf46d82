package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"

	"tictactoe/agent"
	"tictactoe/config"
	"tictactoe/engine"
	"tictactoe/experiments"
	"tictactoe/experiments/metrics"
	"tictactoe/game"
	"tictactoe/searcher"
	"tictactoe/store"
)

func trainCmd() *cobra.Command {
	defaults := config.Default()
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the value table against a trainer",
		Args:  cobra.NoArgs,
		RunE:  runTrain,
	}
	flags := cmd.Flags()
	flags.String("trainer", defaults.Trainer, "Trainer (random, perfect, advanced)")
	flags.Int("episodes", defaults.Episodes, "Games to play")
	flags.Float64("learning-rate", defaults.LearningRate, "Learning rate alpha")
	flags.Float64("discount", defaults.Discount, "Discount factor gamma")
	flags.Float64("exploration", defaults.Exploration, "Exploration rate epsilon")
	flags.Float64("draw-reward", defaults.DrawReward, "Reward for a draw")
	flags.Int("curve-every", defaults.CurveEvery, "Evaluate every n episodes (0 disables the learning curve)")
	flags.Int("eval-games", defaults.EvalGames, "Games per opponent in each curve evaluation")
	flags.Int("workers", defaults.Workers, "Parallel evaluation games")
	flags.String("output-dir", defaults.OutputDir, "Directory for run records")
	return cmd
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	table := loadTable(ctx, s)

	runSeed := seed()
	rng := rand.New(rand.NewSource(runSeed))
	kind := cfg.TrainerKind()
	// The advanced trainer plays the table as it was before this run.
	trainer, err := agent.New(kind, engine.OpponentMark, table.Clone(), rng)
	if err != nil {
		return err
	}

	writer, err := metrics.NewWriter(cfg.OutputDir, "train")
	if err != nil {
		return err
	}
	prom := metrics.NewPrometheus("train")
	records := metrics.NewRecords(string(kind), "learner")
	e := engine.NewLocalEngine(newPolicy(table, rng), trainer,
		engine.WithDrawReward(cfg.DrawReward),
		engine.WithSink(metrics.Tee(prom, records)),
	)

	start := time.Now()
	var tally engine.Tally
	if cfg.CurveEvery > 0 {
		arena := experiments.NewArena(
			experiments.WithGames(cfg.EvalGames),
			experiments.WithWorkers(cfg.Workers),
			experiments.WithSeed(runSeed),
		)
		var points []metrics.CurvePoint
		tally, points, err = experiments.LearningCurve(ctx, e, arena, cfg.Episodes, cfg.CurveEvery, agent.Kinds)
		if werr := writer.WriteCurve(points); werr != nil {
			log.Error().Err(werr).Msg("failed to write learning curve")
		}
	} else {
		tally, err = e.Train(ctx, cfg.Episodes)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err != nil {
		log.Warn().Msgf("training interrupted after %d episodes", tally.Games())
	}

	// Saving must not be skipped because the run context was cancelled.
	if err := s.Save(context.WithoutCancel(ctx), table); err != nil {
		return fmt.Errorf("failed to save value table: %w", err)
	}
	log.Info().Msgf("saved %d states to %s", table.Len(), cfg.StorePath)

	prom.TableSize.Set(float64(table.Len()))
	info := metrics.RunInfo{
		Command:      "train",
		Trainer:      string(kind),
		Episodes:     tally.Games(),
		LearningRate: cfg.LearningRate,
		Discount:     cfg.Discount,
		Exploration:  cfg.Exploration,
		DrawReward:   cfg.DrawReward,
		Seed:         runSeed,
		StartTime:    start,
		EndTime:      time.Now(),
		TableSize:    table.Len(),
		Results:      tally.Map(),
	}
	return writeRun(writer, info, records.All(), prom)
}

func playCmd() *cobra.Command {
	defaults := config.Default()
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play against the learner, which keeps learning",
		Long:  "You play X and move first. Enter a cell number (0-8) or a row and a column.",
		Args:  cobra.NoArgs,
		RunE:  runPlay,
	}
	flags := cmd.Flags()
	flags.Int("games", 1, "Games to play")
	flags.Float64("learning-rate", defaults.LearningRate, "Learning rate alpha")
	flags.Float64("discount", defaults.Discount, "Discount factor gamma")
	flags.Float64("exploration", defaults.Exploration, "Exploration rate epsilon")
	flags.Float64("draw-reward", defaults.DrawReward, "Reward for a draw")
	return cmd
}

func runPlay(cmd *cobra.Command, args []string) error {
	games, err := cmd.Flags().GetInt("games")
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	table := loadTable(ctx, s)

	out := cmd.OutOrStdout()
	human := agent.NewConsole(cmd.InOrStdin(), out)
	e := engine.NewLocalEngine(newPolicy(table, rand.New(rand.NewSource(seed()))), human,
		engine.WithDrawReward(cfg.DrawReward),
	)

	tally := engine.Tally{}
	for i := 0; i < games && ctx.Err() == nil; i++ {
		outcome, err := e.PlayEpisode()
		if err != nil {
			return err
		}
		tally.Add(outcome)

		fmt.Fprintf(out, "\n%s\n", game.NewBoardFrom(outcome.Final))
		switch outcome.Winner {
		case engine.OpponentMark:
			fmt.Fprintln(out, "You win!")
		case engine.LearnerMark:
			fmt.Fprintln(out, "The computer wins.")
		default:
			fmt.Fprintln(out, "Draw.")
		}

		// Progress is kept after every game.
		if err := s.Save(ctx, table); err != nil {
			log.Error().Err(err).Msg("failed to save value table")
		}
	}
	fmt.Fprintf(out, "you %d, computer %d, draws %d\n", tally.Trainer, tally.Learner, tally.Draws)
	return nil
}

func evaluateCmd() *cobra.Command {
	defaults := config.Default()
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Play the frozen table against every trainer in parallel",
		Args:  cobra.NoArgs,
		RunE:  runEvaluate,
	}
	flags := cmd.Flags()
	flags.Int("eval-games", defaults.EvalGames, "Games per opponent and side")
	flags.Int("workers", defaults.Workers, "Parallel games")
	flags.Bool("both-sides", false, "Also let the learner move first")
	flags.String("output-dir", defaults.OutputDir, "Directory for run records")
	return cmd
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	bothSides, err := cmd.Flags().GetBool("both-sides")
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	table := loadTable(ctx, s)

	writer, err := metrics.NewWriter(cfg.OutputDir, "evaluate")
	if err != nil {
		return err
	}
	prom := metrics.NewPrometheus("evaluate")
	prom.TableSize.Set(float64(table.Len()))

	runSeed := seed()
	options := []experiments.Option{
		experiments.WithGames(cfg.EvalGames),
		experiments.WithWorkers(cfg.Workers),
		experiments.WithSeed(runSeed),
		experiments.WithSink(prom),
	}
	if bothSides {
		options = append(options, experiments.WithBothSides())
	}

	start := time.Now()
	results, err := experiments.NewArena(options...).Evaluate(ctx, table, agent.Kinds)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OPPONENT\tWINS\tLOSSES\tDRAWS")
	summary := map[string]int{}
	records := []metrics.GameRecord{}
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", r.Opponent, r.Wins, r.Losses, r.Draws)
		summary[string(r.Opponent)+"_wins"] = r.Wins
		summary[string(r.Opponent)+"_losses"] = r.Losses
		summary[string(r.Opponent)+"_draws"] = r.Draws
		records = append(records, r.Records...)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	info := metrics.RunInfo{
		Command:   "evaluate",
		Seed:      runSeed,
		StartTime: start,
		EndTime:   time.Now(),
		TableSize: table.Len(),
		Results:   summary,
	}
	return writeRun(writer, info, records, prom)
}

func solveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "solve <state>",
		Short: "Print the minimax move for a state",
		Long: `The state lists the 9 cells row by row with X, O and '.' (or '_' or a space)
for empty cells, e.g. "X...O...." .`,
		Args: cobra.ExactArgs(1),
		RunE: runSolve,
	}
}

func runSolve(cmd *cobra.Command, args []string) error {
	state, err := game.ParseState(strings.NewReplacer(".", " ", "_", " ").Replace(strings.ToUpper(args[0])))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", game.NewBoardFrom(state))

	if state.IsTerminal() {
		if winner := state.Winner(); winner != game.Empty {
			fmt.Fprintf(out, "%s has won\n", winner)
		} else {
			fmt.Fprintln(out, "draw")
		}
		return nil
	}

	// X starts, so X is to move whenever both sides have played equally often.
	toMove := game.X
	if state.Count(game.X) > state.Count(game.O) {
		toMove = game.O
	}
	m := searcher.NewMinimax(toMove, toMove.Opponent(), searcher.WithTranspositions())
	best := m.BestMove(state)
	score := m.Score(state.Play(best, toMove), 0, false)
	fmt.Fprintf(out, "%s plays %d (row %d, col %d), score %d\n", toMove, best, best.Row(), best.Col(), score)
	return nil
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear all learning progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			if err := store.Reset(cmd.Context(), s); err != nil {
				return fmt.Errorf("failed to reset value table: %w", err)
			}
			log.Info().Msgf("cleared learning progress in %s", cfg.StorePath)
			return nil
		},
	}
}

func writeRun(writer *metrics.Writer, info metrics.RunInfo, records []metrics.GameRecord, prom *metrics.Prometheus) error {
	if err := writer.WriteGameRecords(records); err != nil {
		return err
	}
	log.Info().Msg("stored game records")
	if err := writer.WriteMetrics(prom); err != nil {
		return err
	}
	if err := writer.WriteRunInfo(info); err != nil {
		return err
	}
	log.Info().Msgf("stored run %s in %s", writer.RunID(), writer.Dir())
	return nil
}
