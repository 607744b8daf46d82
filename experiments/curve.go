package experiments

import (
	"context"

	"github.com/rs/zerolog/log"

	"tictactoe/agent"
	"tictactoe/engine"
	"tictactoe/experiments/metrics"
)

// LearningCurve trains e for total episodes in blocks of every episodes and evaluates
// the table against kinds after each block.
func LearningCurve(ctx context.Context, e *engine.LocalEngine, arena *Arena, total, every int, kinds []agent.Kind) (engine.Tally, []metrics.CurvePoint, error) {
	if every <= 0 {
		panic("curve interval must be positive")
	}

	tally := engine.Tally{}
	points := []metrics.CurvePoint{}

	log.Info().Msgf("starting learning curve: %d episodes, evaluation every %d...", total, every)
	for played := 0; played < total; {
		block := min(every, total-played)
		t, err := e.Train(ctx, block)
		tally.Trainer += t.Trainer
		tally.Learner += t.Learner
		tally.Draws += t.Draws
		if err != nil {
			return tally, points, err
		}
		played += block

		results, err := arena.Evaluate(ctx, e.Policy().Table(), kinds)
		if err != nil {
			return tally, points, err
		}
		for _, r := range results {
			points = append(points, metrics.CurvePoint{
				Episodes:  played,
				Opponent:  string(r.Opponent),
				Wins:      r.Wins,
				Losses:    r.Losses,
				Draws:     r.Draws,
				TableSize: e.Policy().Table().Len(),
			})
		}
		log.Info().Msgf("completed %d of %d episodes", played, total)
	}
	return tally, points, nil
}
