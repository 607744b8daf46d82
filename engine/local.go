package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"tictactoe/agent"
	"tictactoe/experiments/metrics"
	"tictactoe/game"
	"tictactoe/learner"
)

type Option func(e *LocalEngine)

func WithDrawReward(reward float64) Option {
	return func(e *LocalEngine) {
		e.drawReward = reward
	}
}

func WithMaxRejected(n int) Option {
	if n <= 0 {
		panic("max rejected moves must be positive")
	}
	return func(e *LocalEngine) {
		e.maxRejected = n
	}
}

// WithSink reports every finished episode to sink.
func WithSink(sink metrics.Sink) Option {
	return func(e *LocalEngine) {
		e.sink = sink
	}
}

// LocalEngine runs learning games between a policy and an opponent on one board.
// It is not safe for concurrent use.
type LocalEngine struct {
	board       *game.Board
	policy      *learner.Policy
	opponent    agent.Opponent
	trajectory  learner.Trajectory
	drawReward  float64
	maxRejected int
	sink        metrics.Sink
}

func NewLocalEngine(policy *learner.Policy, opponent agent.Opponent, options ...Option) *LocalEngine {
	if policy == nil {
		panic("policy cannot be nil")
	}
	if opponent == nil {
		panic("opponent cannot be nil")
	}
	e := &LocalEngine{
		board:       game.NewBoard(),
		policy:      policy,
		opponent:    opponent,
		drawReward:  DefaultDrawReward,
		maxRejected: MaxRejectedMoves,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

func (e *LocalEngine) Policy() *learner.Policy { return e.policy }

// PlayEpisode plays one game from an empty board and propagates its reward exactly once.
// An episode aborted by an opponent that keeps proposing illegal moves teaches nothing.
func (e *LocalEngine) PlayEpisode() (Outcome, error) {
	e.board.Reset()
	e.trajectory.Reset()

	collector := metrics.NewDummyCollector()
	if e.sink != nil {
		collector = metrics.NewCollector()
	}
	collector.Start(OpponentMark)

	outcome := Outcome{Winner: game.Empty}
	mark := OpponentMark
	for {
		state := e.board.Encode()
		if mark == OpponentMark {
			rejected, err := playChecked(e.board, e.opponent, mark, e.maxRejected, collector)
			outcome.Rejected += rejected
			if err != nil {
				return outcome, err
			}
		} else {
			action := e.policy.SelectMove(state)
			if err := e.trajectory.Record(state, action); err != nil {
				return outcome, fmt.Errorf("record learner move: %w", err)
			}
			if !e.board.Play(action, mark) {
				panic(fmt.Sprintf("learner chose occupied cell %d on %q", action, state))
			}
		}
		collector.AddMove()
		outcome.Moves++

		if e.board.HasWon(mark) {
			outcome.Winner = mark
			break
		}
		if e.board.IsFull() {
			break
		}
		mark = mark.Opponent()
	}
	outcome.Final = e.board.Encode()

	e.policy.Propagate(e.reward(outcome), e.trajectory)

	if e.sink != nil {
		e.sink.Record(collector.Complete(outcome.Winner))
	}
	return outcome, nil
}

func (e *LocalEngine) reward(o Outcome) float64 {
	switch o.Winner {
	case LearnerMark:
		return WinReward
	case OpponentMark:
		return LossReward
	}
	return e.drawReward
}

// Train plays episodes games, stopping early when ctx is done.
func (e *LocalEngine) Train(ctx context.Context, episodes int) (Tally, error) {
	tally := Tally{}
	logEvery := max(episodes/10, 1)

	log.Info().Msgf("starting training for %d episodes...", episodes)
	for i := 0; i < episodes; i++ {
		if err := ctx.Err(); err != nil {
			return tally, err
		}
		outcome, err := e.PlayEpisode()
		if err != nil {
			return tally, fmt.Errorf("episode %d: %w", i+1, err)
		}
		tally.Add(outcome)

		if (i+1)%logEvery == 0 {
			log.Debug().
				Int("episode", i+1).
				Int("trainer", tally.Trainer).
				Int("learner", tally.Learner).
				Int("draws", tally.Draws).
				Int("states", e.policy.Table().Len()).
				Msg("training progress")
		}
	}
	log.Info().Msgf("completed training: trainer=%d learner=%d draws=%d states=%d",
		tally.Trainer, tally.Learner, tally.Draws, e.policy.Table().Len())

	return tally, nil
}

// PlayMatch plays a game without learning between x, who starts, and o. It owns its board,
// so concurrent calls are safe as long as the opponents themselves are.
func PlayMatch(x, o agent.Opponent, collector metrics.Collector) (Outcome, error) {
	if collector == nil {
		collector = metrics.NewDummyCollector()
	}
	board := game.NewBoard()
	collector.Start(game.X)

	outcome := Outcome{Winner: game.Empty}
	mark := game.X
	for {
		player := x
		if mark == game.O {
			player = o
		}
		rejected, err := playChecked(board, player, mark, MaxRejectedMoves, collector)
		outcome.Rejected += rejected
		if err != nil {
			return outcome, err
		}
		collector.AddMove()
		outcome.Moves++

		if board.HasWon(mark) {
			outcome.Winner = mark
			break
		}
		if board.IsFull() {
			break
		}
		mark = mark.Opponent()
	}
	outcome.Final = board.Encode()
	return outcome, nil
}

// playChecked asks player for a move until the board accepts one.
func playChecked(board *game.Board, player agent.Opponent, mark game.Mark, limit int, collector metrics.Collector) (int, error) {
	state := board.Encode()
	for rejected := 0; rejected < limit; rejected++ {
		action := player.SelectOpponentMove(state)
		if board.Play(action, mark) {
			return rejected, nil
		}
		collector.AddRejectedMove()
		log.Debug().Int("action", int(action)).Str("state", state.String()).Msgf("rejected move by %s", mark)
	}
	return limit, fmt.Errorf("%w: %s proposed %d illegal moves on %q", ErrTooManyInvalidMoves, mark, limit, state)
}
