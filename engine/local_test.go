package engine

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"tictactoe/agent"
	"tictactoe/experiments/metrics"
	"tictactoe/game"
	"tictactoe/learner"
	"tictactoe/searcher"
	"tictactoe/symmetry"
)

type stubbornOpponent struct {
	action game.Action
}

func (o stubbornOpponent) SelectOpponentMove(game.State) game.Action { return o.action }

// clumsyOpponent proposes an off-board move before every legal one.
type clumsyOpponent struct {
	next  agent.Opponent
	tried bool
}

func (o *clumsyOpponent) SelectOpponentMove(state game.State) game.Action {
	if !o.tried {
		o.tried = true
		return game.Action(9)
	}
	o.tried = false
	return o.next.SelectOpponentMove(state)
}

func newPolicy(seed uint64, options ...learner.Option) *learner.Policy {
	return learner.NewPolicy(append([]learner.Option{learner.WithRand(rand.New(rand.NewSource(seed)))}, options...)...)
}

func nonZeroValues(table *learner.ValueTable) []float64 {
	values := []float64{}
	for _, key := range table.Keys() {
		row, _ := table.Lookup(key)
		for _, v := range row {
			if v != 0 {
				values = append(values, v)
			}
		}
	}
	sort.Slice(values, func(i, j int) bool { return math.Abs(values[i]) > math.Abs(values[j]) })
	return values
}

// perfectTable marks the minimax reply of O in every position O can face.
func perfectTable() *learner.ValueTable {
	table := learner.NewValueTable()
	solver := searcher.NewMinimax(game.O, game.X, searcher.WithTranspositions())
	seen := map[game.State]bool{}
	var visit func(state game.State, mark game.Mark)
	visit = func(state game.State, mark game.Mark) {
		if seen[state] || state.IsTerminal() {
			return
		}
		seen[state] = true
		if mark == game.O {
			key := symmetry.CanonicalKey(state)
			if _, ok := table.Lookup(key); !ok {
				var row learner.Row
				row[solver.BestMove(key)] = 1
				table.Set(key, row)
			}
		}
		for _, a := range state.EmptyCells() {
			visit(state.Play(a, mark), mark.Opponent())
		}
	}
	visit(game.EmptyState(), game.X)
	return table
}

func TestPlayEpisode(t *testing.T) {
	t.Run("propagates the reward exactly once", func(t *testing.T) {
		for seed := uint64(1); seed <= 20; seed++ {
			policy := newPolicy(seed, learner.WithLearningRate(1), learner.WithDiscount(0.5), learner.WithExploration(0.3))
			e := NewLocalEngine(policy, agent.NewRandom(rand.New(rand.NewSource(seed+100))))

			outcome, err := e.PlayEpisode()
			require.NoError(t, err)
			require.True(t, outcome.Final.IsTerminal())

			reward := DefaultDrawReward
			switch outcome.Winner {
			case LearnerMark:
				reward = WinReward
			case OpponentMark:
				reward = LossReward
			}
			learnerMoves := outcome.Moves / 2
			expected := make([]float64, learnerMoves)
			for i := range expected {
				expected[i] = reward * math.Pow(0.5, float64(i))
			}
			require.Equal(t, expected, nonZeroValues(policy.Table()), "Seed %d: one discounted update per learner move", seed)
		}
	})

	t.Run("learner never beats a perfect trainer", func(t *testing.T) {
		e := NewLocalEngine(newPolicy(3), agent.NewPerfect(OpponentMark, searcher.WithTranspositions()))
		for i := 0; i < 30; i++ {
			outcome, err := e.PlayEpisode()
			require.NoError(t, err)
			require.NotEqual(t, LearnerMark, outcome.Winner)
		}
	})

	t.Run("illegal moves are retried", func(t *testing.T) {
		records := metrics.NewRecords("clumsy", "learner")
		opponent := &clumsyOpponent{next: agent.NewRandom(rand.New(rand.NewSource(5)))}
		e := NewLocalEngine(newPolicy(5), opponent, WithSink(records))

		outcome, err := e.PlayEpisode()
		require.NoError(t, err)
		opponentMoves := (outcome.Moves + 1) / 2
		require.Equal(t, opponentMoves, outcome.Rejected)

		all := records.All()
		require.Len(t, all, 1)
		require.Equal(t, outcome.Rejected, all[0].RejectedMoves)
		require.Equal(t, outcome.Moves, all[0].TotalMoves)
	})

	t.Run("typing mistakes do not end a console game", func(t *testing.T) {
		var out strings.Builder
		input := "center\n4 4\nnine\n4\n4\n0\n1\n2\n3\n5\n6\n7\n8\n"
		human := agent.NewConsole(strings.NewReader(input), &out)
		e := NewLocalEngine(newPolicy(19, learner.WithExploration(0)), human)

		outcome, err := e.PlayEpisode()
		require.NoError(t, err)
		require.Zero(t, outcome.Rejected, "The console should only hand over playable cells")
		require.True(t, outcome.Final.IsTerminal())
	})

	t.Run("persistent illegal moves abort the episode", func(t *testing.T) {
		policy := newPolicy(7, learner.WithExploration(0))
		e := NewLocalEngine(policy, stubbornOpponent{action: 4}, WithMaxRejected(3))

		_, err := e.PlayEpisode()
		require.ErrorIs(t, err, ErrTooManyInvalidMoves)
		require.Empty(t, nonZeroValues(policy.Table()), "Aborted episodes should not be learned from")
	})

	t.Run("draw reward is configurable", func(t *testing.T) {
		policy := newPolicy(11, learner.WithTable(perfectTable()), learner.WithLearningRate(1), learner.WithExploration(0))
		e := NewLocalEngine(policy, agent.NewPerfect(OpponentMark), WithDrawReward(0.25))

		outcome, err := e.PlayEpisode()
		require.NoError(t, err)
		require.True(t, outcome.Draw(), "Perfect play on both sides should draw")
		require.Equal(t, game.Empty, outcome.Winner)
		require.Contains(t, nonZeroValues(policy.Table()), 0.25, "The last learner move should take the draw reward")
	})
}

func TestTrain(t *testing.T) {
	t.Run("tallies every episode", func(t *testing.T) {
		records := metrics.NewRecords("random", "learner")
		e := NewLocalEngine(newPolicy(13), agent.NewRandom(rand.New(rand.NewSource(13))), WithSink(records))

		tally, err := e.Train(context.Background(), 300)
		require.NoError(t, err)
		require.Equal(t, 300, tally.Games())
		require.Len(t, records.All(), 300)
		require.NotZero(t, e.Policy().Table().Len())
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		e := NewLocalEngine(newPolicy(17), agent.NewRandom(nil))

		tally, err := e.Train(ctx, 10)
		require.ErrorIs(t, err, context.Canceled)
		require.Zero(t, tally.Games())
	})
}

func TestPlayMatch(t *testing.T) {
	t.Run("perfect play draws", func(t *testing.T) {
		outcome, err := PlayMatch(agent.NewPerfect(game.X), agent.NewPerfect(game.O), nil)
		require.NoError(t, err)
		require.True(t, outcome.Draw())
		require.Equal(t, game.Empty, outcome.Winner, "Draws should carry the Empty mark")
		require.Equal(t, game.Cells, outcome.Moves)
	})

	t.Run("concurrent matches", func(t *testing.T) {
		frozen := learner.NewValueTable()
		var wg sync.WaitGroup
		outcomes := make([]Outcome, 8)
		errs := make([]error, len(outcomes))
		for i := range outcomes {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				x := agent.NewRandom(rand.New(rand.NewSource(uint64(i))))
				o := agent.NewAdvanced(frozen, 0, nil)
				outcomes[i], errs[i] = PlayMatch(x, o, metrics.NewCollector())
			}(i)
		}
		wg.Wait()
		for i, o := range outcomes {
			require.NoError(t, errs[i])
			require.True(t, o.Final.IsTerminal())
		}
		require.Zero(t, frozen.Len())
	})

	t.Run("illegal moves fail the match", func(t *testing.T) {
		_, err := PlayMatch(stubbornOpponent{action: game.NoAction}, agent.NewRandom(nil), nil)
		require.ErrorIs(t, err, ErrTooManyInvalidMoves)
	})
}

func TestTally(t *testing.T) {
	tally := Tally{}
	tally.Add(Outcome{Winner: game.X})
	tally.Add(Outcome{Winner: game.O})
	tally.Add(Outcome{Winner: game.O})
	tally.Add(Outcome{})
	require.Equal(t, Tally{Trainer: 1, Learner: 2, Draws: 1}, tally)
	require.Equal(t, map[string]int{"trainer": 1, "learner": 2, "draw": 1}, tally.Map())
}
