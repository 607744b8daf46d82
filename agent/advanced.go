package agent

import (
	"time"

	"golang.org/x/exp/rand"

	"tictactoe/game"
	"tictactoe/learner"
)

type advancedAgent struct {
	table       *learner.ValueTable
	exploration float64
	rng         *rand.Rand
}

// NewAdvanced returns an opponent driven by a previously learned table. It never learns:
// the table is only read, so one table may back several agents at once as long as nobody
// writes to it. With probability exploration it plays a random legal move instead.
func NewAdvanced(table *learner.ValueTable, exploration float64, rng *rand.Rand) Opponent {
	if table == nil {
		table = learner.NewValueTable()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return &advancedAgent{table: table, exploration: exploration, rng: rng}
}

func (a *advancedAgent) SelectOpponentMove(state game.State) game.Action {
	if a.exploration > 0 && a.rng.Float64() < a.exploration {
		moves := state.EmptyCells()
		if len(moves) > 0 {
			return moves[a.rng.Intn(len(moves))]
		}
	}
	return learner.Greedy(a.table, state)
}
