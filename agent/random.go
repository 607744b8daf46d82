package agent

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"

	"tictactoe/game"
)

type randomAgent struct {
	rng *rand.Rand
}

// NewRandom returns an opponent playing uniformly among the empty cells.
// A nil rng is replaced by a time-seeded one.
func NewRandom(rng *rand.Rand) Opponent {
	if rng == nil {
		rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return &randomAgent{rng: rng}
}

func (a *randomAgent) SelectOpponentMove(state game.State) game.Action {
	moves := state.EmptyCells()
	if len(moves) == 0 {
		panic(fmt.Sprintf("no legal move on full board %q", state))
	}
	return moves[a.rng.Intn(len(moves))]
}
