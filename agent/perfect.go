package agent

import (
	"tictactoe/game"
	"tictactoe/searcher"
)

type perfectAgent struct {
	minimax *searcher.Minimax
}

// NewPerfect returns an opponent playing minimax-optimal moves for mark.
func NewPerfect(mark game.Mark, options ...searcher.Option) Opponent {
	return perfectAgent{minimax: searcher.NewMinimax(mark, mark.Opponent(), options...)}
}

func (a perfectAgent) SelectOpponentMove(state game.State) game.Action {
	return a.minimax.BestMove(state)
}
