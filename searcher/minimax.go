package searcher

import (
	"math"

	"tictactoe/game"
	"tictactoe/symmetry"
)

// Scores for terminal positions, adjusted by depth so that faster wins and slower
// losses are preferred.
const Win = 10
const Loss = -Win
const Draw = 0

type Option func(m *Minimax)

// Minimax is an exhaustive game-tree solver for a fixed pair of marks.
type Minimax struct {
	self     game.Mark
	opponent game.Mark
	table    map[entry]int
}

type entry struct {
	key        game.State
	maximizing bool
}

// WithTranspositions caches depth-relative scores by canonical state. The cache makes
// the solver stateful: do not share such an instance across goroutines.
func WithTranspositions() Option {
	return func(m *Minimax) {
		m.table = make(map[entry]int)
	}
}

func NewMinimax(self, opponent game.Mark, options ...Option) *Minimax {
	if self == opponent || !self.Valid() || !opponent.Valid() || self == game.Empty || opponent == game.Empty {
		panic("minimax needs two distinct player marks")
	}
	m := &Minimax{self: self, opponent: opponent}
	for _, option := range options {
		option(m)
	}
	return m
}

func (m *Minimax) Self() game.Mark     { return m.self }
func (m *Minimax) Opponent() game.Mark { return m.opponent }

// BestMove returns the empty cell with the highest minimax score for self, the first one
// on ties. It returns NoAction when the board has no empty cell.
func (m *Minimax) BestMove(state game.State) game.Action {
	bestMove := game.NoAction
	bestScore := math.MinInt
	for _, a := range state.EmptyCells() {
		score := m.Score(state.Play(a, m.self), 0, false)
		if score > bestScore {
			bestScore = score
			bestMove = a
		}
	}
	return bestMove
}

// Score evaluates state at the given depth. maximizing tells whether self moves next.
func (m *Minimax) Score(state game.State, depth int, maximizing bool) int {
	if m.table == nil {
		return m.search(state, depth, maximizing)
	}
	return shift(m.cached(state, maximizing), depth)
}

func (m *Minimax) search(state game.State, depth int, maximizing bool) int {
	if score, over := m.evaluate(state); over {
		return shift(score, depth)
	}

	if maximizing {
		best := math.MinInt
		for _, a := range state.EmptyCells() {
			best = max(best, m.search(state.Play(a, m.self), depth+1, false))
		}
		return best
	}
	best := math.MaxInt
	for _, a := range state.EmptyCells() {
		best = min(best, m.search(state.Play(a, m.opponent), depth+1, true))
	}
	return best
}

// cached returns the score of state as seen from depth 0. Scores are invariant under
// board symmetry, so the canonical key is enough.
func (m *Minimax) cached(state game.State, maximizing bool) int {
	e := entry{key: symmetry.CanonicalKey(state), maximizing: maximizing}
	if score, ok := m.table[e]; ok {
		return score
	}

	score, over := m.evaluate(state)
	if !over {
		if maximizing {
			score = math.MinInt
			for _, a := range state.EmptyCells() {
				score = max(score, shift(m.cached(state.Play(a, m.self), false), 1))
			}
		} else {
			score = math.MaxInt
			for _, a := range state.EmptyCells() {
				score = min(score, shift(m.cached(state.Play(a, m.opponent), true), 1))
			}
		}
	}
	m.table[e] = score
	return score
}

// evaluate scores a terminal state at depth 0.
func (m *Minimax) evaluate(state game.State) (score int, over bool) {
	switch {
	case state.HasWon(m.self):
		return Win, true
	case state.HasWon(m.opponent):
		return Loss, true
	case state.IsFull():
		return Draw, true
	}
	return 0, false
}

// shift moves a depth-0 score down by depth plies: wins shrink and losses grow towards 0.
func shift(score, depth int) int {
	switch {
	case score > 0:
		return score - depth
	case score < 0:
		return score + depth
	}
	return score
}
