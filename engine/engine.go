package engine

import (
	"errors"

	"tictactoe/game"
)

// The trainer (or human) plays X and always moves first; the learner answers as O.
const (
	OpponentMark = game.X
	LearnerMark  = game.O
)

const (
	WinReward         = 1.0
	LossReward        = -1.0
	DefaultDrawReward = 0.5

	// MaxRejectedMoves bounds how often one side may propose an illegal move in a row.
	MaxRejectedMoves = 10
)

var ErrTooManyInvalidMoves = errors.New("engine: too many invalid moves")

// Outcome is the result of a finished game.
type Outcome struct {
	Winner   game.Mark // Empty on a draw
	Moves    int
	Rejected int
	Final    game.State
}

func (o Outcome) Draw() bool { return o.Winner == game.Empty }

// Tally counts game results from the learner's point of view.
type Tally struct {
	Trainer int
	Learner int
	Draws   int
}

func (t *Tally) Add(o Outcome) {
	switch o.Winner {
	case OpponentMark:
		t.Trainer++
	case LearnerMark:
		t.Learner++
	default:
		t.Draws++
	}
}

func (t Tally) Games() int { return t.Trainer + t.Learner + t.Draws }

func (t Tally) Map() map[string]int {
	return map[string]int{"trainer": t.Trainer, "learner": t.Learner, "draw": t.Draws}
}
