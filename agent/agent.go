package agent

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/rand"

	"tictactoe/game"
	"tictactoe/learner"
	"tictactoe/searcher"
)

var ErrUnknownKind = errors.New("agent: unknown opponent kind")

// Opponent picks the move of the non-learning side of a game.
type Opponent interface {
	// SelectOpponentMove returns an action for state. Implementations return legal actions,
	// except interactive ones, which may return anything the game loop has to reject.
	SelectOpponentMove(state game.State) game.Action
}

// Kind names a trainer variant; it is chosen once per training run.
type Kind string

const (
	RandomKind   Kind = "random"
	PerfectKind  Kind = "perfect"
	AdvancedKind Kind = "advanced"
)

var Kinds = []Kind{RandomKind, PerfectKind, AdvancedKind}

func ParseKind(name string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(name)))
	for _, k := range Kinds {
		if k == kind {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// DefaultAdvancedExploration is the random-move rate of a table-driven trainer.
const DefaultAdvancedExploration = 0.1

// New builds the trainer of the given kind playing mark. table backs the advanced kind
// and is ignored by the others.
func New(kind Kind, mark game.Mark, table *learner.ValueTable, rng *rand.Rand) (Opponent, error) {
	switch kind {
	case RandomKind:
		return NewRandom(rng), nil
	case PerfectKind:
		return NewPerfect(mark, searcher.WithTranspositions()), nil
	case AdvancedKind:
		return NewAdvanced(table, DefaultAdvancedExploration, rng), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}
