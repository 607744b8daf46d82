package learner

import (
	"fmt"

	"tictactoe/game"
	"tictactoe/symmetry"
)

// Step is one learner move expressed in canonical orientation.
type Step struct {
	Key    game.State
	Action game.Action
}

// Trajectory is the ordered list of the learner's moves during one game.
type Trajectory []Step

// Record canonicalizes state and stores action translated into the canonical orientation.
func (t *Trajectory) Record(state game.State, action game.Action) error {
	key := symmetry.CanonicalKey(state)
	canonical, err := symmetry.MapActionForward(state, key, action)
	if err != nil {
		return fmt.Errorf("failed to record move %d on %q: %w", action, state, err)
	}
	*t = append(*t, Step{Key: key, Action: canonical})
	return nil
}

func (t *Trajectory) Reset() {
	*t = (*t)[:0]
}
