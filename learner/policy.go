package learner

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"

	"tictactoe/game"
	"tictactoe/symmetry"
)

// Hyperparameters defaults

const DefaultLearningRate = 0.1
const DefaultDiscount = 0.8
const DefaultExploration = 0.1

type Option func(p *Policy)

// Params are the caller-configured learning rates. Values are used as given.
type Params struct {
	LearningRate float64 // alpha
	Discount     float64 // gamma
	Exploration  float64 // epsilon
}

// Policy is a tabular epsilon-greedy Q-learning policy over canonical states.
// It is owned by a single game loop and is not safe for concurrent use.
type Policy struct {
	Params
	table *ValueTable
	rng   *rand.Rand
}

func WithLearningRate(alpha float64) Option {
	return func(p *Policy) {
		p.LearningRate = alpha
	}
}

func WithDiscount(gamma float64) Option {
	return func(p *Policy) {
		p.Discount = gamma
	}
}

func WithExploration(epsilon float64) Option {
	return func(p *Policy) {
		p.Exploration = epsilon
	}
}

func WithRand(rng *rand.Rand) Option {
	return func(p *Policy) {
		if rng != nil {
			p.rng = rng
		}
	}
}

func WithTable(table *ValueTable) Option {
	return func(p *Policy) {
		if table != nil {
			p.table = table
		}
	}
}

func NewPolicy(options ...Option) *Policy {
	p := &Policy{ // Default values
		Params: Params{
			LearningRate: DefaultLearningRate,
			Discount:     DefaultDiscount,
			Exploration:  DefaultExploration,
		},
		table: NewValueTable(),
		rng:   rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// SetParams replaces the learning parameters; it takes effect from the next move.
func (p *Policy) SetParams(params Params) {
	p.Params = params
}

func (p *Policy) Table() *ValueTable {
	return p.table
}


// SelectMove picks a legal action for state in its own orientation. It explores with
// probability epsilon and otherwise exploits the canonical value row.
// Calling it on a full board is a caller error and panics.
func (p *Policy) SelectMove(state game.State) game.Action {
	legal := state.EmptyCells()
	if len(legal) == 0 {
		panic(fmt.Sprintf("no legal move on full board %q", state))
	}

	key := symmetry.CanonicalKey(state)
	row := p.table.Row(key)

	if p.rng.Float64() < p.Exploration {
		return legal[p.rng.Intn(len(legal))]
	}

	return mapBack(key, state, row.Argmax(key))
}

// Greedy returns the best known action without exploring or inserting rows.
func (p *Policy) Greedy(state game.State) game.Action {
	return Greedy(p.table, state)
}

// Greedy exploits a table read-only: unseen states behave like an all-zero row.
func Greedy(table *ValueTable, state game.State) game.Action {
	if state.IsFull() {
		panic(fmt.Sprintf("no legal move on full board %q", state))
	}
	key := symmetry.CanonicalKey(state)
	row, _ := table.Lookup(key)
	return mapBack(key, state, row.Argmax(key))
}

func mapBack(key, state game.State, action game.Action) game.Action {
	concrete, err := symmetry.MapActionBack(key, state, action)
	if err != nil {
		// key was derived from state, so this is a broken invariant
		panic(err)
	}
	return concrete
}

// Update moves the value of action towards reward: v += alpha * (reward - v).
func (p *Policy) Update(key game.State, action game.Action, reward float64) {
	row := p.table.Row(key)
	row[action] += p.LearningRate * (reward - row[action])
}

// Propagate assigns finalReward to the most recent move and a geometrically
// discounted share to each earlier one.
func (p *Policy) Propagate(finalReward float64, trajectory Trajectory) {
	reward := finalReward
	for i := len(trajectory) - 1; i >= 0; i-- {
		step := trajectory[i]
		p.Update(step.Key, step.Action, reward)
		reward *= p.Discount
	}
}
