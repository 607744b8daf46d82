package game

import (
	"fmt"
	"slices"
)

// Mark is the content of a single cell.
type Mark byte

const (
	Empty Mark = ' '
	X     Mark = 'X'
	O     Mark = 'O'
)

const Size = 3
const Cells = Size * Size

// Valid reports whether m is one of Empty, X or O.
func (m Mark) Valid() bool {
	return m == Empty || m == X || m == O
}

// Opponent returns the other player's mark (Empty for Empty).
func (m Mark) Opponent() Mark {
	switch m {
	case X:
		return O
	case O:
		return X
	}
	return Empty
}

func (m Mark) String() string {
	return string(rune(m))
}

// Action is a cell index in [0,8], row-major.
type Action int

const NoAction Action = -1

func ActionAt(row, col int) Action {
	return Action(row*Size + col)
}

func (a Action) Row() int { return int(a) / Size }
func (a Action) Col() int { return int(a) % Size }

func (a Action) Valid() bool {
	return a >= 0 && a < Cells
}

// State is the row-major linearization of a board. States are immutable values:
// operations return a new copy.
type State [Cells]Mark

// EmptyState returns a state with every cell Empty.
func EmptyState() State {
	var s State
	for i := range s {
		s[i] = Empty
	}
	return s
}

// ParseState parses the 9-character encoding produced by State.String.
func ParseState(encoded string) (State, error) {
	var s State
	if len(encoded) != Cells {
		return s, fmt.Errorf("state %q: expected %d cells, got %d", encoded, Cells, len(encoded))
	}
	for i := 0; i < Cells; i++ {
		m := Mark(encoded[i])
		if !m.Valid() {
			return s, fmt.Errorf("state %q: invalid mark %q at %d", encoded, encoded[i], i)
		}
		s[i] = m
	}
	return s, nil
}

func (s State) String() string {
	b := make([]byte, Cells)
	for i, m := range s {
		b[i] = byte(m)
	}
	return string(b)
}

// Compare orders states lexicographically over their cells.
func (s State) Compare(other State) int {
	return slices.Compare(s[:], other[:])
}

func (s State) Less(other State) bool {
	return s.Compare(other) < 0
}

// Play returns the state after placing mark on action. The caller checks legality.
func (s State) Play(action Action, mark Mark) State {
	s[action] = mark
	return s
}

func (s State) IsEmpty(action Action) bool {
	return action.Valid() && s[action] == Empty
}

// EmptyCells returns the legal actions in ascending order.
func (s State) EmptyCells() []Action {
	actions := make([]Action, 0, Cells)
	for i, m := range s {
		if m == Empty {
			actions = append(actions, Action(i))
		}
	}
	return actions
}

func (s State) IsFull() bool {
	for _, m := range s {
		if m == Empty {
			return false
		}
	}
	return true
}

// Count returns the number of cells holding mark.
func (s State) Count(mark Mark) int {
	n := 0
	for _, m := range s {
		if m == mark {
			n++
		}
	}
	return n
}

// Lines holds the 3 rows, 3 columns and 2 diagonals.
var Lines = [8][3]Action{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

func (s State) HasWon(mark Mark) bool {
	for _, line := range Lines {
		if s[line[0]] == mark && s[line[1]] == mark && s[line[2]] == mark {
			return true
		}
	}
	return false
}

// Winner returns the mark that completed a line, or Empty if there is none.
func (s State) Winner() Mark {
	switch {
	case s.HasWon(X):
		return X
	case s.HasWon(O):
		return O
	}
	return Empty
}

// IsTerminal reports whether the game is over (a win or a full board).
func (s State) IsTerminal() bool {
	return s.Winner() != Empty || s.IsFull()
}
