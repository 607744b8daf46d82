package learner

import (
	"slices"

	"tictactoe/game"
)

// Row holds one value per cell index; only cells that are Empty in the key are meaningful.
type Row [game.Cells]float64

// ValueTable maps canonical states to their action values.
type ValueTable struct {
	rows map[game.State]*Row
}

func NewValueTable() *ValueTable {
	return &ValueTable{rows: make(map[game.State]*Row)}
}

// Row returns the row for key, inserting an all-zero row if the key is new.
func (t *ValueTable) Row(key game.State) *Row {
	row, ok := t.rows[key]
	if !ok {
		row = &Row{}
		t.rows[key] = row
	}
	return row
}

// Lookup returns a copy of the row for key without inserting it.
func (t *ValueTable) Lookup(key game.State) (Row, bool) {
	row, ok := t.rows[key]
	if !ok {
		return Row{}, false
	}
	return *row, true
}

func (t *ValueTable) Set(key game.State, row Row) {
	t.rows[key] = &row
}

func (t *ValueTable) Len() int {
	return len(t.rows)
}

// Keys returns every key in ascending state order.
func (t *ValueTable) Keys() []game.State {
	keys := make([]game.State, 0, len(t.rows))
	for key := range t.rows {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, game.State.Compare)
	return keys
}

// Clone returns a deep copy, e.g. to freeze a table for evaluation.
func (t *ValueTable) Clone() *ValueTable {
	clone := &ValueTable{rows: make(map[game.State]*Row, len(t.rows))}
	for key, row := range t.rows {
		clone.Set(key, *row)
	}
	return clone
}

// Argmax returns the cell with the highest value among the Empty cells of key,
// preferring the lowest index on ties. It returns NoAction if key has no Empty cell.
func (r Row) Argmax(key game.State) game.Action {
	best := game.NoAction
	for _, a := range key.EmptyCells() {
		if best == game.NoAction || r[a] > r[best] {
			best = a
		}
	}
	return best
}
