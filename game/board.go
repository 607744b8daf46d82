package game

import "strings"

// Board is the mutable 3x3 grid owned by a single game loop.
type Board struct {
	cells [Size][Size]Mark
}

// NewBoard initializes an empty board.
func NewBoard() *Board {
	b := &Board{}
	b.Reset()
	return b
}

// NewBoardFrom returns a board holding the marks of s.
func NewBoardFrom(s State) *Board {
	b := &Board{}
	for i, m := range s {
		b.cells[i/Size][i%Size] = m
	}
	return b
}

// Apply places mark at (row, col). It returns false without touching the board if the
// cell is out of range or already taken.
func (b *Board) Apply(row, col int, mark Mark) bool {
	if row < 0 || row >= Size || col < 0 || col >= Size {
		return false
	}
	if !mark.Valid() || mark == Empty {
		return false
	}
	if b.cells[row][col] != Empty {
		return false
	}
	b.cells[row][col] = mark
	return true
}

// Play applies an action index.
func (b *Board) Play(action Action, mark Mark) bool {
	if !action.Valid() {
		return false
	}
	return b.Apply(action.Row(), action.Col(), mark)
}

func (b *Board) HasWon(mark Mark) bool {
	for i := 0; i < Size; i++ {
		if (b.cells[i][0] == mark && b.cells[i][1] == mark && b.cells[i][2] == mark) ||
			(b.cells[0][i] == mark && b.cells[1][i] == mark && b.cells[2][i] == mark) {
			return true
		}
	}
	return (b.cells[0][0] == mark && b.cells[1][1] == mark && b.cells[2][2] == mark) ||
		(b.cells[0][2] == mark && b.cells[1][1] == mark && b.cells[2][0] == mark)
}

func (b *Board) IsFull() bool {
	for _, row := range b.cells {
		for _, m := range row {
			if m == Empty {
				return false
			}
		}
	}
	return true
}

// Encode returns the row-major state of the board.
func (b *Board) Encode() State {
	var s State
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			s[row*Size+col] = b.cells[row][col]
		}
	}
	return s
}

func (b *Board) Reset() {
	for row := range b.cells {
		for col := range b.cells[row] {
			b.cells[row][col] = Empty
		}
	}
}

// String renders the board for a terminal, with cell numbers on empty cells.
func (b *Board) String() string {
	var sb strings.Builder
	for row := 0; row < Size; row++ {
		if row > 0 {
			sb.WriteString("---+---+---\n")
		}
		for col := 0; col < Size; col++ {
			if col > 0 {
				sb.WriteByte('|')
			}
			m := b.cells[row][col]
			if m == Empty {
				sb.WriteString(" " + string(rune('0'+ActionAt(row, col))) + " ")
			} else {
				sb.WriteString(" " + m.String() + " ")
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
