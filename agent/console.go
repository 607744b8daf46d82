package agent

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"tictactoe/game"
)

type consoleAgent struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewConsole returns an opponent asking a human for moves. A move is either a cell
// index (0-8) or "row col". Unusable input is reported and asked for again; only
// exhausted input yields NoAction, which the game loop rejects.
func NewConsole(in io.Reader, out io.Writer) Opponent {
	return &consoleAgent{in: bufio.NewScanner(in), out: out}
}

func (a *consoleAgent) SelectOpponentMove(state game.State) game.Action {
	fmt.Fprintf(a.out, "\n%s\n", game.NewBoardFrom(state))
	for {
		fmt.Fprint(a.out, "your move (cell or row col): ")
		if !a.in.Scan() {
			return game.NoAction
		}
		action, err := parseMove(a.in.Text())
		if err != nil {
			fmt.Fprintf(a.out, "%v\n", err)
			continue
		}
		if !action.Valid() {
			fmt.Fprintf(a.out, "cell %d is off the board\n", action)
			continue
		}
		if !state.IsEmpty(action) {
			fmt.Fprintf(a.out, "cell %d is taken\n", action)
			continue
		}
		return action
	}
}

func parseMove(text string) (game.Action, error) {
	fields := strings.Fields(text)
	switch len(fields) {
	case 1:
		cell, err := strconv.Atoi(fields[0])
		if err != nil {
			return game.NoAction, fmt.Errorf("invalid cell %q", fields[0])
		}
		return game.Action(cell), nil
	case 2:
		row, err := strconv.Atoi(fields[0])
		if err != nil {
			return game.NoAction, fmt.Errorf("invalid row %q", fields[0])
		}
		col, err := strconv.Atoi(fields[1])
		if err != nil {
			return game.NoAction, fmt.Errorf("invalid column %q", fields[1])
		}
		if row < 0 || row >= game.Size || col < 0 || col >= game.Size {
			return game.NoAction, fmt.Errorf("cell (%d,%d) is off the board", row, col)
		}
		return game.ActionAt(row, col), nil
	}
	return game.NoAction, fmt.Errorf("expected a cell or a row and a column, got %q", text)
}
