package store

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"tictactoe/game"
	"tictactoe/learner"
)

// File keeps a table as text, one "<state>,<v0>,...,<v8>" line per canonical state.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Load(ctx context.Context) (*learner.ValueTable, error) {
	table := learner.NewValueTable()
	if err := ctx.Err(); err != nil {
		return table, err
	}

	file, err := os.Open(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return table, nil
	}
	if err != nil {
		return table, fmt.Errorf("open value table: %w", err)
	}
	defer file.Close()

	loaded, err := Decode(file)
	if err != nil {
		return table, fmt.Errorf("read value table %s: %w", f.path, err)
	}
	return loaded, nil
}

func (f *File) Save(ctx context.Context, table *learner.ValueTable) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	file, err := os.Create(f.path)
	if err != nil {
		return fmt.Errorf("create value table: %w", err)
	}
	w := bufio.NewWriter(file)
	if err := Encode(w, table); err != nil {
		file.Close()
		return fmt.Errorf("write value table %s: %w", f.path, err)
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("write value table %s: %w", f.path, err)
	}
	return file.Close()
}

func (f *File) Close() error { return nil }

// Encode writes table in the text format, sorted by state.
func Encode(w io.Writer, table *learner.ValueTable) error {
	for _, key := range table.Keys() {
		row, _ := table.Lookup(key)
		var sb strings.Builder
		sb.WriteString(key.String())
		for _, v := range row {
			sb.WriteByte(',')
			sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		sb.WriteByte('\n')
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads the text format. Malformed lines are skipped; missing trailing
// values are zero.
func Decode(r io.Reader) (*learner.ValueTable, error) {
	table := learner.NewValueTable()
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		key, row, err := parseLine(strings.TrimRight(scanner.Text(), "\r"))
		if err != nil {
			log.Debug().Int("line", line).Err(err).Msg("skipping value table line")
			continue
		}
		table.Set(key, row)
	}
	if err := scanner.Err(); err != nil {
		return learner.NewValueTable(), err
	}
	return table, nil
}

func parseLine(text string) (game.State, learner.Row, error) {
	var row learner.Row
	parts := strings.Split(text, ",")
	if len(parts) < 2 {
		return game.State{}, row, errors.New("no values")
	}
	if len(parts)-1 > game.Cells {
		return game.State{}, row, fmt.Errorf("%d values, want at most %d", len(parts)-1, game.Cells)
	}
	key, err := game.ParseState(parts[0])
	if err != nil {
		return game.State{}, row, err
	}
	for i, field := range parts[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return game.State{}, row, err
		}
		row[i] = v
	}
	return key, row, nil
}
