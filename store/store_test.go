package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"tictactoe/game"
	"tictactoe/learner"
)

func sampleTable(t *testing.T) (*learner.ValueTable, game.State, learner.Row) {
	t.Helper()
	key, err := game.ParseState("X O O    ")
	require.NoError(t, err)
	row := learner.Row{0, 1, 2, 3, 4, 5, 6, 7, 8.5}
	table := learner.NewValueTable()
	table.Set(key, row)
	table.Set(game.EmptyState(), learner.Row{4: 0.1})
	return table, key, row
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		table, key, row := sampleTable(t)
		s := NewFile(filepath.Join(t.TempDir(), "values.csv"))

		require.NoError(t, s.Save(ctx, table))
		loaded, err := s.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, loaded.Len())

		got, ok := loaded.Lookup(key)
		require.True(t, ok)
		require.Equal(t, row, got)
	})

	t.Run("line format", func(t *testing.T) {
		table, _, _ := sampleTable(t)
		var sb strings.Builder
		require.NoError(t, Encode(&sb, table))
		require.Equal(t,
			"         ,0,0,0,0,0.1,0,0,0,0\n"+
				"X O O    ,0,1,2,3,4,5,6,7,8.5\n",
			sb.String(), "Lines should be sorted by state")
	})

	t.Run("missing file is an empty table", func(t *testing.T) {
		s := NewFile(filepath.Join(t.TempDir(), "absent.csv"))
		loaded, err := s.Load(ctx)
		require.NoError(t, err)
		require.Zero(t, loaded.Len())
	})

	t.Run("malformed lines are skipped", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "values.csv")
		content := strings.Join([]string{
			"X O O    ,0,1,2,3,4,5,6,7,8.5",
			"no values",
			"XX,1,2",
			"  O  X   ,one,2",
			"    X    ,1,2,3,4,5,6,7,8,9,10",
			"  O  X   ,0.25,0.5",
			"",
		}, "\n")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		loaded, err := NewFile(path).Load(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, loaded.Len())

		short, err := game.ParseState("  O  X   ")
		require.NoError(t, err)
		row, ok := loaded.Lookup(short)
		require.True(t, ok, "Short rows should load with trailing zeros")
		require.Equal(t, learner.Row{0.25, 0.5}, row)
	})

	t.Run("unreadable path returns an empty table and the error", func(t *testing.T) {
		loaded, err := NewFile(t.TempDir()).Load(ctx)
		require.Error(t, err)
		require.NotNil(t, loaded)
		require.Zero(t, loaded.Len())
	})

	t.Run("reset", func(t *testing.T) {
		table, _, _ := sampleTable(t)
		s := NewFile(filepath.Join(t.TempDir(), "values.csv"))
		require.NoError(t, s.Save(ctx, table))

		require.NoError(t, Reset(ctx, s))
		loaded, err := s.Load(ctx)
		require.NoError(t, err)
		require.Zero(t, loaded.Len())
	})
}

func TestBadgerStore(t *testing.T) {
	ctx := context.Background()

	t.Run("in-memory round trip", func(t *testing.T) {
		s, err := OpenBadger(BadgerOptions{InMemory: true})
		require.NoError(t, err)
		defer s.Close()

		empty, err := s.Load(ctx)
		require.NoError(t, err)
		require.Zero(t, empty.Len())

		table, key, row := sampleTable(t)
		require.NoError(t, s.Save(ctx, table))

		loaded, err := s.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, loaded.Len())
		got, ok := loaded.Lookup(key)
		require.True(t, ok)
		require.Equal(t, row, got)
	})

	t.Run("save replaces previous content", func(t *testing.T) {
		s, err := OpenBadger(BadgerOptions{InMemory: true})
		require.NoError(t, err)
		defer s.Close()

		table, key, _ := sampleTable(t)
		require.NoError(t, s.Save(ctx, table))

		smaller := learner.NewValueTable()
		smaller.Set(key, learner.Row{8: 1})
		require.NoError(t, s.Save(ctx, smaller))

		loaded, err := s.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, loaded.Len())

		require.NoError(t, Reset(ctx, s))
		loaded, err = s.Load(ctx)
		require.NoError(t, err)
		require.Zero(t, loaded.Len())
	})

	t.Run("row encoding", func(t *testing.T) {
		row := learner.Row{-1, 0.5, 0, 0, 0, 0, 0, 0, 1e-9}
		got, ok := decodeRow(encodeRow(row))
		require.True(t, ok)
		require.Equal(t, row, got)

		_, ok = decodeRow([]byte{1, 2, 3})
		require.False(t, ok)
	})
}

func TestOpen(t *testing.T) {
	s, err := Open(FileKind, filepath.Join(t.TempDir(), "values.csv"))
	require.NoError(t, err)
	require.IsType(t, &File{}, s)

	_, err = Open(Kind("sqlite"), "")
	require.ErrorIs(t, err, ErrUnknownKind)
}
