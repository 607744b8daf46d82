package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tictactoe/game"
	"tictactoe/learner"
)

const valueSize = game.Cells * 8

type BadgerOptions struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
}

// Badger keeps a table in an embedded badger database: the key is the 9 state bytes,
// the value 9 little-endian float64.
type Badger struct {
	db *badger.DB
}

type badgerLogger struct {
	logger zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msgf(format, args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn().Msgf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Trace().Msgf(format, args...)
}

func OpenBadger(options BadgerOptions) (*Badger, error) {
	var opts badger.Options
	if options.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if options.Path == "" {
			return nil, errors.New("badger store needs a path")
		}
		if err := os.MkdirAll(options.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create badger directory %s: %w", options.Path, err)
		}
		opts = badger.DefaultOptions(options.Path)
	}
	opts = opts.WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{logger: log.With().Str("component", "badger").Logger()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Load(ctx context.Context) (*learner.ValueTable, error) {
	table := learner.NewValueTable()
	if err := ctx.Err(); err != nil {
		return table, err
	}

	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key, err := game.ParseState(string(item.Key()))
			if err != nil {
				log.Debug().Err(err).Msg("skipping badger entry")
				continue
			}
			err = item.Value(func(val []byte) error {
				row, ok := decodeRow(val)
				if !ok {
					log.Debug().Str("state", key.String()).Int("size", len(val)).Msg("skipping badger entry")
					return nil
				}
				table.Set(key, row)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return learner.NewValueTable(), fmt.Errorf("read badger value table: %w", err)
	}
	return table, nil
}

func (b *Badger) Save(ctx context.Context, table *learner.ValueTable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.db.DropAll(); err != nil {
		return fmt.Errorf("clear badger value table: %w", err)
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range table.Keys() {
		row, _ := table.Lookup(key)
		if err := wb.Set([]byte(key.String()), encodeRow(row)); err != nil {
			return fmt.Errorf("write badger value table: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("write badger value table: %w", err)
	}
	return nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}

func encodeRow(row learner.Row) []byte {
	buf := make([]byte, valueSize)
	for i, v := range row {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func decodeRow(buf []byte) (learner.Row, bool) {
	var row learner.Row
	if len(buf) != valueSize {
		return row, false
	}
	for i := range row {
		row[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return row, true
}
