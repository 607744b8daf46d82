// Package experiments measures the strength of a learned table against the trainers.
package experiments

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"

	"tictactoe/agent"
	"tictactoe/engine"
	"tictactoe/experiments/metrics"
	"tictactoe/game"
	"tictactoe/learner"
)

const (
	DefaultGames   = 100 // Per opponent and side
	DefaultWorkers = 4
)

type Option func(a *Arena)

func WithGames(n int) Option {
	if n <= 0 {
		panic("games must be positive")
	}
	return func(a *Arena) {
		a.games = n
	}
}

func WithWorkers(n int) Option {
	if n <= 0 {
		panic("workers must be positive")
	}
	return func(a *Arena) {
		a.workers = n
	}
}

func WithSeed(seed uint64) Option {
	return func(a *Arena) {
		a.seed = seed
	}
}

// WithSink reports every game to sink in addition to the result records.
func WithSink(sink metrics.Sink) Option {
	return func(a *Arena) {
		a.sink = sink
	}
}

// WithBothSides also plays every opponent with the learner moving first.
func WithBothSides() Option {
	return func(a *Arena) {
		a.bothSides = true
	}
}

// Arena plays a frozen copy of a value table against opponents in parallel.
type Arena struct {
	games     int
	workers   int
	seed      uint64
	bothSides bool
	sink      metrics.Sink
}

// Result summarizes the games against one opponent, seen from the learner.
type Result struct {
	Opponent agent.Kind
	Wins     int
	Losses   int
	Draws    int
	Records  []metrics.GameRecord
}

func (r Result) Games() int { return r.Wins + r.Losses + r.Draws }

func NewArena(options ...Option) *Arena {
	a := &Arena{
		games:   DefaultGames,
		workers: DefaultWorkers,
		seed:    uint64(time.Now().UnixNano()),
	}
	for _, option := range options {
		option(a)
	}
	return a
}

type pairing struct {
	kind         agent.Kind
	learnerFirst bool
}

// Evaluate plays the learner greedily against each opponent kind. table is cloned, so
// the caller may keep training it afterwards.
func (a *Arena) Evaluate(ctx context.Context, table *learner.ValueTable, kinds []agent.Kind) ([]Result, error) {
	frozen := table.Clone()

	pairings := []pairing{}
	for _, kind := range kinds {
		pairings = append(pairings, pairing{kind: kind})
		if a.bothSides {
			pairings = append(pairings, pairing{kind: kind, learnerFirst: true})
		}
	}

	results := make([]Result, len(kinds))
	for i, kind := range kinds {
		results[i].Opponent = kind
	}

	log.Info().Msgf("starting evaluation of %d states against %d opponents...", frozen.Len(), len(kinds))
	for pi, p := range pairings {
		ri := pi
		if a.bothSides {
			ri = pi / 2
		}
		records, err := a.run(ctx, frozen, p, pi)
		if err != nil {
			return nil, err
		}

		learnerMark := game.O
		if p.learnerFirst {
			learnerMark = game.X
		}
		for _, record := range records {
			switch record.Winner {
			case learnerMark:
				results[ri].Wins++
			case game.Empty:
				results[ri].Draws++
			default:
				results[ri].Losses++
			}
		}
		results[ri].Records = append(results[ri].Records, records...)

		log.Info().Msgf("completed pairing %d of %d: learner as %s against %s", pi+1, len(pairings), learnerMark, p.kind)
	}

	for _, r := range results {
		log.Info().
			Str("opponent", string(r.Opponent)).
			Int("wins", r.Wins).
			Int("losses", r.Losses).
			Int("draws", r.Draws).
			Msg("evaluation result")
	}
	return results, nil
}

// run spreads the games of one pairing over the workers. Every worker owns its
// opponents, so only the frozen table is shared.
func (a *Arena) run(ctx context.Context, frozen *learner.ValueTable, p pairing, index int) ([]metrics.GameRecord, error) {
	name := string(p.kind)
	xName, oName := name, "learner"
	if p.learnerFirst {
		xName, oName = oName, xName
	}

	records := make([]metrics.GameRecord, a.games)
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < a.workers; w++ {
		w := w
		g.Go(func() error {
			rng := rand.New(rand.NewSource(a.seed + uint64(index*a.workers+w)))
			greedy := agent.NewAdvanced(frozen, 0, rng)

			opponentMark := game.X
			if p.learnerFirst {
				opponentMark = game.O
			}
			opponent, err := agent.New(p.kind, opponentMark, frozen, rng)
			if err != nil {
				return err
			}
			x, o := opponent, greedy
			if p.learnerFirst {
				x, o = greedy, opponent
			}

			for i := w; i < a.games; i += a.workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				collector := metrics.NewCollector()
				outcome, err := engine.PlayMatch(x, o, collector)
				if err != nil {
					return fmt.Errorf("game %d against %s: %w", i+1, name, err)
				}
				m := collector.Complete(outcome.Winner)
				records[i] = metrics.GameRecord{ID: i + 1, PlayerX: xName, PlayerO: oName, GameMetric: m}
				if a.sink != nil {
					a.sink.Record(m)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}
