package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"tictactoe/game"
)

type GameMetric struct {
	Starter       game.Mark
	Winner        game.Mark // Empty on a draw
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
	TotalMoves    int
	RejectedMoves int
}

// WinnerLabel names the winner of a game for labels and records.
func WinnerLabel(winner game.Mark) string {
	if winner == game.Empty {
		return "draw"
	}
	return winner.String()
}

// Collector follows a single game.
type Collector interface {
	Start(starter game.Mark)
	AddMove()
	AddRejectedMove()
	Complete(winner game.Mark) GameMetric
}

type collector struct {
	starter   game.Mark
	startTime time.Time
	moves     atomic.Int32
	rejected  atomic.Int32
}

func NewCollector() Collector {
	return &collector{}
}

func (c *collector) Start(starter game.Mark) {
	c.starter = starter
	c.startTime = time.Now()
	c.moves.Store(0)
	c.rejected.Store(0)
}

func (c *collector) AddMove() {
	c.moves.Add(1)
}

func (c *collector) AddRejectedMove() {
	c.rejected.Add(1)
}

func (c *collector) Complete(winner game.Mark) GameMetric {
	end := time.Now()
	return GameMetric{
		Starter:       c.starter,
		Winner:        winner,
		StartTime:     c.startTime,
		EndTime:       end,
		Duration:      end.Sub(c.startTime),
		TotalMoves:    int(c.moves.Load()),
		RejectedMoves: int(c.rejected.Load()),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (c *dummyCollector) Start(starter game.Mark)              {}
func (c *dummyCollector) AddMove()                             {}
func (c *dummyCollector) AddRejectedMove()                     {}
func (c *dummyCollector) Complete(winner game.Mark) GameMetric { return GameMetric{Winner: winner} }

// Sink receives the metric of every finished game. Implementations are safe for
// concurrent use.
type Sink interface {
	Record(m GameMetric)
}

type tee []Sink

// Tee forwards every metric to all sinks, in order.
func Tee(sinks ...Sink) Sink {
	return tee(sinks)
}

func (t tee) Record(m GameMetric) {
	for _, s := range t {
		s.Record(m)
	}
}

// Records accumulates numbered game records for one pairing of players.
type Records struct {
	mu      sync.Mutex
	x, o    string
	records []GameRecord
}

func NewRecords(x, o string) *Records {
	return &Records{x: x, o: o}
}

func (r *Records) Record(m GameMetric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, GameRecord{
		ID:         len(r.records) + 1,
		PlayerX:    r.x,
		PlayerO:    r.o,
		GameMetric: m,
	})
}

func (r *Records) All() []GameRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]GameRecord(nil), r.records...)
}
