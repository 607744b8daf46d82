package metrics

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"tictactoe/game"
)

func TestCollector(t *testing.T) {
	t.Run("counts moves and rejections", func(t *testing.T) {
		c := NewCollector()
		c.Start(game.X)
		for i := 0; i < 7; i++ {
			c.AddMove()
		}
		c.AddRejectedMove()

		m := c.Complete(game.X)
		require.Equal(t, game.X, m.Starter)
		require.Equal(t, game.X, m.Winner)
		require.Equal(t, 7, m.TotalMoves)
		require.Equal(t, 1, m.RejectedMoves)
		require.False(t, m.EndTime.Before(m.StartTime))
	})

	t.Run("start resets counters", func(t *testing.T) {
		c := NewCollector()
		c.Start(game.X)
		c.AddMove()
		c.Start(game.O)
		require.Zero(t, c.Complete(game.Empty).TotalMoves)
	})

	t.Run("dummy", func(t *testing.T) {
		c := NewDummyCollector()
		c.Start(game.X)
		c.AddMove()
		require.Equal(t, GameMetric{Winner: game.O}, c.Complete(game.O))
	})
}

func TestPrometheus(t *testing.T) {
	p := NewPrometheus("test")
	records := NewRecords("random", "learner")
	sink := Tee(p, records)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			winner := game.Empty
			if i%2 == 0 {
				winner = game.O
			}
			sink.Record(GameMetric{Winner: winner, TotalMoves: 9, RejectedMoves: 1, Duration: time.Millisecond})
		}(i)
	}
	wg.Wait()

	require.Equal(t, 5.0, testutil.ToFloat64(p.Games.WithLabelValues("O")))
	require.Equal(t, 5.0, testutil.ToFloat64(p.Games.WithLabelValues("draw")))
	require.Equal(t, 10.0, testutil.ToFloat64(p.Rejected))
	require.Equal(t, 1, testutil.CollectAndCount(p.Moves))

	all := records.All()
	require.Len(t, all, 10)
	ids := map[int]bool{}
	for _, r := range all {
		ids[r.ID] = true
		require.Equal(t, "random", r.PlayerX)
	}
	require.Len(t, ids, 10, "Record ids should be unique")
}

func TestWriter(t *testing.T) {
	w, err := NewWriter(t.TempDir(), "train")
	require.NoError(t, err)
	require.NotEmpty(t, w.RunID())

	t.Run("game records", func(t *testing.T) {
		start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		err := w.WriteGameRecords([]GameRecord{{
			ID: 1, PlayerX: "perfect", PlayerO: "learner",
			GameMetric: GameMetric{Starter: game.X, Winner: game.Empty, TotalMoves: 9, StartTime: start, EndTime: start, Duration: time.Second},
		}})
		require.NoError(t, err)

		f, err := os.Open(filepath.Join(w.Dir(), "game_records.csv"))
		require.NoError(t, err)
		defer f.Close()
		rows, err := csv.NewReader(f).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 2)
		require.Equal(t, []string{"1", "perfect", "learner", "X", "draw", "9", "0"}, rows[1][:7])
	})

	t.Run("run info", func(t *testing.T) {
		require.NoError(t, w.WriteRunInfo(RunInfo{Command: "train", Episodes: 100, Results: map[string]int{"draw": 3}}))

		data, err := os.ReadFile(filepath.Join(w.Dir(), "run.yaml"))
		require.NoError(t, err)
		var info RunInfo
		require.NoError(t, yaml.Unmarshal(data, &info))
		require.Equal(t, w.RunID(), info.ID)
		require.Equal(t, 100, info.Episodes)
		require.Equal(t, 3, info.Results["draw"])
	})

	t.Run("metrics and curve", func(t *testing.T) {
		p := NewPrometheus("train")
		p.Record(GameMetric{Winner: game.X, TotalMoves: 5})
		require.NoError(t, w.WriteMetrics(p))
		data, err := os.ReadFile(filepath.Join(w.Dir(), "metrics.prom"))
		require.NoError(t, err)
		require.Contains(t, string(data), `tictactoe_train_games_total{winner="X"} 1`)

		require.NoError(t, w.WriteCurve([]CurvePoint{{Episodes: 100, Opponent: "random", Wins: 7}}))
		_, err = os.Stat(filepath.Join(w.Dir(), "learning_curve.csv"))
		require.NoError(t, err)
	})

	t.Run("long curves are written completely", func(t *testing.T) {
		points := make([]CurvePoint, 5000)
		for i := range points {
			points[i] = CurvePoint{Episodes: (i + 1) * 100, Opponent: "perfect", Draws: i}
		}
		require.NoError(t, w.WriteCurve(points))

		f, err := os.Open(filepath.Join(w.Dir(), "learning_curve.csv"))
		require.NoError(t, err)
		defer f.Close()
		rows, err := csv.NewReader(f).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, len(points)+1, "Every point should be on disk once the write returns")
		require.Equal(t, "4999", rows[len(rows)-1][4])
	})

	t.Run("write failures are returned", func(t *testing.T) {
		gone, err := NewWriter(t.TempDir(), "train")
		require.NoError(t, err)
		require.NoError(t, os.RemoveAll(gone.Dir()))

		require.Error(t, gone.WriteCurve([]CurvePoint{{Episodes: 1}}))
		require.Error(t, gone.WriteGameRecords(nil))
	})
}
