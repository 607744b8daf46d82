package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type GameRecord struct {
	ID      int
	PlayerX string
	PlayerO string
	GameMetric
}

// CurvePoint is the strength of the learner after a number of training episodes.
type CurvePoint struct {
	Episodes  int
	Opponent  string
	Wins      int
	Losses    int
	Draws     int
	TableSize int
}

// RunInfo describes one run of the program.
type RunInfo struct {
	ID           string         `yaml:"id"`
	Command      string         `yaml:"command"`
	Trainer      string         `yaml:"trainer,omitempty"`
	Episodes     int            `yaml:"episodes,omitempty"`
	LearningRate float64        `yaml:"learning_rate"`
	Discount     float64        `yaml:"discount"`
	Exploration  float64        `yaml:"exploration"`
	DrawReward   float64        `yaml:"draw_reward"`
	Seed         uint64         `yaml:"seed"`
	StartTime    time.Time      `yaml:"start_time"`
	EndTime      time.Time      `yaml:"end_time"`
	TableSize    int            `yaml:"table_size"`
	Results      map[string]int `yaml:"results,omitempty"`
}

type Writer struct {
	runID   string
	baseDir string
}

// NewWriter creates a fresh directory for one run under root/name.
func NewWriter(root, name string) (*Writer, error) {
	runID := uuid.NewString()
	timestamp := time.Now().UTC().Format("20060102T150405Z")
	baseDir := filepath.Join(root, name, timestamp+"-"+runID[:8])
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		runID:   runID,
		baseDir: baseDir,
	}, nil
}

func (w *Writer) RunID() string { return w.runID }

func (w *Writer) Dir() string { return w.baseDir }

func (w *Writer) WriteRunInfo(info RunInfo) error {
	if info.ID == "" {
		info.ID = w.runID
	}
	data, err := yaml.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to encode run info: %w", err)
	}
	err = os.WriteFile(filepath.Join(w.baseDir, "run.yaml"), data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write run info: %w", err)
	}
	return nil
}

func (w *Writer) WriteGameRecords(records []GameRecord) error {
	header := []string{"id", "player_x", "player_o", "starter", "winner", "moves", "rejected_moves", "start_time", "end_time", "duration"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.ID),
			record.PlayerX,
			record.PlayerO,
			record.Starter.String(),
			WinnerLabel(record.Winner),
			strconv.Itoa(record.TotalMoves),
			strconv.Itoa(record.RejectedMoves),
			record.StartTime.Format(time.RFC3339Nano),
			record.EndTime.Format(time.RFC3339Nano),
			record.Duration.String(),
		})
	}
	return w.writeCSV("game_records.csv", header, rows)
}

func (w *Writer) WriteCurve(points []CurvePoint) error {
	header := []string{"episodes", "opponent", "wins", "losses", "draws", "table_size"}
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{
			strconv.Itoa(p.Episodes),
			p.Opponent,
			strconv.Itoa(p.Wins),
			strconv.Itoa(p.Losses),
			strconv.Itoa(p.Draws),
			strconv.Itoa(p.TableSize),
		})
	}
	return w.writeCSV("learning_curve.csv", header, rows)
}

func (w *Writer) WriteMetrics(p *Prometheus) error {
	err := p.WriteToTextfile(filepath.Join(w.baseDir, "metrics.prom"))
	if err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

func (w *Writer) writeCSV(name string, header []string, rows [][]string) error {
	f, err := os.Create(filepath.Join(w.baseDir, name))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	if err := writer.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s rows: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	return nil
}
