package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"extractor-engine/internal/domain"
)

// CSV appends accepted items to an export file. Safe for concurrent use.
type CSV struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

var csvHeader = []string{
	"key", "title", "company", "location", "url", "candidate_id", "run_id", "recorded_at",
}

// NewCSV opens (or creates) the export file, writing the header row only
// when the file is new. Intermediate directories are created automatically.
func NewCSV(path string) (*CSV, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("csv sink: create output dir: %w", err)
	}

	info, err := os.Stat(path)
	fresh := err != nil || info.Size() == 0

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("csv sink: open %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(csvHeader); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("csv sink: write header: %w", err)
		}
		w.Flush()
	}

	return &CSV{file: f, writer: w}, nil
}

func (c *CSV) Name() string { return "csv" }

func (c *CSV) Write(_ context.Context, rec domain.SinkRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	row := []string{
		rec.Key,
		rec.Item.Title,
		rec.Item.Company,
		rec.Item.Location,
		rec.Item.SourceURL,
		rec.CandidateID,
		rec.RunID,
		rec.RecordedAt.UTC().Format(time.RFC3339),
	}
	if err := c.writer.Write(row); err != nil {
		return fmt.Errorf("csv sink: write row: %w", err)
	}
	c.writer.Flush()
	return c.writer.Error()
}

func (c *CSV) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writer.Flush()
	return c.file.Close()
}
