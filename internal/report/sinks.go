package report

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"extractor-engine/internal/metrics"
)

// Writer receives the finalized RunMetrics snapshot of each run. Report
// delivery is best-effort; failures never affect run accounting.
type Writer interface {
	WriteReport(m metrics.RunMetrics) error
}

// LogWriter prints the rendered summary to the process log.
type LogWriter struct{}

func (LogWriter) WriteReport(m metrics.RunMetrics) error {
	log.Printf("[report]%s", Render(m))
	return nil
}

// FileWriter drops one machine-readable JSON snapshot per run for downstream
// tooling.
type FileWriter struct {
	Dir string
}

func (f FileWriter) WriteReport(m metrics.RunMetrics) error {
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return fmt.Errorf("report dir: %w", err)
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(f.Dir, m.RunID+".json")
	return os.WriteFile(path, b, 0o644)
}

// Multi fans the snapshot out to every configured writer, logging (not
// propagating) individual failures.
type Multi []Writer

func (ws Multi) WriteReport(m metrics.RunMetrics) error {
	for _, w := range ws {
		if err := w.WriteReport(m); err != nil {
			log.Printf("[report] writer %T failed: %v", w, err)
		}
	}
	return nil
}
