package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"extractor-engine/internal/metrics"

	"github.com/stretchr/testify/assert"
)

func sampleMetrics() metrics.RunMetrics {
	return metrics.RunMetrics{
		RunID:            "20260828_120000_alice",
		CandidateID:      "alice",
		StartedAt:        time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
		EndedAt:          time.Date(2026, 8, 28, 12, 5, 0, 0, time.UTC),
		Keywords:         []string{"go", "backend"},
		Locations:        []string{"Remote"},
		JobsFound:        12,
		JobsSaved:        7,
		SkippedDuplicate: 4,
		FailedToSave:     1,
		PagesVisited:     3,
		RetriesByStep:    map[string]int{"fetch": 2, "sink:csv": 1},
		Errors: []metrics.Entry{
			{Timestamp: time.Now(), Message: "primary sink sqlite failed for \"x\""},
		},
	}
}

func TestRenderSections(t *testing.T) {
	out := Render(sampleMetrics())

	assert.Contains(t, out, "EXTRACTION RUN SUMMARY")
	assert.Contains(t, out, "SEARCH PARAMETERS")
	assert.Contains(t, out, "EXTRACTION RESULTS")
	assert.Contains(t, out, "NAVIGATION")
	assert.Contains(t, out, "ERRORS & RETRIES")
	assert.Contains(t, out, "go, backend")
	assert.Contains(t, out, "fetch")
	assert.Contains(t, out, "5.00 minutes")
}

func TestRenderCancelled(t *testing.T) {
	m := sampleMetrics()
	m.Cancelled = true
	assert.Contains(t, Render(m), "run cancelled")
}

func TestFileWriterPersistsJSON(t *testing.T) {
	dir := t.TempDir()
	w := FileWriter{Dir: dir}

	m := sampleMetrics()
	assert.NoError(t, w.WriteReport(m))

	raw, err := os.ReadFile(filepath.Join(dir, m.RunID+".json"))
	assert.NoError(t, err)

	var got metrics.RunMetrics
	assert.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, m.RunID, got.RunID)
	assert.Equal(t, 7, got.JobsSaved)
	assert.Equal(t, 2, got.RetriesByStep["fetch"])
}

func TestMultiFanOut(t *testing.T) {
	dir := t.TempDir()
	w := Multi{LogWriter{}, FileWriter{Dir: dir}}

	m := sampleMetrics()
	assert.NoError(t, w.WriteReport(m))

	_, err := os.Stat(filepath.Join(dir, m.RunID+".json"))
	assert.NoError(t, err)
}
