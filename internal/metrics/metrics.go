package metrics

import (
	"sync"
	"time"
)

// Entry is one recorded error or warning.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// RunMetrics is the finalized, immutable snapshot of one extraction run.
// Invariant on every finalized snapshot:
// JobsFound = JobsSaved + SkippedDuplicate + SkippedOther + FailedToSave.
type RunMetrics struct {
	RunID       string    `json:"run_id"`
	CandidateID string    `json:"candidate_id"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	Keywords    []string  `json:"keywords"`
	Locations   []string  `json:"locations"`

	JobsFound        int `json:"jobs_found"`
	JobsSaved        int `json:"jobs_saved"`
	SkippedDuplicate int `json:"skipped_duplicate"`
	SkippedOther     int `json:"skipped_other"`
	FailedToSave     int `json:"failed_to_save"`

	PagesVisited   int `json:"pages_visited"`
	ScrollAttempts int `json:"scroll_attempts"`

	Errors        []Entry        `json:"errors"`
	Warnings      []Entry        `json:"warnings"`
	RetriesByStep map[string]int `json:"retries_by_step"`

	Cancelled bool `json:"cancelled"`
}

func (m RunMetrics) Duration() time.Duration {
	end := m.EndedAt
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(m.StartedAt)
}

func (m RunMetrics) CountsConsistent() bool {
	return m.JobsFound == m.JobsSaved+m.SkippedDuplicate+m.SkippedOther+m.FailedToSave
}

// Collector accumulates counters for a single run. One instance per run,
// owned by the orchestrator invocation that created it; parallel candidate
// lanes each get their own. Record methods never fail.
type Collector struct {
	mu  sync.Mutex
	cur RunMetrics
}

func StartRun(candidateID string, keywords, locations []string) *Collector {
	now := time.Now()
	return &Collector{
		cur: RunMetrics{
			RunID:         now.UTC().Format("20060102_150405") + "_" + candidateID,
			CandidateID:   candidateID,
			StartedAt:     now,
			Keywords:      append([]string(nil), keywords...),
			Locations:     append([]string(nil), locations...),
			RetriesByStep: make(map[string]int),
		},
	}
}

func (c *Collector) RunID() string { return c.cur.RunID }

func (c *Collector) Found() {
	c.mu.Lock()
	c.cur.JobsFound++
	c.mu.Unlock()
}

func (c *Collector) Saved() {
	c.mu.Lock()
	c.cur.JobsSaved++
	c.mu.Unlock()
}

func (c *Collector) SkippedDuplicate() {
	c.mu.Lock()
	c.cur.SkippedDuplicate++
	c.mu.Unlock()
}

func (c *Collector) SkippedOther() {
	c.mu.Lock()
	c.cur.SkippedOther++
	c.mu.Unlock()
}

func (c *Collector) Failed() {
	c.mu.Lock()
	c.cur.FailedToSave++
	c.mu.Unlock()
}

func (c *Collector) Page() {
	c.mu.Lock()
	c.cur.PagesVisited++
	c.mu.Unlock()
}

func (c *Collector) Scroll() {
	c.mu.Lock()
	c.cur.ScrollAttempts++
	c.mu.Unlock()
}

func (c *Collector) Error(msg string) {
	c.mu.Lock()
	c.cur.Errors = append(c.cur.Errors, Entry{Timestamp: time.Now(), Message: msg})
	c.mu.Unlock()
}

func (c *Collector) Warning(msg string) {
	c.mu.Lock()
	c.cur.Warnings = append(c.cur.Warnings, Entry{Timestamp: time.Now(), Message: msg})
	c.mu.Unlock()
}

func (c *Collector) Retry(step string) {
	c.mu.Lock()
	c.cur.RetriesByStep[step]++
	c.mu.Unlock()
}

func (c *Collector) Cancelled() {
	c.mu.Lock()
	c.cur.Cancelled = true
	c.mu.Unlock()
}

// End finalizes the run and returns the immutable snapshot. Further record
// calls after End are not expected; the snapshot is a copy either way.
func (c *Collector) End() RunMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur.EndedAt = time.Now()
	return c.snapshotLocked()
}

// Snapshot returns a copy of the counters so far without finalizing.
func (c *Collector) Snapshot() RunMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Collector) snapshotLocked() RunMetrics {
	out := c.cur
	out.Keywords = append([]string(nil), c.cur.Keywords...)
	out.Locations = append([]string(nil), c.cur.Locations...)
	out.Errors = append([]Entry(nil), c.cur.Errors...)
	out.Warnings = append([]Entry(nil), c.cur.Warnings...)
	out.RetriesByStep = make(map[string]int, len(c.cur.RetriesByStep))
	for k, v := range c.cur.RetriesByStep {
		out.RetriesByStep[k] = v
	}
	return out
}
