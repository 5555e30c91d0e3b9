package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"extractor-engine/internal/domain"
	"extractor-engine/internal/metrics"
	"extractor-engine/internal/nav"

	"github.com/stretchr/testify/assert"
)

// scriptNav replays a fixed sequence of batches. After the script runs out
// it keeps returning the last batch, which models a feed re-rendering the
// same cards forever.
type scriptNav struct {
	script    []nav.Batch
	pos       int
	mode      nav.Mode
	advances  int
	recovers  int
	err       error // returned errN times before advancing resumes
	errN      int
	onRecover func(*scriptNav)
}

func (s *scriptNav) Advance(_ context.Context) (nav.Batch, error) {
	if s.errN > 0 {
		s.errN--
		return nav.Batch{}, s.err
	}
	s.advances++
	if len(s.script) == 0 {
		return nav.Batch{HasMore: true}, nil
	}
	b := s.script[s.pos]
	if s.pos < len(s.script)-1 {
		s.pos++
	}
	return b, nil
}

func (s *scriptNav) Recover(_ context.Context) error {
	s.recovers++
	if s.onRecover != nil {
		s.onRecover(s)
	}
	return nil
}

func (s *scriptNav) Mode() nav.Mode { return s.mode }

func items(prefix string, n int) []domain.RawItem {
	out := make([]domain.RawItem, n)
	for i := range out {
		out[i] = domain.RawItem{
			Title:     fmt.Sprintf("%s role %d", prefix, i),
			Company:   "Acme",
			SourceURL: fmt.Sprintf("https://example.com/jobs/view/%s-%d", prefix, i),
		}
	}
	return out
}

func testConfig() Config {
	return Config{
		StallThreshold: 3,
		MaxPages:       40,
		MaxScrolls:     120,
		FetchRetries:   2,
		RetryBackoff:   time.Millisecond,
	}
}

func drain(t *testing.T, e *Engine) []domain.RawItem {
	t.Helper()
	var all []domain.RawItem
	for {
		batch, err := e.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if batch == nil {
			return all
		}
		all = append(all, batch...)
	}
}

func TestThreePagesThenExhausted(t *testing.T) {
	n := &scriptNav{script: []nav.Batch{
		{Items: items("p1", 10), HasMore: true},
		{Items: items("p2", 10), HasMore: true},
		{Items: items("p3", 10), HasMore: false},
	}}
	mc := metrics.StartRun("alice", nil, nil)
	e := New(n, testConfig(), mc)

	got := drain(t, e)

	assert.Len(t, got, 30)
	assert.Equal(t, StateTerminated, e.State())
	assert.Equal(t, 3, n.advances)
	assert.Equal(t, 3, mc.Snapshot().PagesVisited)
	assert.Equal(t, 0, n.recovers)
}

func TestOverlappingPagesDeliveredOnce(t *testing.T) {
	p1 := items("page", 10)
	overlap := append(append([]domain.RawItem(nil), p1[5:]...), items("fresh", 5)...)

	n := &scriptNav{script: []nav.Batch{
		{Items: p1, HasMore: true},
		{Items: overlap, HasMore: false},
	}}
	e := New(n, testConfig(), metrics.StartRun("alice", nil, nil))

	got := drain(t, e)
	assert.Len(t, got, 15, "window filters items re-rendered on the next page")
}

func TestStallRecoverThenExhaust(t *testing.T) {
	// The feed claims more results but re-renders the same ten cards
	// forever. Threshold 3: first fetch delivers, fetches 2-4 accumulate
	// stalls, recovery fires once, fetch 5 is still stale and ends the run.
	same := items("frozen", 10)
	n := &scriptNav{script: []nav.Batch{{Items: same, HasMore: true}}}
	mc := metrics.StartRun("alice", nil, nil)
	e := New(n, testConfig(), mc)

	got := drain(t, e)

	assert.Len(t, got, 10, "only the first render is novel")
	assert.Equal(t, 1, n.recovers, "exactly one recovery attempt")
	assert.Equal(t, 5, n.advances)
	assert.Equal(t, StateTerminated, e.State())
}

func TestRecoveryUnblocksFeed(t *testing.T) {
	same := items("stuck", 5)
	n := &scriptNav{script: []nav.Batch{{Items: same, HasMore: true}}}
	n.onRecover = func(s *scriptNav) {
		// recovery action reloads the page and the feed starts advancing
		s.script = []nav.Batch{{Items: items("after", 5), HasMore: false}}
		s.pos = 0
	}
	e := New(n, testConfig(), metrics.StartRun("alice", nil, nil))

	got := drain(t, e)
	assert.Len(t, got, 10, "items found after recovery are still delivered")
	assert.Equal(t, 1, n.recovers)
}

func TestFetchCeiling(t *testing.T) {
	// every fetch yields a fresh item and claims more, so only the ceiling
	// can stop the run
	n := &ceilingNav{}
	cfg := testConfig()
	cfg.MaxPages = 7
	mc := metrics.StartRun("alice", nil, nil)
	e := New(n, cfg, mc)

	got := drain(t, e)

	assert.Len(t, got, 7)
	assert.Equal(t, StateTerminated, e.State())
	assert.Equal(t, 7, mc.Snapshot().PagesVisited)
	assert.NotEmpty(t, mc.Snapshot().Warnings, "hitting the ceiling is reported")
}

type ceilingNav struct{ calls int }

func (c *ceilingNav) Advance(_ context.Context) (nav.Batch, error) {
	c.calls++
	return nav.Batch{
		Items:   []domain.RawItem{{Title: fmt.Sprintf("endless %d", c.calls), Company: "Acme"}},
		HasMore: true,
	}, nil
}
func (c *ceilingNav) Recover(_ context.Context) error { return nil }
func (c *ceilingNav) Mode() nav.Mode                  { return nav.ModePaged }

func TestScrolledModeUsesScrollCeiling(t *testing.T) {
	n := &scriptNav{
		mode:   nav.ModeScrolled,
		script: []nav.Batch{{Items: items("s", 3), HasMore: false}},
	}
	mc := metrics.StartRun("alice", nil, nil)
	e := New(n, testConfig(), mc)

	drain(t, e)
	snap := mc.Snapshot()
	assert.Equal(t, 1, snap.ScrollAttempts)
	assert.Equal(t, 0, snap.PagesVisited)
}

func TestTransientFetchErrorRetried(t *testing.T) {
	n := &scriptNav{
		script: []nav.Batch{{Items: items("ok", 2), HasMore: false}},
		err:    errors.New("timeout waiting for cards"),
		errN:   2,
	}
	mc := metrics.StartRun("alice", nil, nil)
	e := New(n, testConfig(), mc)

	got := drain(t, e)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, mc.Snapshot().RetriesByStep["fetch"])
}

func TestFetchRetryBudgetSpentIsFatal(t *testing.T) {
	n := &scriptNav{err: errors.New("gone"), errN: 99}
	e := New(n, testConfig(), metrics.StartRun("alice", nil, nil))

	batch, err := e.Next(context.Background())
	assert.Nil(t, batch)
	assert.Error(t, err)
	assert.ErrorContains(t, err, "fetch failed after 3 attempts")
	assert.Equal(t, StateTerminated, e.State())
}

func TestCancellationTerminates(t *testing.T) {
	n := &scriptNav{script: []nav.Batch{{Items: items("x", 1), HasMore: true}}}
	e := New(n, testConfig(), metrics.StartRun("alice", nil, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch, err := e.Next(ctx)
	assert.Nil(t, batch)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateTerminated, e.State())

	// terminated engines stay terminated
	batch, err = e.Next(context.Background())
	assert.Nil(t, batch)
	assert.NoError(t, err)
}

func TestEmptyFeed(t *testing.T) {
	n := &scriptNav{script: []nav.Batch{{HasMore: false}}}
	e := New(n, testConfig(), metrics.StartRun("alice", nil, nil))

	got := drain(t, e)
	assert.Empty(t, got)
	assert.Equal(t, StateTerminated, e.State())
	assert.Equal(t, 1, n.advances)
}
