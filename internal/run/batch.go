package run

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"extractor-engine/internal/domain"
	"extractor-engine/internal/metrics"

	"golang.org/x/sync/errgroup"
)

type BatchResult struct {
	Runs    []metrics.RunMetrics
	Skipped int
	Failed  int
}

func (b BatchResult) TotalSaved() int {
	n := 0
	for _, m := range b.Runs {
		n += m.JobsSaved
	}
	return n
}

// RunBatch processes candidates, by default sequentially: each candidate
// owns an exclusive profile/session. Set parallel > 1 only when sessions
// are fully isolated; every lane gets its own collector and run-local
// window, while the catalog and sinks are shared and concurrency-safe.
// The returned error is non-nil iff any candidate recorded a fatal error,
// so callers can surface a non-zero exit status without halting siblings.
func (o *Orchestrator) RunBatch(ctx context.Context, cands []domain.Candidate, parallel int) (BatchResult, error) {
	var res BatchResult

	eligible := make([]domain.Candidate, 0, len(cands))
	for _, c := range cands {
		if !c.Enabled {
			log.Printf("[batch] candidate %s disabled, skipping", c.ID)
			res.Skipped++
			continue
		}
		if len(c.Locations) == 0 {
			log.Printf("[batch] candidate %s has no locations, skipping", c.ID)
			res.Skipped++
			continue
		}
		eligible = append(eligible, c)
	}

	if parallel <= 1 {
		for _, c := range eligible {
			m, err := o.RunCandidate(ctx, c)
			res.Runs = append(res.Runs, m)
			if err != nil {
				if errors.Is(err, ErrCancelled) {
					return res, ErrCancelled
				}
				log.Printf("[batch] candidate %s failed: %v", c.ID, err)
				res.Failed++
			}
		}
	} else {
		var mu sync.Mutex
		var g errgroup.Group
		g.SetLimit(parallel)
		for _, c := range eligible {
			c := c
			g.Go(func() error {
				m, err := o.RunCandidate(ctx, c)
				mu.Lock()
				res.Runs = append(res.Runs, m)
				if err != nil && !errors.Is(err, ErrCancelled) {
					log.Printf("[batch] candidate %s failed: %v", c.ID, err)
					res.Failed++
				}
				mu.Unlock()
				return nil // failure isolation: never cancel sibling lanes
			})
		}
		_ = g.Wait()
		if ctx.Err() != nil {
			return res, ErrCancelled
		}
	}

	if res.Failed > 0 {
		return res, fmt.Errorf("%d of %d candidate runs failed", res.Failed, len(eligible))
	}
	return res, nil
}
