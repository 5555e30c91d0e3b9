// Package run composes the pipeline: for each candidate it opens a
// navigation session, drains the pagination engine, routes every item
// through the dedup catalog into the sink fan-out, and finalizes the run
// report. One candidate's failure never aborts the batch.
package run

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"extractor-engine/internal/catalog"
	"extractor-engine/internal/domain"
	"extractor-engine/internal/engine"
	"extractor-engine/internal/events"
	"extractor-engine/internal/identity"
	"extractor-engine/internal/metrics"
	"extractor-engine/internal/nav"
	"extractor-engine/internal/report"
	"extractor-engine/internal/sink"

	"github.com/gofrs/flock"
)

// ErrCancelled reports a cooperative stop. It ends the batch but is not an
// error state for reporting purposes.
var ErrCancelled = errors.New("run cancelled")

type Orchestrator struct {
	Catalog *catalog.Catalog
	Sinks   *sink.Coordinator
	Opener  nav.Opener
	Hub     *events.Hub   // optional
	Reports report.Writer // optional

	Engine  engine.Config
	LockDir string

	// Credentials resolves a portal password for a username; wired to the
	// keyring in production, stubbed in tests. Optional.
	Credentials func(username string) (string, error)
}

// RunCandidate drives one candidate end to end and always returns the
// finalized metrics snapshot, even on fatal errors.
func (o *Orchestrator) RunCandidate(ctx context.Context, cand domain.Candidate) (metrics.RunMetrics, error) {
	mc := metrics.StartRun(cand.ID, cand.Keywords, cand.Locations)
	o.Hub.Publish(events.TypeRunStarted, mc.RunID(), cand.ID, "")

	runErr := o.runCandidate(ctx, cand, mc)

	if runErr != nil {
		if errors.Is(runErr, ErrCancelled) {
			mc.Cancelled()
			mc.Warning("run cancelled")
		} else {
			mc.Error(runErr.Error())
		}
	}

	m := mc.End()
	if o.Reports != nil {
		if err := o.Reports.WriteReport(m); err != nil {
			log.Printf("[run] report write failed for %s: %v", m.RunID, err)
		}
	}
	o.Hub.Publish(events.TypeRunFinished, m.RunID, cand.ID,
		fmt.Sprintf("found=%d saved=%d", m.JobsFound, m.JobsSaved))
	return m, runErr
}

func (o *Orchestrator) runCandidate(ctx context.Context, cand domain.Candidate, mc *metrics.Collector) error {
	// The browser profile is an exclusive resource; hold it for the whole
	// run and release it on every exit path.
	if o.LockDir != "" {
		lock := flock.New(filepath.Join(o.LockDir, "profile-"+cand.ID+".lock"))
		ok, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("profile lock: %w", err)
		}
		if !ok {
			return fmt.Errorf("profile for candidate %s is locked by another run", cand.ID)
		}
		defer func() { _ = lock.Unlock() }()
	}

	password := ""
	if o.Credentials != nil && cand.Username != "" {
		pw, err := o.Credentials(cand.Username)
		if err != nil {
			log.Printf("[run] %s: no credential, browsing anonymously: %v", cand.ID, err)
			mc.Warning("no credential found, browsing anonymously")
		} else {
			password = pw
		}
	}

	sess, err := o.Opener.Open(ctx, cand, password)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Printf("[run] %s: session close: %v", cand.ID, cerr)
		}
	}()

	eng := engine.New(sess.Navigator(), o.Engine, mc)

	saved := 0
	for {
		batch, err := eng.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ErrCancelled
			}
			return fmt.Errorf("pagination: %w", err)
		}
		if batch == nil {
			return nil
		}

		for _, it := range batch {
			if err := ctx.Err(); err != nil {
				return ErrCancelled
			}
			if cand.MaxItems > 0 && saved >= cand.MaxItems {
				log.Printf("[run] %s: reached item cap (%d), stopping", cand.ID, cand.MaxItems)
				return nil
			}

			mc.Found()

			key, err := identity.Key(it)
			if err != nil {
				mc.SkippedOther()
				continue
			}

			// the item is already counted found; on a fatal catalog error it
			// must still land in a bucket so the finalized counts add up
			exists, err := o.Catalog.Exists(ctx, key, cand.ID)
			if err != nil {
				mc.Failed()
				return fmt.Errorf("dedup check: %w", err)
			}
			if exists {
				mc.SkippedDuplicate()
				continue
			}

			inserted, err := o.Catalog.Record(ctx, key, cand.ID)
			if err != nil {
				mc.Failed()
				return fmt.Errorf("dedup record: %w", err)
			}
			if !inserted {
				// a parallel lane recorded the key between check and insert
				mc.SkippedDuplicate()
				continue
			}

			rec := domain.SinkRecord{
				Item:        it,
				Key:         key,
				CandidateID: cand.ID,
				RunID:       mc.RunID(),
				RecordedAt:  time.Now().UTC(),
			}

			res := o.Sinks.Commit(ctx, rec, mc.Retry)
			primary := o.Sinks.Primary()
			if res.PrimaryOK(primary) {
				mc.Saved()
				saved++
				o.Hub.Publish(events.TypeItemSaved, mc.RunID(), cand.ID, it.Title)
			} else {
				mc.Failed()
				mc.Error(fmt.Sprintf("primary sink %s failed for %q: %v", primary, it.Title, res[primary].Err))
			}
			for name, out := range res {
				if name != primary && out.Err != nil {
					mc.Warning(fmt.Sprintf("sink %s failed for %q: %v", name, it.Title, out.Err))
				}
			}
		}
	}
}
