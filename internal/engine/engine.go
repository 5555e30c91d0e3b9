// Package engine drives a paginated results feed to completion. It owns the
// run-local recency window used to tell "feed is advancing" from "feed is
// re-rendering the same cards", and it is the only component that decides
// when a run stops fetching.
package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"extractor-engine/internal/domain"
	"extractor-engine/internal/identity"
	"extractor-engine/internal/metrics"
	"extractor-engine/internal/nav"
)

type State int

const (
	StateIdle State = iota
	StateFetching
	StateHasMore
	StateStalled
	StateExhausted
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateHasMore:
		return "has_more"
	case StateStalled:
		return "stalled"
	case StateExhausted:
		return "exhausted"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

type Config struct {
	StallThreshold int
	MaxPages       int
	MaxScrolls     int
	FetchTimeout   time.Duration
	FetchRetries   int
	RetryBackoff   time.Duration
}

// Engine is the pagination state machine. Not safe for concurrent use; each
// run owns exactly one instance.
type Engine struct {
	nav nav.Navigator
	cfg Config
	mc  *metrics.Collector

	state     State
	window    map[string]bool // run-local recency window, distinct from the durable catalog
	stalls    int             // consecutive fetches with zero window-novel items
	recovered bool            // the one recovery attempt has been spent
	fetches   int
}

func New(n nav.Navigator, cfg Config, mc *metrics.Collector) *Engine {
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	return &Engine{
		nav:    n,
		cfg:    cfg,
		mc:     mc,
		state:  StateIdle,
		window: make(map[string]bool),
	}
}

func (e *Engine) State() State { return e.state }

// Next returns the next batch of items new to this run, or (nil, nil) once
// the feed is exhausted and the engine has terminated. A non-nil error is
// fatal for the run: retry budget spent or the run was cancelled.
func (e *Engine) Next(ctx context.Context) ([]domain.RawItem, error) {
	for e.state != StateTerminated {
		if err := ctx.Err(); err != nil {
			e.terminate()
			return nil, err
		}

		if e.atCeiling() {
			log.Printf("[engine] fetch ceiling reached (%d %s fetches), stopping", e.fetches, e.nav.Mode())
			e.mc.Warning(fmt.Sprintf("fetch ceiling reached after %d fetches", e.fetches))
			e.state = StateExhausted
			e.terminate()
			return nil, nil
		}

		e.state = StateFetching
		batch, err := e.fetch(ctx)
		if err != nil {
			e.terminate()
			return nil, err
		}

		novel := e.filterNovel(batch.Items)

		switch {
		case len(novel) > 0:
			e.stalls = 0
			if batch.HasMore {
				e.state = StateHasMore
			} else {
				// final page still produced items; deliver them and stop
				e.state = StateExhausted
				e.terminate()
			}
			return novel, nil

		case !batch.HasMore:
			e.state = StateExhausted
			e.terminate()
			return nil, nil

		default:
			e.stalls++
			if e.stalls < e.cfg.StallThreshold {
				continue
			}
			e.state = StateStalled
			if e.recovered {
				log.Printf("[engine] feed still stalled after recovery, giving up")
				e.mc.Warning("feed stalled after recovery attempt")
				e.state = StateExhausted
				e.terminate()
				return nil, nil
			}
			log.Printf("[engine] feed stalled (%d fetches with no new items), attempting recovery", e.stalls)
			e.mc.Warning(fmt.Sprintf("feed stalled after %d fetches, attempting recovery", e.stalls))
			e.recover(ctx)
			// one more stale fetch after recovery exhausts the feed
			e.recovered = true
			e.stalls = e.cfg.StallThreshold - 1
		}
	}
	return nil, nil
}

func (e *Engine) atCeiling() bool {
	if e.nav.Mode() == nav.ModeScrolled {
		return e.fetches >= e.cfg.MaxScrolls
	}
	return e.fetches >= e.cfg.MaxPages
}

// fetch performs one advance with a bounded timeout, retrying transient
// collaborator errors with backoff up to the configured bound.
func (e *Engine) fetch(ctx context.Context) (nav.Batch, error) {
	var lastErr error
	for attempt := 0; attempt <= e.cfg.FetchRetries; attempt++ {
		if attempt > 0 {
			e.mc.Retry("fetch")
			select {
			case <-ctx.Done():
				return nav.Batch{}, ctx.Err()
			case <-time.After(e.cfg.RetryBackoff << (attempt - 1)):
			}
		}

		fctx := ctx
		var cancel context.CancelFunc
		if e.cfg.FetchTimeout > 0 {
			fctx, cancel = context.WithTimeout(ctx, e.cfg.FetchTimeout)
		}
		batch, err := e.nav.Advance(fctx)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			e.fetches++
			if e.nav.Mode() == nav.ModeScrolled {
				e.mc.Scroll()
			} else {
				e.mc.Page()
			}
			return batch, nil
		}
		if ctx.Err() != nil {
			return nav.Batch{}, ctx.Err()
		}
		lastErr = err
		log.Printf("[engine] fetch attempt %d failed: %v", attempt+1, err)
	}
	return nav.Batch{}, fmt.Errorf("fetch failed after %d attempts: %w", e.cfg.FetchRetries+1, lastErr)
}

// filterNovel returns the items not yet seen in this run's window and adds
// them to it. Window membership uses the item identity when derivable so a
// re-rendered card with a cosmetically different URL still counts as seen.
func (e *Engine) filterNovel(items []domain.RawItem) []domain.RawItem {
	var out []domain.RawItem
	for _, it := range items {
		k, err := identity.Key(it)
		if err != nil {
			// keyless items still pass through; the orchestrator counts them
			k = "raw:" + it.Title + "|" + it.Company + "|" + it.SourceURL
		}
		if e.window[k] {
			continue
		}
		e.window[k] = true
		out = append(out, it)
	}
	return out
}

func (e *Engine) recover(ctx context.Context) {
	rctx := ctx
	var cancel context.CancelFunc
	if e.cfg.FetchTimeout > 0 {
		rctx, cancel = context.WithTimeout(ctx, e.cfg.FetchTimeout)
		defer cancel()
	}
	if err := e.nav.Recover(rctx); err != nil {
		log.Printf("[engine] recovery action failed: %v", err)
		e.mc.Warning(fmt.Sprintf("recovery action failed: %v", err))
	}
}

func (e *Engine) terminate() {
	e.state = StateTerminated
}
