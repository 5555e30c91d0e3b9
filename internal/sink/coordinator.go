package sink

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"extractor-engine/internal/domain"

	"golang.org/x/sync/errgroup"
)

// Outcome is one sink's result for one record.
type Outcome struct {
	Saved   bool
	Err     error
	Retries int
}

// Result maps sink name to outcome for a single committed record.
type Result map[string]Outcome

func (r Result) AnySaved() bool {
	for _, o := range r {
		if o.Saved {
			return true
		}
	}
	return false
}

// PrimaryOK reports whether the designated sink of record saved. The
// orchestrator counts an item as saved only when this holds; secondary
// failures become warnings.
func (r Result) PrimaryOK(primary string) bool {
	return r[primary].Saved
}

// Coordinator fans one record out to every configured sink. Sinks are
// invoked independently: one sink failing (or panicking) never blocks or
// rolls back the others.
type Coordinator struct {
	sinks      []Sink
	primary    string
	retryBound int
	backoff    time.Duration
}

func NewCoordinator(primary string, retryBound int, backoff time.Duration, sinks ...Sink) *Coordinator {
	return &Coordinator{
		sinks:      sinks,
		primary:    primary,
		retryBound: retryBound,
		backoff:    backoff,
	}
}

func (c *Coordinator) Primary() string { return c.primary }

func (c *Coordinator) Names() []string {
	out := make([]string, 0, len(c.sinks))
	for _, s := range c.sinks {
		out = append(out, s.Name())
	}
	return out
}

// Commit writes the record to every sink concurrently and never returns an
// error itself; per-sink failures are isolated into the Result. onRetry (may
// be nil) is called once per retry with the step name "sink:<name>"; each
// run passes its own metrics callback so parallel lanes stay independent.
func (c *Coordinator) Commit(ctx context.Context, rec domain.SinkRecord, onRetry func(step string)) Result {
	res := make(Result, len(c.sinks))
	var mu sync.Mutex

	var g errgroup.Group
	for _, s := range c.sinks {
		s := s
		g.Go(func() error {
			out := c.commitOne(ctx, s, rec, onRetry)
			mu.Lock()
			res[s.Name()] = out
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return res
}

func (c *Coordinator) commitOne(ctx context.Context, s Sink, rec domain.SinkRecord, onRetry func(step string)) (out Outcome) {
	defer func() {
		if p := recover(); p != nil {
			out = Outcome{Err: fmt.Errorf("sink %s panicked: %v", s.Name(), p), Retries: out.Retries}
		}
	}()

	var err error
	for attempt := 0; ; attempt++ {
		err = s.Write(ctx, rec)
		if err == nil {
			out.Saved = true
			return out
		}
		if errors.Is(err, ErrPermanent) {
			break
		}
		// Cancellation abandons in-flight retries.
		if ctx.Err() != nil {
			break
		}
		if attempt >= c.retryBound {
			break
		}

		out.Retries++
		if onRetry != nil {
			onRetry("sink:" + s.Name())
		}

		// exponential backoff, cancellable
		wait := c.backoff << attempt
		select {
		case <-ctx.Done():
			out.Err = ctx.Err()
			return out
		case <-time.After(wait):
		}
	}
	out.Err = err
	return out
}

// Close closes every sink, keeping the first error.
func (c *Coordinator) Close() error {
	var first error
	for _, s := range c.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = fmt.Errorf("close sink %s: %w", s.Name(), err)
		}
	}
	return first
}
