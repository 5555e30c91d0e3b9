package sink

import (
	"context"
	"errors"

	"extractor-engine/internal/domain"
)

// Sink is one independent storage backend. Write must be safe to call again
// with the same record key: the primary sink relies on that for idempotent
// re-application.
type Sink interface {
	Name() string
	Write(ctx context.Context, rec domain.SinkRecord) error
	Close() error
}

// ErrPermanent marks failures that retrying cannot fix (schema mismatch,
// rejected payload). The coordinator fails the sink immediately instead of
// burning the retry budget.
var ErrPermanent = errors.New("permanent sink failure")

func permanent(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrPermanent, err)
}
