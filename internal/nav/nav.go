// Package nav defines the boundary to the navigation collaborator: the
// browser-automation (or plain HTTP) driver that renders the results feed
// and hands back card-level data. The engine only ever sees this interface.
package nav

import (
	"context"

	"extractor-engine/internal/domain"
)

// Mode tells the engine which navigation counter a fetch increments.
type Mode int

const (
	ModePaged Mode = iota
	ModeScrolled
)

func (m Mode) String() string {
	if m == ModeScrolled {
		return "scrolled"
	}
	return "paged"
}

// Batch is the result of one advance action.
type Batch struct {
	Items   []domain.RawItem
	HasMore bool // collaborator's own "more results available" signal
}

// Navigator drives one results feed within an open session.
type Navigator interface {
	// Advance performs one load-more / next-page / scroll action and reads
	// the currently rendered items.
	Advance(ctx context.Context) (Batch, error)

	// Recover is the single alternate action the engine tries after a stall
	// (longer settle wait, forced reload) before giving the feed up.
	Recover(ctx context.Context) error

	Mode() Mode
}

// Session is one exclusive browsing session for a candidate. Closed on
// every exit path.
type Session interface {
	Navigator() Navigator
	Close() error
}

// Opener starts sessions. password is empty for anonymous browsing.
type Opener interface {
	Open(ctx context.Context, cand domain.Candidate, password string) (Session, error)
}
