package htmlfeed

import (
	"context"
	"errors"
	"strings"

	"extractor-engine/internal/domain"
	"extractor-engine/internal/nav"
)

// Opener builds plain-HTTP feed sessions. Feeds served this way are browsed
// anonymously; the credential handed in by the orchestrator is ignored.
type Opener struct {
	Limiter        *HostLimiter
	DefaultFeedURL string
}

func (o *Opener) Open(_ context.Context, cand domain.Candidate, _ string) (nav.Session, error) {
	feedURL := strings.TrimSpace(cand.FeedURL)
	if feedURL == "" {
		feedURL = o.DefaultFeedURL
	}
	if feedURL == "" {
		return nil, errors.New("htmlfeed: candidate has no feed_url and no default feed is configured")
	}

	return &session{
		feed: New(feedURL, cand.Keywords, strings.Join(cand.Locations, ","), o.Limiter),
	}, nil
}

type session struct {
	feed *Feed
}

func (s *session) Navigator() nav.Navigator { return s.feed }

func (s *session) Close() error { return nil }
