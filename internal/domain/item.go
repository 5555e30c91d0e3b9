package domain

import "time"

// RawItem is one discovered posting as returned by the navigation
// collaborator. Ephemeral: produced per page/scroll cycle, never persisted
// directly.
type RawItem struct {
	Title     string
	Company   string
	Location  string
	SourceURL string
	Page      int // page (or scroll cycle) the item was discovered on
}

// SinkRecord is the durable shape handed to every storage sink. Each sink
// may flatten it differently, but all of them keep Key so a record can be
// re-applied idempotently.
type SinkRecord struct {
	Item        RawItem
	Key         string
	CandidateID string
	RunID       string
	RecordedAt  time.Time
}
