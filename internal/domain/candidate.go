package domain

// Candidate is one search profile the batch processes end to end.
type Candidate struct {
	ID        string
	Keywords  []string
	Locations []string
	FeedURL   string // listing feed the navigator drives
	Username  string // portal account; empty means anonymous browsing
	Enabled   bool   // run flag; disabled candidates are skipped
	MaxItems  int    // 0 means no per-candidate cap
}
