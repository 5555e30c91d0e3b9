// Package httpapi is the small local control surface: batch status, run
// reports, a live event stream, and a manual trigger. It binds to loopback
// and carries no auth; it is not meant to be exposed.
package httpapi

import (
	"extractor-engine/internal/events"
	"extractor-engine/internal/run"
)

type Deps struct {
	Status    *run.StatusTracker
	Hub       *events.Hub
	ReportDir string

	// Trigger requests a batch run; nil disables POST /runs. Returns false
	// when a batch is already in flight.
	Trigger func() bool
}
