// Package events is the in-process pub/sub channel for run progress.
// Subscribers (live notifiers, tests) observe the pipeline without the
// orchestrator knowing who is listening.
package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	TypeRunStarted  = "run_started"
	TypeItemSaved   = "item_saved"
	TypeRunFinished = "run_finished"
)

type Event struct {
	Type        string    `json:"type"`
	At          time.Time `json:"at"`
	CandidateID string    `json:"candidate_id"`
	RunID       string    `json:"run_id"`
	Detail      string    `json:"detail,omitempty"`
}

func (e Event) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

type Hub struct {
	mu      sync.Mutex
	clients map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan Event]struct{})}
}

func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *Hub) Publish(typ, runID, candidateID, detail string) {
	if h == nil {
		return
	}
	evt := Event{
		Type:        typ,
		At:          time.Now().UTC(),
		CandidateID: candidateID,
		RunID:       runID,
		Detail:      detail,
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- evt:
		default:
			// drop if slow
		}
	}
}
