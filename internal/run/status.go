package run

import (
	"sync/atomic"
	"time"
)

// BatchStatus is the last-known state of the scheduled batch, read by the
// daily loop's log line and the status endpoint.
type BatchStatus struct {
	LastRunAt string `json:"last_run_at,omitempty"`
	LastOkAt  string `json:"last_ok_at,omitempty"`
	LastError string `json:"last_error,omitempty"`
	LastSaved int    `json:"last_saved"`
	Running   bool   `json:"running"`
}

// StatusTracker is safe for concurrent read/update.
type StatusTracker struct {
	v atomic.Value // holds BatchStatus
}

func (t *StatusTracker) Get() BatchStatus {
	if s, ok := t.v.Load().(BatchStatus); ok {
		return s
	}
	return BatchStatus{}
}

func (t *StatusTracker) MarkRunning() {
	s := t.Get()
	s.Running = true
	s.LastRunAt = time.Now().Format(time.RFC3339)
	t.v.Store(s)
}

func (t *StatusTracker) MarkDone(saved int, err error) {
	s := t.Get()
	s.Running = false
	s.LastSaved = saved
	if err != nil {
		s.LastError = err.Error()
	} else {
		s.LastError = ""
		s.LastOkAt = time.Now().Format(time.RFC3339)
	}
	t.v.Store(s)
}
