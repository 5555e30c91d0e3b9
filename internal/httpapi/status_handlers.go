package httpapi

import (
	"net/http"

	"extractor-engine/internal/run"
)

type StatusHandler struct {
	Status  *run.StatusTracker
	Trigger func() bool
}

func (h StatusHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h StatusHandler) Get(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Status.Get())
}

// Run triggers a batch out of schedule.
func (h StatusHandler) Run(w http.ResponseWriter, _ *http.Request) {
	if h.Trigger == nil {
		writeError(w, http.StatusNotImplemented, "no_trigger", "manual runs are not enabled")
		return
	}
	if !h.Trigger() {
		writeError(w, http.StatusConflict, "already_running", "a batch is already in flight")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"started": true})
}
