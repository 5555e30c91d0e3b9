package httpapi

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ReportsHandler serves the per-run JSON snapshots the FileWriter drops.
type ReportsHandler struct {
	Dir string
}

func (h ReportsHandler) List(w http.ResponseWriter, _ *http.Request) {
	entries, err := os.ReadDir(h.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			writeJSON(w, http.StatusOK, map[string]any{"runs": []string{}})
			return
		}
		writeError(w, http.StatusInternalServerError, "report_dir", err.Error())
		return
	}

	var runs []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		runs = append(runs, strings.TrimSuffix(e.Name(), ".json"))
	}
	// run IDs start with a timestamp, so lexical order is newest-last
	sort.Sort(sort.Reverse(sort.StringSlice(runs)))
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// GetByPath expects /reports/{run_id}.
func (h ReportsHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/reports/")
	if id == "" || strings.ContainsAny(id, "/\\") {
		writeError(w, http.StatusBadRequest, "bad_run_id", "run id required")
		return
	}

	b, err := os.ReadFile(filepath.Join(h.Dir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			writeError(w, http.StatusNotFound, "not_found", "no report for run "+id)
			return
		}
		writeError(w, http.StatusInternalServerError, "report_read", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}
