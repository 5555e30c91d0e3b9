package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"extractor-engine/internal/domain"
	"extractor-engine/internal/identity"
)

// API posts accepted items to the website backend. The backend enforces its
// own uniqueness on source_key, so resubmitting a record is harmless.
type API struct {
	baseURL string
	hc      *http.Client
}

func NewAPI(baseURL string) *API {
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *API) Name() string { return "api" }

type apiPosition struct {
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	Location    string `json:"location"`
	City        string `json:"city"`
	State       string `json:"state"`
	JobURL      string `json:"job_url"`
	Source      string `json:"source"`
	SourceUID   string `json:"source_uid"`
	CandidateID string `json:"candidate_id"`
	RunID       string `json:"run_id"`
	Status      string `json:"status"`
}

func (a *API) endpoint() string {
	// the backend mounts the router under /api; don't double it
	if strings.HasSuffix(a.baseURL, "/api") {
		return a.baseURL + "/positions/"
	}
	return a.baseURL + "/api/positions/"
}

func (a *API) Write(ctx context.Context, rec domain.SinkRecord) error {
	city, state := identity.SplitCityState(rec.Item.Location)

	payload := apiPosition{
		Title:       strings.ToLower(identity.CleanText(rec.Item.Title)),
		CompanyName: strings.ToLower(identity.CleanText(rec.Item.Company)),
		Location:    strings.ToLower(identity.CleanText(rec.Item.Location)),
		City:        strings.ToLower(city),
		State:       strings.ToLower(state),
		JobURL:      rec.Item.SourceURL,
		Source:      "extractor",
		SourceUID:   rec.Key,
		CandidateID: rec.CandidateID,
		RunID:       rec.RunID,
		Status:      "open",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return permanent(fmt.Errorf("api sink: marshal: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint(), bytes.NewReader(body))
	if err != nil {
		return permanent(fmt.Errorf("api sink: build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := a.hc.Do(req)
	if err != nil {
		return fmt.Errorf("api sink: post: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusOK || res.StatusCode == http.StatusCreated:
		return nil
	case res.StatusCode == http.StatusConflict:
		// already known server-side; idempotent success
		return nil
	case res.StatusCode >= 400 && res.StatusCode < 500:
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 200))
		return permanent(fmt.Errorf("api sink: status %d: %s", res.StatusCode, snippet))
	default:
		return fmt.Errorf("api sink: status %d", res.StatusCode)
	}
}

func (a *API) Close() error { return nil }
