package htmlfeed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func listingServer(t *testing.T, pages int, perPage int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 || page > pages {
			fmt.Fprint(w, `<html><body><ul></ul></body></html>`)
			return
		}
		fmt.Fprint(w, "<html><body><ul>")
		for i := 0; i < perPage; i++ {
			fmt.Fprintf(w, `<li class="job-card">
  <h3>Engineer %d-%d</h3>
  <span class="company">Acme</span>
  <span class="location">Remote</span>
  <a href="/jobs/view/%d-%d">view</a>
</li>`, page, i, page, i)
		}
		fmt.Fprint(w, "</ul>")
		if page < pages {
			fmt.Fprintf(w, `<a rel="next" href="?page=%d">Next</a>`, page+1)
		}
		fmt.Fprint(w, "</body></html>")
	}))
}

func TestAdvanceParsesCards(t *testing.T) {
	srv := listingServer(t, 2, 3)
	defer srv.Close()

	f := New(srv.URL, []string{"go"}, "Remote", nil)
	batch, err := f.Advance(context.Background())

	assert.NoError(t, err)
	assert.Len(t, batch.Items, 3)
	assert.True(t, batch.HasMore)

	it := batch.Items[0]
	assert.Equal(t, "Engineer 1-0", it.Title)
	assert.Equal(t, "Acme", it.Company)
	assert.Equal(t, "Remote", it.Location)
	assert.Equal(t, srv.URL+"/jobs/view/1-0", it.SourceURL, "relative hrefs resolve against the feed host")
	assert.Equal(t, 1, it.Page)
}

func TestAdvanceWalksPages(t *testing.T) {
	srv := listingServer(t, 3, 2)
	defer srv.Close()

	f := New(srv.URL, nil, "", nil)
	ctx := context.Background()

	total := 0
	for i := 0; i < 3; i++ {
		batch, err := f.Advance(ctx)
		assert.NoError(t, err)
		total += len(batch.Items)
	}
	assert.Equal(t, 6, total)

	// page 4 is past the feed
	batch, err := f.Advance(ctx)
	assert.NoError(t, err)
	assert.Empty(t, batch.Items)
	assert.False(t, batch.HasMore)
}

func TestAdvanceAnchorFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body>
<a href="/jobs/view/1">Backend Engineer</a>
<a href="/jobs/view/1">Backend Engineer (dup link)</a>
<a href="/about">About us</a>
</body></html>`)
	}))
	defer srv.Close()

	f := New(srv.URL, nil, "", nil)
	batch, err := f.Advance(context.Background())

	assert.NoError(t, err)
	assert.Len(t, batch.Items, 1, "non-posting and duplicate anchors are dropped")
	assert.Equal(t, "Backend Engineer", batch.Items[0].Title)
}

func TestAdvanceErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := New(srv.URL, nil, "", nil)
	_, err := f.Advance(context.Background())
	assert.ErrorContains(t, err, "status 503")
}

func TestPageURLCarriesSearchParams(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.String()
		fmt.Fprint(w, "<html></html>")
	}))
	defer srv.Close()

	f := New(srv.URL, []string{"go", "backend"}, "Austin, TX", nil)
	_, err := f.Advance(context.Background())
	assert.NoError(t, err)
	assert.Contains(t, got, "keywords=go%2Cbackend")
	assert.Contains(t, got, "location=Austin%2C+TX")
	assert.Contains(t, got, "page=1")
}

func TestRecoverCancellable(t *testing.T) {
	f := New("https://example.com/jobs", nil, "", nil)
	assert.Equal(t, 1, f.page)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// cancelled before the settle wait elapses
	err := f.Recover(ctx)
	assert.Error(t, err)
	assert.Equal(t, 1, f.page)
}
