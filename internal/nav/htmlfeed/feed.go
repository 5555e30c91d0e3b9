// Package htmlfeed is a nav.Navigator over server-rendered listing pages:
// feeds that paginate with a plain query parameter and need no browser.
// Browser-driven feeds plug in behind the same nav interfaces.
package htmlfeed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"extractor-engine/internal/domain"
	"extractor-engine/internal/identity"
	"extractor-engine/internal/nav"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "extractor-engine/1.0 (+local)"

// card selector candidates, most specific first
var cardSelectors = []string{
	"li.job-card",
	"div.job-card",
	".job-listing",
	"[data-testid='job-card']",
	".opening",
}

type Feed struct {
	baseURL  string
	host     string // rate-limit bucket, resolved once from baseURL
	keywords []string
	location string

	page int
	hc   *http.Client
	lim  *HostLimiter
}

func New(baseURL string, keywords []string, location string, lim *HostLimiter) *Feed {
	host := ""
	if u, err := url.Parse(baseURL); err == nil {
		host = u.Host
	}
	return &Feed{
		baseURL:  baseURL,
		host:     host,
		keywords: keywords,
		location: location,
		page:     1,
		hc:       &http.Client{Timeout: 20 * time.Second},
		lim:      lim,
	}
}

func (f *Feed) Mode() nav.Mode { return nav.ModePaged }

func (f *Feed) pageURL() string {
	u, err := url.Parse(f.baseURL)
	if err != nil {
		return f.baseURL
	}
	q := u.Query()
	if len(f.keywords) > 0 {
		q.Set("keywords", strings.Join(f.keywords, ","))
	}
	if f.location != "" {
		q.Set("location", f.location)
	}
	q.Set("page", strconv.Itoa(f.page))
	u.RawQuery = q.Encode()
	return u.String()
}

func (f *Feed) Advance(ctx context.Context) (nav.Batch, error) {
	pageURL := f.pageURL()
	if f.lim != nil {
		if err := f.lim.Wait(ctx, f.host); err != nil {
			return nav.Batch{}, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nav.Batch{}, fmt.Errorf("htmlfeed: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := f.hc.Do(req)
	if err != nil {
		return nav.Batch{}, fmt.Errorf("htmlfeed: get page %d: %w", f.page, err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nav.Batch{}, fmt.Errorf("htmlfeed: page %d status %d", f.page, res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nav.Batch{}, fmt.Errorf("htmlfeed: parse page %d: %w", f.page, err)
	}

	items := f.parseCards(doc)
	hasMore := hasNextLink(doc) || len(items) > 0

	f.page++
	return nav.Batch{Items: items, HasMore: hasMore}, nil
}

func (f *Feed) parseCards(doc *goquery.Document) []domain.RawItem {
	var cards *goquery.Selection
	for _, sel := range cardSelectors {
		if s := doc.Find(sel); s.Length() > 0 {
			cards = s
			break
		}
	}

	var items []domain.RawItem
	add := func(title, company, location, href string) {
		title = identity.CleanText(title)
		if title == "" && href == "" {
			return
		}
		items = append(items, domain.RawItem{
			Title:     title,
			Company:   identity.CleanText(company),
			Location:  identity.NormalizeLocation(location),
			SourceURL: f.absoluteURL(href),
			Page:      f.page,
		})
	}

	if cards != nil {
		cards.Each(func(_ int, card *goquery.Selection) {
			href, _ := card.Find("a[href]").First().Attr("href")
			if href == "" {
				href, _ = card.Attr("data-href")
			}
			add(
				firstText(card, "h2", "h3", ".title", "a"),
				firstText(card, ".company", "[data-testid='company']", "h4"),
				firstText(card, ".location", "[data-testid='location']"),
				href,
			)
		})
		return items
	}

	// fallback: bare listing pages that only expose posting anchors
	seen := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || !strings.Contains(strings.ToLower(href), "/jobs/") {
			return
		}
		abs := f.absoluteURL(href)
		if seen[abs] {
			return
		}
		seen[abs] = true
		add(a.Text(), "", "", href)
	})
	return items
}

func (f *Feed) absoluteURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || !strings.HasPrefix(href, "/") {
		return href
	}
	base, err := url.Parse(f.baseURL)
	if err != nil {
		return href
	}
	return base.Scheme + "://" + base.Host + href
}

func firstText(s *goquery.Selection, selectors ...string) string {
	for _, sel := range selectors {
		if t := strings.TrimSpace(s.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func hasNextLink(doc *goquery.Document) bool {
	if doc.Find(`link[rel="next"], a[rel="next"]`).Length() > 0 {
		return true
	}
	found := false
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		t := strings.ToLower(strings.TrimSpace(a.Text()))
		if t == "next" || t == "next page" || strings.Contains(a.AttrOr("class", ""), "pagination__button--next") {
			found = true
			return false
		}
		return true
	})
	return found
}

// Recover waits the feed out, then skips one page ahead: the alternate
// navigation action for boards whose load-more re-renders the same cards.
func (f *Feed) Recover(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
	}
	f.page++
	return nil
}
