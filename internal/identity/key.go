package identity

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strings"

	"extractor-engine/internal/domain"
)

// ErrNoIdentity means an item carries neither a usable URL nor enough text
// fields to derive a stable key. Callers count these as skippedOther.
var ErrNoIdentity = errors.New("identity: item has no derivable key")

// Key derives the deterministic identity of an item. URL-based when the
// source URL is present and not a junk/template link, otherwise a composite
// of title+company+location. Two items with equal Key are the same
// real-world posting.
func Key(it domain.RawItem) (string, error) {
	if u := CanonicalURL(it.SourceURL); u != "" && !isTooGenericURL(u) {
		return HashString("url:" + strings.ToLower(u)), nil
	}

	title := CleanText(it.Title)
	company := CleanText(it.Company)
	location := CleanText(it.Location)
	if title == "" && company == "" {
		return "", ErrNoIdentity
	}
	composite := strings.ToLower(title + "|" + company + "|" + location)
	return HashString("txt:" + composite), nil
}

// CanonicalURL normalizes a posting URL so cosmetic differences (tracking
// params, fragment, query order, host case) do not split identities.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	// drop common tracking params
	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") ||
			lk == "gclid" || lk == "fbclid" || lk == "msclkid" ||
			lk == "mc_cid" || lk == "mc_eid" ||
			lk == "mkt_tok" {
			q.Del(k)
		}
	}

	// feed pages address a posting by its id param; keep only that
	if id := q.Get("currentJobId"); id != "" {
		keep := url.Values{}
		keep.Set("currentJobId", id)
		q = keep
	}

	// deterministic query
	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func isTooGenericURL(u string) bool {
	lu := strings.ToLower(u)
	junks := []string{
		"/jobs/search",
		"/jobs/alerts",
		"unsubscribe",
		"preferences",
		"view-in-browser",
	}
	for _, j := range junks {
		if strings.Contains(lu, j) {
			return true
		}
	}
	return false
}

func HashString(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
