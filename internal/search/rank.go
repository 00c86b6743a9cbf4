// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Ranking weights.
const (
	scoreWeight        = 10
	positionCeiling    = 10
	titleTermBonus     = 5
	snippetTermBonus   = 2
	corroborationBonus = 3
)

// DedupKey normalizes a URL for duplicate detection: lower-cased hostname
// without a leading "www." followed by the path without one trailing
// slash. Query strings and fragments are ignored. A URL that does not
// parse as absolute is keyed by its lower-cased raw form.
func DedupKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.ToLower(raw)
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	key := strings.TrimSuffix(host+path, "/")
	return strings.ToLower(key)
}

// deduplicate keeps one result per DedupKey in first-seen order. When a
// later duplicate has a strictly higher provider score it replaces the
// stored entry; either way the survivor's Sources is the union of both.
func deduplicate(results []types.SearchResult) []types.SearchResult {
	index := make(map[string]int, len(results))
	out := make([]types.SearchResult, 0, len(results))

	for _, r := range results {
		r.Sources = addSource(append([]types.Source(nil), r.Sources...), r.Source)

		key := DedupKey(r.URL)
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, r)
			continue
		}

		existing := out[i]
		if scoreOf(r) > scoreOf(existing) {
			merged := existing.Sources
			for _, s := range r.Sources {
				merged = addSource(merged, s)
			}
			r.Sources = merged
			out[i] = r
			continue
		}
		for _, s := range r.Sources {
			out[i].Sources = addSource(out[i].Sources, s)
		}
	}
	return out
}

func addSource(sources []types.Source, s types.Source) []types.Source {
	if s == "" {
		return sources
	}
	for _, existing := range sources {
		if existing == s {
			return sources
		}
	}
	return append(sources, s)
}

func scoreOf(r types.SearchResult) float64 {
	if r.Score == nil {
		return 0
	}
	return *r.Score
}

// rank assigns RelevanceScore to each result and returns them sorted
// descending. Equal scores keep their input order.
func rank(results []types.SearchResult, query string, now time.Time) []types.SearchResult {
	terms := strings.Fields(strings.ToLower(query))
	for i := range results {
		results[i].RelevanceScore = relevance(results[i], terms, now)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
	return results
}

func relevance(r types.SearchResult, terms []string, now time.Time) float64 {
	var score float64

	if r.Score != nil && *r.Score != 0 {
		score += *r.Score * scoreWeight
	}
	if r.Position != nil && *r.Position != 0 {
		score += float64(max(0, positionCeiling-*r.Position))
	}

	title := strings.ToLower(r.Title)
	snippet := strings.ToLower(r.Snippet)
	for _, term := range terms {
		if strings.Contains(title, term) {
			score += titleTermBonus
		}
		if strings.Contains(snippet, term) {
			score += snippetTermBonus
		}
	}

	if len(r.Sources) > 1 {
		score += corroborationBonus
	}

	dateStr := r.Date
	if dateStr == "" {
		dateStr = r.PublishedDate
	}
	if t, ok := parseDate(dateStr); ok {
		score += recencyBonus(now.Sub(t))
	}
	return score
}

func recencyBonus(age time.Duration) float64 {
	days := age.Hours() / 24
	switch {
	case days < 30:
		return 5
	case days < 90:
		return 3
	case days < 365:
		return 1
	}
	return 0
}

// dateLayouts are tried in order by parseDate.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.0000000",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
	time.RFC1123Z,
	time.RFC1123,
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Mon, 02 Jan 2006",
	"01/02/2006",
}

// parseDate reads the date formats providers return. It reports false for
// anything it cannot read.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
