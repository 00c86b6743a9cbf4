// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/deep-research/pkg/types"
)

// FormatTable writes results as a human-readable table to w.
func FormatTable(resp types.SearchResponse, w io.Writer) {
	if len(resp.Results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-7s  %-30s  %s\n", "Rank", "Title", "Score", "Sources", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 130))

	for i, r := range resp.Results {
		fmt.Fprintf(w, "%-4d  %-60s  %-7.1f  %-30s  %s\n",
			i+1, truncate(r.Title, 60), r.RelevanceScore, truncate(joinSources(r), 30), r.URL)
	}

	st := resp.Stats
	fmt.Fprintf(w, "\n%d results from %d raw hits (%d after deduplication) in %dms",
		st.FinalResults, st.TotalSources, st.AfterDeduplication, st.Duration)
	if st.FailedTasks > 0 {
		fmt.Fprintf(w, "; %d of %d provider calls failed", st.FailedTasks, st.Tasks)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes the response as indented JSON to w.
func FormatJSON(resp types.SearchResponse, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func joinSources(r types.SearchResult) string {
	if len(r.Sources) == 0 {
		return string(r.Source)
	}
	parts := make([]string, len(r.Sources))
	for i, s := range r.Sources {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
