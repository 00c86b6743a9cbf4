// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"regexp"
	"strings"
)

const (
	// minFragmentLen is the shortest fragment kept after splitting.
	minFragmentLen = 10

	// maxSubQueries bounds how many sub-queries one search fans out to.
	maxSubQueries = 3
)

var (
	multiConceptRe = regexp.MustCompile(`(?i),|\band\b|\bor\b`)
	splitRe        = regexp.MustCompile(`(?i)[,;]|\b(?:and|or)\b`)
)

// Decompose splits a compound query into up to three sub-queries. A query
// without a comma, "and" or "or" is returned unchanged, as is one that does
// not yield at least two fragments of minFragmentLen characters.
func Decompose(query string) []string {
	if !multiConceptRe.MatchString(query) {
		return []string{query}
	}

	var parts []string
	for _, p := range splitRe.Split(query, -1) {
		p = strings.TrimSpace(p)
		if len(p) >= minFragmentLen {
			parts = append(parts, p)
		}
	}
	if len(parts) <= 1 {
		return []string{query}
	}
	if len(parts) > maxSubQueries {
		parts = parts[:maxSubQueries]
	}
	return parts
}
