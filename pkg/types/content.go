// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ExtractedContent is the readable text of one fetched search result.
type ExtractedContent struct {
	// URL is the address that was fetched (after redirects).
	URL string `json:"url" yaml:"url"`

	// Title is the page title, falling back to the search result title.
	Title string `json:"title" yaml:"title"`

	// Content is the page body converted to Markdown.
	Content string `json:"content" yaml:"content"`

	// Source is the provider that surfaced the URL.
	Source Source `json:"source" yaml:"source"`

	// Rank is the 1-based position of the result in the ranked search list.
	Rank int `json:"rank" yaml:"rank"`

	FetchedAt time.Time `json:"fetchedAt" yaml:"fetched_at"`
}

// Chunk is a bounded slice of extracted content handed to analysis.
type Chunk struct {
	// ID is "<rank>-<index>", stable for a given extraction.
	ID string `json:"id" yaml:"id"`

	URL   string `json:"url" yaml:"url"`
	Title string `json:"title" yaml:"title"`

	// Index is the chunk's position within its source document.
	Index int `json:"index" yaml:"index"`

	Text string `json:"text" yaml:"text"`
}
