// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Chunk splits every content into overlapping windows and interleaves them
// round-robin across sources, so the cap does not starve lower-ranked
// pages. maxChunks <= 0 uses the configured cap.
func (e *WebExtractor) Chunk(contents []types.ExtractedContent, maxChunks int) []types.Chunk {
	if maxChunks <= 0 {
		maxChunks = e.cfg.MaxChunks
	}
	return chunkContents(contents, e.cfg.ChunkSize, e.cfg.Overlap, maxChunks)
}

func chunkContents(contents []types.ExtractedContent, size, overlap, maxChunks int) []types.Chunk {
	perDoc := make([][]types.Chunk, len(contents))
	for i, c := range contents {
		for j, text := range splitText(c.Content, size, overlap) {
			perDoc[i] = append(perDoc[i], types.Chunk{
				ID:    fmt.Sprintf("%d-%d", c.Rank, j),
				URL:   c.URL,
				Title: c.Title,
				Index: j,
				Text:  text,
			})
		}
	}

	var out []types.Chunk
	for round := 0; ; round++ {
		added := false
		for _, doc := range perDoc {
			if round >= len(doc) {
				continue
			}
			out = append(out, doc[round])
			added = true
			if maxChunks > 0 && len(out) == maxChunks {
				return out
			}
		}
		if !added {
			return out
		}
	}
}

// splitText cuts text into windows of at most size characters, each
// starting overlap characters before the previous one ended. Cuts prefer a
// paragraph break, then whitespace, in the second half of the window.
func splitText(text string, size, overlap int) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 || size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var out []string
	for start := 0; start < len(runes); {
		end := start + size
		if end >= len(runes) {
			if s := strings.TrimSpace(string(runes[start:])); s != "" {
				out = append(out, s)
			}
			break
		}
		end = cutPoint(runes, start, end)
		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			out = append(out, s)
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

func cutPoint(runes []rune, start, end int) int {
	floor := start + (end-start)/2
	for i := end; i > floor+1; i-- {
		if runes[i-1] == '\n' && runes[i-2] == '\n' {
			return i
		}
	}
	for i := end; i > floor; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}
