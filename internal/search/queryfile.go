// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deep-research/pkg/types"
)

// QueryFile is the on-disk representation of a search and its results, so a
// search can be saved and reviewed later without re-querying providers.
type QueryFile struct {
	Query   string               `yaml:"query"`
	Options types.SearchOptions  `yaml:"options"`
	Results []types.SearchResult `yaml:"results"`
	Stats   types.SearchStats    `yaml:"stats"`
	SavedAt time.Time            `yaml:"saved_at"`
}

// Response returns the saved search as a SearchResponse.
func (qf *QueryFile) Response() types.SearchResponse {
	return types.SearchResponse{Results: qf.Results, Stats: qf.Stats}
}

// WriteQueryFile saves the query, its options and the response to a YAML file.
func WriteQueryFile(path, query string, opts types.SearchOptions, resp types.SearchResponse) error {
	qf := QueryFile{
		Query:   query,
		Options: opts,
		Results: resp.Results,
		Stats:   resp.Stats,
		SavedAt: time.Now().UTC(),
	}
	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	if qf.Query == "" {
		return nil, fmt.Errorf("query file %s has no query", path)
	}
	return &qf, nil
}
