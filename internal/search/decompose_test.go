// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecompose(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"no separators", "quantum error correction", []string{"quantum error correction"}},
		{"short fragments fall back", "cats, dogs, and birds", []string{"cats, dogs, and birds"}},
		{"one long fragment falls back", "cats and quantum error correction", []string{"cats and quantum error correction"}},
		{
			"two fragments",
			"renewable energy policy and carbon capture storage",
			[]string{"renewable energy policy", "carbon capture storage"},
		},
		{
			"case insensitive connective",
			"renewable energy policy OR carbon capture storage",
			[]string{"renewable energy policy", "carbon capture storage"},
		},
		{
			"semicolons split once detected",
			"renewable energy policy; carbon capture storage, grid battery chemistry",
			[]string{"renewable energy policy", "carbon capture storage", "grid battery chemistry"},
		},
		{
			"capped at three",
			"solar panel efficiency, wind turbine design, hydrogen fuel cells, tidal power plants",
			[]string{"solar panel efficiency", "wind turbine design", "hydrogen fuel cells"},
		},
		{
			"exactly ten characters kept",
			"abcdefghij, klmnopqrst",
			[]string{"abcdefghij", "klmnopqrst"},
		},
		{"words containing and are not split", "android operator handbook", []string{"android operator handbook"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decompose(tt.query))
		})
	}
}

func TestDecompose_FragmentProperties(t *testing.T) {
	queries := []string{
		"cats, dogs, and birds",
		"machine learning in healthcare, privacy regulations, and patient consent models",
		"history of the printing press or movable type in east asia",
	}
	for _, q := range queries {
		got := Decompose(q)
		assert.NotEmpty(t, got, q)
		assert.LessOrEqual(t, len(got), maxSubQueries, q)
		if len(got) == 1 {
			continue
		}
		last := -1
		for _, frag := range got {
			assert.GreaterOrEqual(t, len(strings.TrimSpace(frag)), minFragmentLen, q)
			idx := strings.Index(q, frag)
			assert.Greater(t, idx, last, "fragments keep query order")
			last = idx
		}
	}
}
