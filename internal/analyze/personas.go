// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/deep-research/pkg/types"
)

// DefaultPersonas is the consortium used when a request names none.
var DefaultPersonas = []string{
	"master-teacher",
	"classical-educator",
	"strategist",
	"theologian",
	"technical-architect",
	"debugger",
	"writer",
	"analyst",
}

// synthesisPersona voices the final synthesis.
const synthesisPersona = "writer"

var catalogue = map[string]types.Persona{
	"master-teacher": {
		ID: "master-teacher", Name: "Master Teacher",
		Focus: "how the material can be taught and learned: clarity, prerequisites and common misconceptions",
	},
	"classical-educator": {
		ID: "classical-educator", Name: "Classical Educator",
		Focus: "first principles, historical context and the enduring ideas behind the topic",
	},
	"strategist": {
		ID: "strategist", Name: "Strategist",
		Focus: "long-term implications, competitive dynamics and the decisions the findings inform",
	},
	"theologian": {
		ID: "theologian", Name: "Theologian",
		Focus: "ethical and moral questions and what the topic means for people",
	},
	"technical-architect": {
		ID: "technical-architect", Name: "Technical Architect",
		Focus: "system design, feasibility, scalability and integration",
	},
	"debugger": {
		ID: "debugger", Name: "Debugger",
		Focus: "weak evidence, contradictions between sources and likely failure modes",
	},
	"writer": {
		ID: "writer", Name: "Writer",
		Focus: "a clear narrative of the findings for a general reader",
	},
	"analyst": {
		ID: "analyst", Name: "Analyst",
		Focus: "quantitative evidence, data quality and how strongly the claims are supported",
	},
}

// Catalogue returns every known persona sorted by ID.
func Catalogue() []types.Persona {
	out := make([]types.Persona, 0, len(catalogue))
	for _, p := range catalogue {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Resolve maps persona IDs to personas, dropping repeats. An empty list
// resolves to DefaultPersonas. Unknown IDs are an error.
func Resolve(ids []string) ([]types.Persona, error) {
	if len(ids) == 0 {
		ids = DefaultPersonas
	}
	seen := make(map[string]bool, len(ids))
	var out []types.Persona
	var unknown []string
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		p, ok := catalogue[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		out = append(out, p)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown personas: %s", strings.Join(unknown, ", "))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no personas selected")
	}
	return out, nil
}
