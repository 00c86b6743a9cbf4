// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"regexp"

	"github.com/pdiddy/deep-research/pkg/types"
)

var (
	strengthRe       = regexp.MustCompile(`(?i)strength|advantage|benefit|positive`)
	concernRe        = regexp.MustCompile(`(?i)concern|risk|problem|limitation`)
	opportunityRe    = regexp.MustCompile(`(?i)opportunity|potential|could|might`)
	recommendationRe = regexp.MustCompile(`(?i)recommend|suggest|should|propose`)
)

// ExtractInsights groups analyses by the kind of language they contain. An
// analysis may land in several groups; failed analyses have no text and
// land in none.
func ExtractInsights(analyses []types.PersonaAnalysis) types.Insights {
	ins := types.Insights{
		Strengths:       []types.InsightRef{},
		Concerns:        []types.InsightRef{},
		Opportunities:   []types.InsightRef{},
		Recommendations: []types.InsightRef{},
	}
	for _, a := range analyses {
		ref := types.InsightRef{Persona: a.Name, Focus: a.Focus}
		if strengthRe.MatchString(a.Analysis) {
			ins.Strengths = append(ins.Strengths, ref)
		}
		if concernRe.MatchString(a.Analysis) {
			ins.Concerns = append(ins.Concerns, ref)
		}
		if opportunityRe.MatchString(a.Analysis) {
			ins.Opportunities = append(ins.Opportunities, ref)
		}
		if recommendationRe.MatchString(a.Analysis) {
			ins.Recommendations = append(ins.Recommendations, ref)
		}
	}
	return ins
}
